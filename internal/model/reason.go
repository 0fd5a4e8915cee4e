package model

// Reason tags why the primary store could not be used.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonNotSupported    Reason = "not_supported"
	ReasonPrivateBrowsing Reason = "private_browsing"
	ReasonQuotaExceeded   Reason = "quota_exceeded"
	ReasonTimeout         Reason = "timeout"
	ReasonCorrupted       Reason = "corrupted"
	ReasonError           Reason = "error"
)
