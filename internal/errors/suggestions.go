package errors

import "errors"

// Suggestions maps sentinel errors to a hint shown beneath the message.
var Suggestions = map[error]string{
	ErrNotFound:               "List what exists with 'mindstore project list' or 'mindstore scheme list'.",
	ErrCommitNotFound:         "List the commits of a project with 'mindstore commit list <project-id>'.",
	ErrUnknownTemplate:        "Available templates: blank, mindmap, brainstorm.",
	ErrUnsupportedFormat:      "Supported export formats: json, yaml.",
	ErrDefaultSchemeProtected: "Mark another scheme as default first with 'mindstore scheme default <id>'.",
	ErrConstraint:             "Another record already uses that value. Pick a different one.",
	ErrPersistence:            "Check that the data directory is writable; run 'mindstore status' for details.",
	ErrUnavailable:            "Local storage could not be opened. Run 'mindstore status' to see the reason.",
	ErrEncryptionUnavailable:  "Provide a passphrase with --passphrase or MINDSTORE_PASSPHRASE.",
	ErrEncryptionFailure:      "Encryption failed. Re-enter the passphrase and try again.",
	ErrDecryptionFailure:      "The passphrase does not match the one used to store this secret.",
	ErrDiskFull:               "Free up disk space and try again.",
	ErrDatabaseCorrupted:      "Restore from a backup made with 'mindstore backup'.",
	ErrPermissionDenied:       "Check file permissions on the mindstore data directory.",
	ErrNetworkUnavailable:     "The operation was queued and will be replayed when the network returns.",
	ErrTimeout:                "The operation timed out. Try again, or raise MINDSTORE_INIT_TIMEOUT.",
	ErrSyncDisabled:           "Set MINDSTORE_S3_BUCKET (and credentials) to enable remote sync.",
}

// GetSuggestion returns the most specific hint for an error, or "".
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	if ue, ok := AsUserError(err); ok && ue.Suggestion != "" {
		return ue.Suggestion
	}

	for sentinel, suggestion := range Suggestions {
		if sentinel == ErrPersistence || sentinel == ErrUnavailable {
			continue
		}
		if errors.Is(err, sentinel) {
			return suggestion
		}
	}
	// Generic wrappers last, so a more specific cause wins.
	if errors.Is(err, ErrUnavailable) {
		return Suggestions[ErrUnavailable]
	}
	if errors.Is(err, ErrPersistence) {
		return Suggestions[ErrPersistence]
	}
	return GetCategorySuggestion(Classify(err))
}

// GetCategorySuggestion returns a generic hint for a category.
func GetCategorySuggestion(category Category) string {
	switch category {
	case CategorySystem:
		return "This is a local system problem. Run 'mindstore status' for details."
	case CategoryRecoverable:
		return "This may be temporary. Run 'mindstore queue replay' to retry."
	case CategoryInternal:
		return "This is unexpected. Re-run with --debug and report the output."
	default:
		return ""
	}
}
