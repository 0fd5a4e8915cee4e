package errors

import (
	"errors"
	"syscall"
)

// Category groups errors for display and retry decisions.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryUser
	CategorySystem
	CategoryRecoverable
	CategoryInternal
)

// String returns the string representation of the category.
func (c Category) String() string {
	switch c {
	case CategoryUser:
		return "user"
	case CategorySystem:
		return "system"
	case CategoryRecoverable:
		return "recoverable"
	case CategoryInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Classify determines the category of an error. Typed errors win over
// sentinel matches; recoverable typed errors are checked before system ones
// because a queued retry usually wraps a SystemError cause.
func Classify(err error) Category {
	if err == nil {
		return CategoryUnknown
	}
	if IsUserError(err) {
		return CategoryUser
	}
	if IsRecoverableError(err) {
		return CategoryRecoverable
	}
	if IsSystemError(err) {
		return CategorySystem
	}
	if isRecoverablePattern(err) {
		return CategoryRecoverable
	}
	if isSystemLevel(err) {
		return CategorySystem
	}
	if isUserLevel(err) {
		return CategoryUser
	}
	return CategoryUnknown
}

func isUserLevel(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrCommitNotFound) ||
		errors.Is(err, ErrUnknownTemplate) ||
		errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrDefaultSchemeProtected) ||
		errors.Is(err, ErrConstraint)
}

func isSystemLevel(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ENOSPC, syscall.EACCES, syscall.EPERM, syscall.ENOENT, syscall.EIO, syscall.EROFS:
			return true
		}
	}

	return errors.Is(err, ErrPersistence) ||
		errors.Is(err, ErrUnavailable) ||
		errors.Is(err, ErrDiskFull) ||
		errors.Is(err, ErrDatabaseCorrupted) ||
		errors.Is(err, ErrPermissionDenied) ||
		errors.Is(err, ErrEncryptionUnavailable) ||
		errors.Is(err, ErrEncryptionFailure) ||
		errors.Is(err, ErrDecryptionFailure) ||
		errors.Is(err, ErrSyncDisabled)
}

func isRecoverablePattern(err error) bool {
	if errors.Is(err, ErrNetworkUnavailable) || errors.Is(err, ErrTimeout) {
		return true
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EAGAIN, syscall.EINTR, syscall.ETIMEDOUT, syscall.ECONNREFUSED, syscall.ECONNRESET:
			return true
		}
	}
	return false
}

// FormatByCategory renders an error for the terminal.
func FormatByCategory(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	suggestion := GetSuggestion(err)

	switch Classify(err) {
	case CategoryUser:
		if suggestion != "" {
			return msg + "\n\nTry: " + suggestion
		}
		return msg
	case CategorySystem:
		if suggestion != "" {
			return "System error: " + msg + "\n\n" + suggestion
		}
		return "System error: " + msg
	case CategoryRecoverable:
		if re, ok := AsRecoverableError(err); ok && !re.CanRetry {
			return msg + " (retries exhausted)"
		}
		return msg + " (queued for retry)"
	default:
		return msg
	}
}
