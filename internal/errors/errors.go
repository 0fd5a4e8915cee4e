// Package errors provides the error taxonomy shared by every mindstore layer.
// Three kinds exist: UserError (bad input the caller can fix), SystemError
// (persistence, encryption or environment failures) and RecoverableError
// (work that may succeed when retried, such as a queued upload).
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers test for them with errors.Is.
var (
	ErrNotFound               = errors.New("record not found")
	ErrPersistence            = errors.New("persistence failure")
	ErrUnavailable            = errors.New("storage unavailable")
	ErrConstraint             = errors.New("constraint violation")
	ErrInvalidInput           = errors.New("invalid input")
	ErrEncryptionUnavailable  = errors.New("encryption not configured")
	ErrEncryptionFailure      = errors.New("encryption failed")
	ErrDecryptionFailure      = errors.New("decryption failed")
	ErrDefaultSchemeProtected = errors.New("cannot delete the default color scheme")
	ErrUnknownTemplate        = errors.New("unknown project template")
	ErrUnsupportedFormat      = errors.New("unsupported export format")
	ErrCommitNotFound         = errors.New("commit not found")
	ErrDiskFull               = errors.New("disk full")
	ErrDatabaseCorrupted      = errors.New("database corrupted")
	ErrNetworkUnavailable     = errors.New("network unavailable")
	ErrTimeout                = errors.New("operation timed out")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrSyncDisabled           = errors.New("remote sync not configured")
)

// UserError is an error the caller can fix by changing its input.
type UserError struct {
	Message    string
	Suggestion string
	Field      string
	Value      string
}

func (e *UserError) Error() string {
	if e.Field != "" && e.Value != "" {
		return fmt.Sprintf("%s: '%s'", e.Message, e.Value)
	}
	return e.Message
}

// Unwrap lets errors.Is(err, ErrInvalidInput) match every UserError.
func (e *UserError) Unwrap() error {
	return ErrInvalidInput
}

// NewUserError creates a new UserError.
func NewUserError(message, suggestion string) *UserError {
	return &UserError{Message: message, Suggestion: suggestion}
}

// NewUserErrorWithField creates a UserError that names the offending field.
func NewUserErrorWithField(field, value, message, suggestion string) *UserError {
	return &UserError{
		Message:    message,
		Field:      field,
		Value:      value,
		Suggestion: suggestion,
	}
}

// SystemError is a failure the caller cannot fix directly. Message is a
// stable, user-presentable string; Cause keeps the detail for logs.
type SystemError struct {
	Message string
	Cause   error
	Op      string
}

func (e *SystemError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s during %s", e.Message, e.Op)
	}
	return e.Message
}

func (e *SystemError) Unwrap() error {
	return e.Cause
}

// NewSystemError creates a new SystemError.
func NewSystemError(message string, cause error) *SystemError {
	return &SystemError{Message: message, Cause: cause}
}

// NewSystemErrorWithOp creates a SystemError tagged with the failed operation.
func NewSystemErrorWithOp(op, message string, cause error) *SystemError {
	return &SystemError{Message: message, Cause: cause, Op: op}
}

// Persistence wraps a storage failure so that both ErrPersistence and the
// original cause remain reachable via errors.Is.
func Persistence(op, message string, cause error) *SystemError {
	return &SystemError{
		Message: message,
		Op:      op,
		Cause:   fmt.Errorf("%w: %w", ErrPersistence, cause),
	}
}

// RecoverableError is an error worth retrying.
type RecoverableError struct {
	Message    string
	Cause      error
	RetryCount int
	MaxRetries int
	CanRetry   bool
}

func (e *RecoverableError) Error() string {
	if e.RetryCount > 0 {
		return fmt.Sprintf("%s (attempt %d/%d)", e.Message, e.RetryCount, e.MaxRetries)
	}
	return e.Message
}

func (e *RecoverableError) Unwrap() error {
	return e.Cause
}

// NewRecoverableError creates a new RecoverableError.
func NewRecoverableError(message string, cause error, maxRetries int) *RecoverableError {
	return &RecoverableError{
		Message:    message,
		Cause:      cause,
		MaxRetries: maxRetries,
		CanRetry:   maxRetries > 0,
	}
}

// AtAttempt records that n attempts have been made and returns e.
func (e *RecoverableError) AtAttempt(n int) *RecoverableError {
	e.RetryCount = n
	e.CanRetry = n < e.MaxRetries
	return e
}

// IsUserError reports whether err wraps a UserError.
func IsUserError(err error) bool {
	var ue *UserError
	return errors.As(err, &ue)
}

// IsSystemError reports whether err wraps a SystemError.
func IsSystemError(err error) bool {
	var se *SystemError
	return errors.As(err, &se)
}

// IsRecoverableError reports whether err wraps a RecoverableError.
func IsRecoverableError(err error) bool {
	var re *RecoverableError
	return errors.As(err, &re)
}

// AsUserError extracts a UserError from an error chain.
func AsUserError(err error) (*UserError, bool) {
	var ue *UserError
	ok := errors.As(err, &ue)
	return ue, ok
}

// AsSystemError extracts a SystemError from an error chain.
func AsSystemError(err error) (*SystemError, bool) {
	var se *SystemError
	ok := errors.As(err, &se)
	return se, ok
}

// AsRecoverableError extracts a RecoverableError from an error chain.
func AsRecoverableError(err error) (*RecoverableError, bool) {
	var re *RecoverableError
	ok := errors.As(err, &re)
	return re, ok
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is, As and New re-export the standard library so callers need one import.
var (
	Is  = errors.Is
	As  = errors.As
	New = errors.New
)
