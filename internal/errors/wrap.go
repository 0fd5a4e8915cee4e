package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ContextError adds a message to a cause.
type ContextError struct {
	Message string
	Cause   error
}

func (e *ContextError) Error() string {
	if e.Message == "" && e.Cause != nil {
		return e.Cause.Error()
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ContextError) Unwrap() error {
	return e.Cause
}

// WithContext prefixes err with message.
func WithContext(err error, message string) error {
	if err == nil {
		return nil
	}
	return &ContextError{Message: message, Cause: err}
}

// WithContextf prefixes err with a formatted message.
func WithContextf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &ContextError{Message: fmt.Sprintf(format, args...), Cause: err}
}

// Chain lists every message from outermost to innermost.
func Chain(err error) []string {
	var chain []string
	for err != nil {
		chain = append(chain, err.Error())
		err = errors.Unwrap(err)
	}
	return chain
}

// RootCause returns the innermost error of a linear chain. For a joined
// error (multiple %w) it stops at the join.
func RootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// FormatDebugError renders the chain, category, hint and root cause.
func FormatDebugError(err error) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", err)

	if chain := Chain(err); len(chain) > 1 {
		sb.WriteString("\nError chain:\n")
		for i, msg := range chain {
			fmt.Fprintf(&sb, "  %d. %s\n", i+1, msg)
		}
	}

	fmt.Fprintf(&sb, "\nCategory: %s\n", Classify(err))

	if suggestion := GetSuggestion(err); suggestion != "" {
		fmt.Fprintf(&sb, "\nSuggestion: %s\n", suggestion)
	}

	if root := RootCause(err); root != err {
		fmt.Fprintf(&sb, "\nRoot cause: %v\n", root)
	}
	return sb.String()
}
