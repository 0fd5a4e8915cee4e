package runtime

import (
	"fmt"

	"github.com/manav03panchal/mindstore/internal/errors"
	"github.com/manav03panchal/mindstore/internal/logging"
)

// Exit codes by error category.
const (
	ExitOK          = 0
	ExitUser        = 1
	ExitSystem      = 2
	ExitRecoverable = 3
	ExitInternal    = 4
)

// FormatError renders an error by category, followed by its suggestion. In
// debug mode the full chain follows.
func FormatError(err error) string {
	msg := logging.SanitizeLogMessage(errors.FormatByCategory(err))
	if logging.Debug {
		msg += "\n\n" + errors.FormatDebugError(err)
	}
	return msg
}

// ExitCode maps an error onto a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch errors.Classify(err) {
	case errors.CategoryUser:
		return ExitUser
	case errors.CategorySystem:
		return ExitSystem
	case errors.CategoryRecoverable:
		return ExitRecoverable
	default:
		return ExitInternal
	}
}

// ReportError prints err through the context's formatter, as JSON when
// the output format is JSON.
func (c *Context) ReportError(err error) {
	if c.IsJSON() {
		if jerr := c.JSONFormatter().PrintError(err.Error(), errors.Classify(err).String(), errors.GetSuggestion(err)); jerr != nil {
			fmt.Fprintln(c.Formatter.Writer, err)
		}
		return
	}
	c.CLIFormatter().Error(FormatError(err))
}
