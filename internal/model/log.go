package model

import (
	"fmt"
	"time"
)

// LogLevel is the severity of a persisted log entry.
type LogLevel string

const (
	LogDebug    LogLevel = "debug"
	LogInfo     LogLevel = "info"
	LogWarn     LogLevel = "warn"
	LogError    LogLevel = "error"
	LogCritical LogLevel = "critical"
)

var logLevelRank = map[LogLevel]int{
	LogDebug:    0,
	LogInfo:     1,
	LogWarn:     2,
	LogError:    3,
	LogCritical: 4,
}

// Valid reports whether l is a known level.
func (l LogLevel) Valid() bool {
	_, ok := logLevelRank[l]
	return ok
}

// AtLeast reports whether l is as severe as min.
func (l LogLevel) AtLeast(min LogLevel) bool {
	return logLevelRank[l] >= logLevelRank[min]
}

// ParseLogLevel validates a level name.
func ParseLogLevel(s string) (LogLevel, error) {
	l := LogLevel(s)
	if !l.Valid() {
		return "", fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

// TimestampLayout is the fixed-width UTC layout used for persisted
// timestamps, so that lexical order equals chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z"

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// LogEntry is an immutable persisted log record.
type LogEntry struct {
	ID        string         `json:"id"`
	Timestamp string         `json:"timestamp"`
	Level     LogLevel       `json:"level"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
}

// SetKey sets the entry ID.
func (e *LogEntry) SetKey(key string) {
	e.ID = key
}

// GetKey returns the entry ID.
func (e *LogEntry) GetKey() string {
	return e.ID
}

// Time parses the entry timestamp. Unparseable timestamps yield the zero time.
func (e *LogEntry) Time() time.Time {
	t, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}
