// Package logging provides structured logging for mindstore on top of slog.
// Records at or above a configurable level can additionally be persisted to
// the local store through a Sink.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

// LevelCritical sits above slog.LevelError and maps to the "critical"
// persisted level.
const LevelCritical = slog.LevelError + 4

var (
	defaultLogger *slog.Logger
	loggerMu      sync.RWMutex

	// Debug indicates if debug mode is enabled.
	Debug bool
)

func init() {
	defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:       slog.LevelWarn,
		ReplaceAttr: MaskAttr,
	}))
}

// Config holds logger configuration.
type Config struct {
	Level     slog.Level
	JSON      bool
	Output    io.Writer
	AddSource bool

	// Sink, when set, receives every record at PersistLevel or above.
	Sink         Sink
	PersistLevel slog.Level
}

// DefaultConfig keeps the terminal quiet: only warnings and above reach
// stderr, errors and above are persisted.
func DefaultConfig() Config {
	return Config{
		Level:        slog.LevelWarn,
		Output:       os.Stderr,
		PersistLevel: slog.LevelError,
	}
}

// DebugConfig returns a configuration suitable for --debug.
func DebugConfig() Config {
	return Config{
		Level:        slog.LevelDebug,
		JSON:         true,
		Output:       os.Stderr,
		AddSource:    true,
		PersistLevel: slog.LevelError,
	}
}

// Init replaces the global logger.
func Init(cfg Config) {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	defaultLogger = slog.New(NewHandler(cfg))
	Debug = cfg.Level <= slog.LevelDebug
}

// NewHandler builds the handler described by cfg without touching the
// global logger.
func NewHandler(cfg Config) slog.Handler {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:       cfg.Level,
		AddSource:   cfg.AddSource,
		ReplaceAttr: MaskAttr,
	}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	if cfg.Sink != nil {
		handler = NewStoreHandler(cfg.Sink, cfg.PersistLevel, handler)
	}
	return handler
}

// InitDebug initializes the logger in debug mode with JSON output.
func InitDebug() {
	Init(DebugConfig())
}

// Logger returns the current logger instance.
func Logger() *slog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return defaultLogger
}

// With returns a logger with additional attributes.
func With(args ...any) *slog.Logger {
	return Logger().With(args...)
}

// WithGroup returns a logger with a group prefix.
func WithGroup(name string) *slog.Logger {
	return Logger().WithGroup(name)
}

func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

func DebugLog(msg string, args ...any) {
	Logger().Debug(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}

// Critical logs at LevelCritical.
func Critical(msg string, args ...any) {
	Logger().Log(context.Background(), LevelCritical, msg, args...)
}

func InfoContext(ctx context.Context, msg string, args ...any) {
	Logger().InfoContext(ctx, msg, args...)
}

func DebugContext(ctx context.Context, msg string, args ...any) {
	Logger().DebugContext(ctx, msg, args...)
}

func WarnContext(ctx context.Context, msg string, args ...any) {
	Logger().WarnContext(ctx, msg, args...)
}

func ErrorContext(ctx context.Context, msg string, args ...any) {
	Logger().ErrorContext(ctx, msg, args...)
}

// Common structured logging fields.
const (
	KeyRequestID = "request_id"
	KeyOperation = "op"
	KeyDuration  = "duration_ms"
	KeyError     = "error"
	KeyStore     = "store"
	KeyProjectID = "project_id"
	KeyBackend   = "backend"
	KeyReason    = "reason"
	KeyVersion   = "version"
	KeyQueueID   = "queue_id"
	KeyCount     = "count"
)

// LogOperation records a debug line for an operation.
func LogOperation(op string, args ...any) {
	allArgs := append([]any{KeyOperation, op}, args...)
	Logger().Debug("operation", allArgs...)
}
