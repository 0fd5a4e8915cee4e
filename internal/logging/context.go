package logging

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
)

type contextKey int

const requestIDKey contextKey = iota

// GenerateRequestID returns 16 hex characters. Each CLI invocation gets one
// so that persisted log entries from a single run can be correlated.
func GenerateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "0000000000000000"
	}
	return hex.EncodeToString(b)
}

// WithRequestID returns a new context carrying requestID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// NewRequestContext derives a context with a fresh request ID.
func NewRequestContext(parent context.Context) context.Context {
	if parent == nil {
		parent = context.Background()
	}
	return WithRequestID(parent, GenerateRequestID())
}

// RequestIDFromContext returns the request ID, or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// LoggerFromContext returns the global logger tagged with the request ID.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger := Logger()
	if id := RequestIDFromContext(ctx); id != "" {
		logger = logger.With(KeyRequestID, id)
	}
	return logger
}

// ContextLogger binds a logger to a context.
type ContextLogger struct {
	ctx    context.Context
	logger *slog.Logger
}

// FromContext creates a ContextLogger from a context.
func FromContext(ctx context.Context) *ContextLogger {
	return &ContextLogger{ctx: ctx, logger: LoggerFromContext(ctx)}
}

// With returns a new ContextLogger with additional attributes.
func (cl *ContextLogger) With(args ...any) *ContextLogger {
	return &ContextLogger{ctx: cl.ctx, logger: cl.logger.With(args...)}
}

func (cl *ContextLogger) Info(msg string, args ...any) {
	cl.logger.InfoContext(cl.ctx, msg, args...)
}

func (cl *ContextLogger) Debug(msg string, args ...any) {
	cl.logger.DebugContext(cl.ctx, msg, args...)
}

func (cl *ContextLogger) Warn(msg string, args ...any) {
	cl.logger.WarnContext(cl.ctx, msg, args...)
}

func (cl *ContextLogger) Error(msg string, args ...any) {
	cl.logger.ErrorContext(cl.ctx, msg, args...)
}

// Critical logs at LevelCritical.
func (cl *ContextLogger) Critical(msg string, args ...any) {
	cl.logger.Log(cl.ctx, LevelCritical, msg, args...)
}

// RequestID returns the request ID from the logger's context.
func (cl *ContextLogger) RequestID() string {
	return RequestIDFromContext(cl.ctx)
}
