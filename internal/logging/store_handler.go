package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/manav03panchal/mindstore/internal/model"
)

// Sink persists log entries. The storage LogRepo implements it.
type Sink interface {
	Persist(ctx context.Context, entry model.LogEntry) error
}

type skipPersistKey struct{}

// WithoutPersist marks ctx so that records logged with it are not handed to
// a Sink. Sinks use it when reporting their own failures.
func WithoutPersist(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipPersistKey{}, true)
}

func persistSkipped(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	skip, _ := ctx.Value(skipPersistKey{}).(bool)
	return skip
}

// StoreHandler forwards every record to next and additionally persists
// records at or above level to sink.
type StoreHandler struct {
	sink   Sink
	level  slog.Level
	next   slog.Handler
	attrs  []slog.Attr
	groups []string
}

// NewStoreHandler wraps next. A nil next drops terminal output and only
// persists.
func NewStoreHandler(sink Sink, level slog.Level, next slog.Handler) *StoreHandler {
	return &StoreHandler{sink: sink, level: level, next: next}
}

func (h *StoreHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level >= h.level {
		return true
	}
	return h.next != nil && h.next.Enabled(ctx, level)
}

func (h *StoreHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.next != nil && h.next.Enabled(ctx, r.Level) {
		if err := h.next.Handle(ctx, r); err != nil {
			return err
		}
	}
	if r.Level < h.level || persistSkipped(ctx) {
		return nil
	}

	entry := model.LogEntry{
		Timestamp: model.FormatTimestamp(recordTime(r)),
		Level:     LevelFor(r.Level),
		Message:   SanitizeLogMessage(r.Message),
		Context:   h.context(r),
	}
	if ctx == nil {
		ctx = context.Background()
	}
	// A failed persist must never fail the caller's log call.
	_ = h.sink.Persist(WithoutPersist(ctx), entry)
	return nil
}

func (h *StoreHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := h.clone()
	for _, a := range attrs {
		clone.attrs = append(clone.attrs, h.qualify(a))
	}
	if h.next != nil {
		clone.next = h.next.WithAttrs(attrs)
	}
	return clone
}

func (h *StoreHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := h.clone()
	clone.groups = append(clone.groups, name)
	if h.next != nil {
		clone.next = h.next.WithGroup(name)
	}
	return clone
}

func (h *StoreHandler) clone() *StoreHandler {
	return &StoreHandler{
		sink:   h.sink,
		level:  h.level,
		next:   h.next,
		attrs:  append([]slog.Attr(nil), h.attrs...),
		groups: append([]string(nil), h.groups...),
	}
}

func (h *StoreHandler) qualify(a slog.Attr) slog.Attr {
	for i := len(h.groups) - 1; i >= 0; i-- {
		a = slog.Group(h.groups[i], a)
	}
	return a
}

func (h *StoreHandler) context(r slog.Record) map[string]any {
	if len(h.attrs) == 0 && r.NumAttrs() == 0 {
		return nil
	}
	out := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		addAttr(out, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		addAttr(out, h.qualify(a))
		return true
	})
	return MaskMap(out)
}

func addAttr(out map[string]any, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		group, ok := out[a.Key].(map[string]any)
		if !ok {
			group = map[string]any{}
		}
		for _, ga := range v.Group() {
			addAttr(group, ga)
		}
		if a.Key == "" {
			for k, gv := range group {
				out[k] = gv
			}
			return
		}
		out[a.Key] = group
		return
	}
	if a.Key == "" {
		return
	}
	switch v.Kind() {
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			out[a.Key] = err.Error()
			return
		}
		out[a.Key] = v.Any()
	case slog.KindDuration:
		out[a.Key] = v.Duration().String()
	case slog.KindTime:
		out[a.Key] = v.Time().UTC().Format(time.RFC3339Nano)
	default:
		out[a.Key] = v.Any()
	}
}

func recordTime(r slog.Record) time.Time {
	if r.Time.IsZero() {
		return time.Now()
	}
	return r.Time
}

// LevelFor maps an slog level onto the persisted level names.
func LevelFor(l slog.Level) model.LogLevel {
	switch {
	case l >= LevelCritical:
		return model.LogCritical
	case l >= slog.LevelError:
		return model.LogError
	case l >= slog.LevelWarn:
		return model.LogWarn
	case l >= slog.LevelInfo:
		return model.LogInfo
	default:
		return model.LogDebug
	}
}

// SlogLevel is the inverse of LevelFor.
func SlogLevel(l model.LogLevel) slog.Level {
	switch l {
	case model.LogCritical:
		return LevelCritical
	case model.LogError:
		return slog.LevelError
	case model.LogWarn:
		return slog.LevelWarn
	case model.LogInfo:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
