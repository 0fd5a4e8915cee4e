package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/mindstore/internal/model"
)

type memorySink struct {
	mu      sync.Mutex
	entries []model.LogEntry
	ctxs    []context.Context
	err     error
}

func (s *memorySink) Persist(ctx context.Context, e model.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	s.ctxs = append(s.ctxs, ctx)
	return s.err
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, slog.LevelWarn, cfg.Level)
	assert.Equal(t, slog.LevelError, cfg.PersistLevel)
	assert.False(t, cfg.JSON)
}

func TestDebugConfig(t *testing.T) {
	cfg := DebugConfig()
	assert.Equal(t, slog.LevelDebug, cfg.Level)
	assert.True(t, cfg.JSON)
	assert.True(t, cfg.AddSource)
}

func TestInit(t *testing.T) {
	t.Cleanup(func() { Init(DefaultConfig()) })

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		Init(Config{Level: slog.LevelInfo, Output: &buf})
		Info("hello", KeyStore, "projects")
		assert.Contains(t, buf.String(), "hello")
		assert.Contains(t, buf.String(), "store=projects")
		assert.False(t, Debug)
	})

	t.Run("json_debug", func(t *testing.T) {
		var buf bytes.Buffer
		Init(Config{Level: slog.LevelDebug, JSON: true, Output: &buf})
		DebugLog("dbg")
		assert.Contains(t, buf.String(), `"msg":"dbg"`)
		assert.True(t, Debug)
	})

	t.Run("nil_output_uses_stderr", func(t *testing.T) {
		Init(Config{Level: slog.LevelInfo})
		assert.NotNil(t, Logger())
	})

	t.Run("with_sink", func(t *testing.T) {
		var buf bytes.Buffer
		sink := &memorySink{}
		Init(Config{Level: slog.LevelWarn, Output: &buf, Sink: sink, PersistLevel: slog.LevelError})

		Warn("careful")
		Error("broken", KeyError, errors.New("io"))
		Critical("on fire")

		require.Len(t, sink.entries, 2)
		assert.Equal(t, model.LogError, sink.entries[0].Level)
		assert.Equal(t, "io", sink.entries[0].Context[KeyError])
		assert.Equal(t, model.LogCritical, sink.entries[1].Level)
		assert.Contains(t, buf.String(), "level=CRITICAL")
	})
}

func TestContextLoggingFunctions(t *testing.T) {
	t.Cleanup(func() { Init(DefaultConfig()) })
	var buf bytes.Buffer
	Init(Config{Level: slog.LevelDebug, Output: &buf})

	ctx := context.Background()
	InfoContext(ctx, "i")
	DebugContext(ctx, "d")
	WarnContext(ctx, "w")
	ErrorContext(ctx, "e")
	LogOperation("migrate", KeyVersion, 4)

	out := buf.String()
	for _, want := range []string{"msg=i", "msg=d", "msg=w", "msg=e", "op=migrate", "version=4"} {
		assert.Contains(t, out, want)
	}
}

func TestStoreHandler(t *testing.T) {
	t.Run("persist_threshold", func(t *testing.T) {
		sink := &memorySink{}
		logger := slog.New(NewStoreHandler(sink, slog.LevelWarn, nil))

		logger.Info("ignored")
		logger.Warn("kept", "count", 3)

		require.Len(t, sink.entries, 1)
		e := sink.entries[0]
		assert.Equal(t, model.LogWarn, e.Level)
		assert.Equal(t, "kept", e.Message)
		assert.EqualValues(t, 3, e.Context["count"])
		assert.False(t, e.Time().IsZero())
	})

	t.Run("attrs_and_groups", func(t *testing.T) {
		sink := &memorySink{}
		logger := slog.New(NewStoreHandler(sink, slog.LevelInfo, nil)).
			With(KeyBackend, "badger").
			WithGroup("sync")

		logger.Info("pushed", "bucket", "maps", "took", 2*time.Second)

		require.Len(t, sink.entries, 1)
		ctx := sink.entries[0].Context
		assert.Equal(t, "badger", ctx[KeyBackend])
		group, ok := ctx["sync"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "maps", group["bucket"])
		assert.Equal(t, "2s", group["took"])
	})

	t.Run("masks_sensitive_context", func(t *testing.T) {
		sink := &memorySink{}
		logger := slog.New(NewStoreHandler(sink, slog.LevelInfo, nil))
		logger.Error("bad secret", "passphrase", "hunter2")

		require.Len(t, sink.entries, 1)
		assert.Equal(t, "*******", sink.entries[0].Context["passphrase"])
	})

	t.Run("skips_when_requested", func(t *testing.T) {
		sink := &memorySink{}
		logger := slog.New(NewStoreHandler(sink, slog.LevelInfo, nil))
		logger.ErrorContext(WithoutPersist(context.Background()), "sink failure")
		assert.Empty(t, sink.entries)
	})

	t.Run("sink_receives_skip_context", func(t *testing.T) {
		sink := &memorySink{err: errors.New("full")}
		logger := slog.New(NewStoreHandler(sink, slog.LevelInfo, nil))
		logger.Error("x")

		require.Len(t, sink.ctxs, 1)
		assert.True(t, persistSkipped(sink.ctxs[0]))
	})

	t.Run("forwards_to_next", func(t *testing.T) {
		var buf bytes.Buffer
		next := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
		sink := &memorySink{}
		h := NewStoreHandler(sink, slog.LevelError, next)

		assert.True(t, h.Enabled(context.Background(), slog.LevelDebug))
		slog.New(h).Debug("terminal only")
		assert.Contains(t, buf.String(), "terminal only")
		assert.Empty(t, sink.entries)
	})
}

func TestLevelMapping(t *testing.T) {
	tests := []struct {
		in   slog.Level
		want model.LogLevel
	}{
		{slog.LevelDebug, model.LogDebug},
		{slog.LevelInfo, model.LogInfo},
		{slog.LevelWarn, model.LogWarn},
		{slog.LevelError, model.LogError},
		{slog.LevelError + 2, model.LogError},
		{LevelCritical, model.LogCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFor(tt.in), tt.in.String())
	}
	for _, l := range []model.LogLevel{model.LogDebug, model.LogInfo, model.LogWarn, model.LogError, model.LogCritical} {
		assert.Equal(t, l, LevelFor(SlogLevel(l)))
	}
}

func TestRequestContext(t *testing.T) {
	id := GenerateRequestID()
	assert.Len(t, id, 16)
	assert.NotEqual(t, id, GenerateRequestID())

	ctx := NewRequestContext(context.Background())
	assert.Len(t, RequestIDFromContext(ctx), 16)
	assert.Equal(t, "", RequestIDFromContext(context.Background()))
	assert.Equal(t, "", RequestIDFromContext(nil)) //nolint:staticcheck
	assert.Equal(t, "abc", RequestIDFromContext(WithRequestID(context.Background(), "abc")))
}

func TestContextLogger(t *testing.T) {
	t.Cleanup(func() { Init(DefaultConfig()) })
	var buf bytes.Buffer
	Init(Config{Level: slog.LevelDebug, Output: &buf})

	ctx := WithRequestID(context.Background(), "req-1")
	cl := FromContext(ctx).With(KeyProjectID, "p1")
	cl.Info("opened")
	cl.Debug("d")
	cl.Warn("w")
	cl.Error("e")
	cl.Critical("c")

	out := buf.String()
	assert.Contains(t, out, "request_id=req-1")
	assert.Contains(t, out, "project_id=p1")
	assert.Contains(t, out, "level=CRITICAL")
	assert.Equal(t, "req-1", cl.RequestID())
}

func TestMasking(t *testing.T) {
	assert.True(t, IsSensitiveField("Passphrase"))
	assert.True(t, IsSensitiveField("s3_secret_key"))
	assert.False(t, IsSensitiveField("project_id"))

	assert.Equal(t, "", MaskValue(""))
	assert.Equal(t, "********", MaskValue("a-very-long-secret"))
	assert.Equal(t, "ab***", MaskPartial("abcdef", 2))
	assert.Equal(t, "**", MaskPartial("ab", 2))

	masked := MaskArgs([]any{"passphrase", "pw", "count", 1, "token", 42})
	assert.Equal(t, []any{"passphrase", "**", "count", 1, "token", "********"}, masked)
	assert.Equal(t, []any{"x"}, MaskArgs([]any{"x"}))

	long := "https://bucket.s3.eu-west-1.amazonaws.com/maps/abc/latest.json"
	assert.Equal(t, MaskURL(long), SanitizeLogMessage(long))
	assert.Equal(t, "http://localhost:9000/x", MaskString("http://localhost:9000/x"))

	m := MaskMap(map[string]any{
		"secret": "s",
		"nested": map[string]any{"token": "t", "name": "n"},
		"n":      7,
	})
	assert.Equal(t, "*", m["secret"])
	assert.Equal(t, map[string]any{"token": "*", "name": "n"}, m["nested"])
	assert.Equal(t, 7, m["n"])
}

func TestMaskAttr(t *testing.T) {
	a := MaskAttr(nil, slog.String("passphrase", "hunter2"))
	assert.Equal(t, "*******", a.Value.String())

	a = MaskAttr(nil, slog.Int("private_n", 5))
	assert.Equal(t, "********", a.Value.String())

	a = MaskAttr(nil, slog.Any(slog.LevelKey, LevelCritical))
	assert.Equal(t, "CRITICAL", a.Value.String())

	a = MaskAttr(nil, slog.Any(slog.LevelKey, slog.LevelInfo))
	assert.Equal(t, slog.LevelInfo, a.Value.Any())
}
