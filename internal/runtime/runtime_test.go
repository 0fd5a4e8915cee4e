package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/mindstore/internal/config"
	"github.com/manav03panchal/mindstore/internal/errors"
	"github.com/manav03panchal/mindstore/internal/logging"
	"github.com/manav03panchal/mindstore/internal/output"
	"github.com/manav03panchal/mindstore/internal/storage"
)

func newMemoryContext(t *testing.T, opts Options) *Context {
	t.Helper()
	opts.InMemory = true
	opts.Config = config.DefaultRuntimeConfig()
	c, err := New(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

// =============================================================================
// Context Tests
// =============================================================================

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.False(t, opts.InMemory)
	assert.Equal(t, output.FormatCLI, opts.Format)
	assert.Equal(t, output.ColorAuto, opts.ColorMode)
	assert.False(t, opts.Debug)
}

func TestNew(t *testing.T) {
	c := newMemoryContext(t, Options{})

	assert.NoError(t, c.InitErr)
	assert.NotNil(t, c.Formatter)
	assert.NotNil(t, c.Projects)
	assert.NotNil(t, c.Versions)
	assert.NotNil(t, c.Secrets)
	assert.NotNil(t, c.Queue)
	assert.NotNil(t, c.Replayer)
	assert.NotNil(t, c.Syncer)
	assert.Equal(t, storage.ModePrimary, c.Gateway.Mode())
	assert.False(t, c.Syncer.Enabled())
	assert.False(t, c.Secrets.Configured())
}

func TestNewWithOptions(t *testing.T) {
	c := newMemoryContext(t, Options{
		Format:     output.FormatJSON,
		ColorMode:  output.ColorNever,
		Debug:      true,
		Passphrase: "hunter2",
	})

	assert.Equal(t, output.FormatJSON, c.Formatter.Format)
	assert.Equal(t, output.ColorNever, c.Formatter.ColorMode)
	assert.True(t, c.Debug)
	assert.True(t, c.IsJSON())
	assert.True(t, c.Secrets.Configured())
}

func TestNewPassphraseFromEnv(t *testing.T) {
	t.Setenv(PassphraseEnv, "from-env")
	c := newMemoryContext(t, Options{})
	assert.True(t, c.Secrets.Configured())
}

func TestOptionsConfigDoesNotMutateSource(t *testing.T) {
	src := config.DefaultRuntimeConfig()
	cfg := Options{DBPath: ":memory:", FallbackPath: "/tmp/x.json", Config: src}.config()

	assert.True(t, cfg.Storage.InMemory)
	assert.Equal(t, "/tmp/x.json", cfg.Storage.FallbackPath)
	assert.False(t, src.Storage.InMemory)
}

func TestNewOnDisk(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultRuntimeConfig()
	cfg.Storage.MinFreeSpace = 0
	opts := Options{
		DBPath:       filepath.Join(dir, "db"),
		FallbackPath: filepath.Join(dir, "fallback.json"),
		Config:       cfg,
	}

	c, err := New(context.Background(), opts)
	require.NoError(t, err)
	p, err := c.Projects.Create(context.Background(), "Demo", "", "")
	require.NoError(t, err)
	require.NoError(t, c.Close())

	reopened, err := New(context.Background(), opts)
	require.NoError(t, err)
	defer reopened.Close()
	got := reopened.ProjectRepo.Get(context.Background(), p.ID)
	require.NotNil(t, got)
	assert.Equal(t, "Demo", got.Name)
	st := reopened.Status(context.Background())
	assert.Equal(t, filepath.Join(dir, "db"), st.DataPath)
	assert.Greater(t, st.DiskFree, 0.0)
	assert.LessOrEqual(t, st.DiskFree, 100.0)
}

func TestContextStatus(t *testing.T) {
	c := newMemoryContext(t, Options{})
	ctx := context.Background()

	_, err := c.Queue.Enqueue(ctx, "upload", nil, 0)
	require.NoError(t, err)

	s := c.Status(ctx)
	assert.Equal(t, "ok", s.Status)
	assert.Equal(t, string(storage.ModePrimary), s.Mode)
	assert.Equal(t, storage.SchemaVersion, s.SchemaVersion)
	assert.Equal(t, 1, s.QueueLength)
	assert.Empty(t, s.DataPath)
	assert.Contains(t, s.Stores, "projects")
}

func TestContextStartBackground(t *testing.T) {
	c := newMemoryContext(t, Options{})
	c.StartBackground(context.Background())
	assert.NoError(t, c.Close())
}

func TestContextDebugf(t *testing.T) {
	var buf bytes.Buffer
	c := &Context{Formatter: &output.Formatter{Writer: &buf}}

	c.Debugf("hidden %d", 1)
	assert.Empty(t, buf.String())

	c.Debug = true
	c.Debugf("shown %d", 2)
	assert.Equal(t, "[DEBUG] shown 2\n", buf.String())
}

// =============================================================================
// Error Tests
// =============================================================================

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"user", errors.NewUserError("bad", ""), ExitUser},
		{"not_found", errors.ErrNotFound, ExitUser},
		{"system", errors.NewSystemError("failed to save project", errors.ErrPersistence), ExitSystem},
		{"recoverable", errors.NewRecoverableError("later", nil, 3), ExitRecoverable},
		{"unknown", stderrors.New("?"), ExitInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestFormatError(t *testing.T) {
	msg := FormatError(errors.ErrUnknownTemplate)
	assert.Contains(t, msg, "unknown project template")
	assert.Contains(t, msg, errors.GetSuggestion(errors.ErrUnknownTemplate))
}

func TestFormatErrorByCategory(t *testing.T) {
	debug := logging.Debug
	logging.Debug = false
	t.Cleanup(func() { logging.Debug = debug })

	user := FormatError(errors.NewUserError("bad size", "use small, medium or large"))
	assert.Equal(t, "bad size\n\nTry: use small, medium or large", user)

	system := FormatError(errors.ErrDiskFull)
	assert.True(t, strings.HasPrefix(system, "System error: disk full"), system)

	queued := FormatError(errors.NewRecoverableError("upload failed", errors.ErrNetworkUnavailable, 3).AtAttempt(1))
	assert.Equal(t, "upload failed (attempt 1/3) (queued for retry)", queued)
}

func TestReportErrorJSON(t *testing.T) {
	var buf bytes.Buffer
	c := &Context{Formatter: &output.Formatter{Writer: &buf, Format: output.FormatJSON}}

	c.ReportError(errors.ErrNotFound)
	var resp output.ErrorResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "record not found", resp.Error)
	assert.Equal(t, "user", resp.Category)
	assert.NotEmpty(t, resp.Suggestion)
}

func TestReportErrorCLI(t *testing.T) {
	var buf bytes.Buffer
	c := &Context{Formatter: &output.Formatter{Writer: &buf, ColorMode: output.ColorNever}}

	c.ReportError(errors.ErrNotFound)
	assert.Contains(t, buf.String(), "✗ record not found")
}
