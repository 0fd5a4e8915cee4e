package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/mindstore/internal/errors"
	"github.com/manav03panchal/mindstore/internal/model"
)

func TestProbeDirectory(t *testing.T) {
	t.Run("usable directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "db")
		av := probeDirectory(dir, 0)
		assert.True(t, av.OK)
		_, err := os.Stat(filepath.Join(dir, probeFileName))
		assert.True(t, os.IsNotExist(err), "probe file is removed")
	})

	t.Run("path is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "db")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
		av := probeDirectory(file, 0)
		assert.False(t, av.OK)
		assert.Equal(t, model.ReasonNotSupported, av.Reason)
	})

	t.Run("not enough space", func(t *testing.T) {
		dir := t.TempDir()
		if _, err := GetDiskSpace(dir); err != nil {
			t.Skip("disk space not measurable here")
		}
		av := probeDirectory(dir, math.MaxUint64)
		assert.False(t, av.OK)
		assert.Equal(t, model.ReasonQuotaExceeded, av.Reason)
	})
}

func TestBadgerBackendProbeRejectsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "db")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	av := NewBadgerBackend(BadgerOptions{Path: file}).Probe(context.Background())
	assert.False(t, av.OK)
	assert.Equal(t, model.ReasonNotSupported, av.Reason)
}

func TestReasonFor(t *testing.T) {
	assert.Equal(t, model.ReasonNone, reasonFor(nil))
	assert.Equal(t, model.ReasonTimeout, reasonFor(context.DeadlineExceeded))
	assert.Equal(t, model.ReasonTimeout, reasonFor(fmt.Errorf("open: %w", errors.ErrTimeout)))
	assert.Equal(t, model.ReasonQuotaExceeded, reasonFor(errors.NewSystemError("full", errors.ErrDiskFull)))
	assert.Equal(t, model.ReasonPrivateBrowsing, reasonFor(os.ErrPermission))
	assert.Equal(t, model.ReasonCorrupted, reasonFor(stderrors.New("checksum mismatch in table")))
	assert.Equal(t, model.ReasonError, reasonFor(stderrors.New("weird")))
}

func TestSafeWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "fallback.json")
	require.NoError(t, SafeWrite(path, []byte(`{"a":1}`), 0o600, 0))
	require.NoError(t, SafeWrite(path, []byte(`{"a":2}`), 0o600, 0))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestCheckDiskSpaceDisabled(t *testing.T) {
	assert.NoError(t, CheckDiskSpace(t.TempDir(), 0))
}

func TestIsDatabaseCorrupted(t *testing.T) {
	assert.False(t, IsDatabaseCorrupted(nil))
	assert.True(t, IsDatabaseCorrupted(errors.ErrDatabaseCorrupted))
	assert.True(t, IsDatabaseCorrupted(stderrors.New("Unexpected EOF reading manifest")))
	assert.False(t, IsDatabaseCorrupted(stderrors.New("permission denied")))
}

func TestIntegrityAndBackup(t *testing.T) {
	dir := t.TempDir()
	b := NewBadgerBackend(BadgerOptions{Path: filepath.Join(dir, "db")})
	g := NewGateway(b, nil, GatewayOptions{Now: testClock})
	require.NoError(t, g.Init(context.Background()))
	defer g.Close()

	status := CheckIntegrity(b)
	assert.True(t, status.Healthy)
	assert.Positive(t, status.Checked)

	path, err := CreateBackup(b, filepath.Join(dir, "backups"))
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	closed := NewBadgerBackend(BadgerOptions{InMemory: true})
	assert.False(t, CheckIntegrity(closed).Healthy)
}
