package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/manav03panchal/mindstore/internal/model"
)

func TestDefaultRuntimeConfig(t *testing.T) {
	cfg := DefaultRuntimeConfig()

	if !strings.HasSuffix(cfg.Storage.Path, filepath.Join("mindstore", "db")) {
		t.Errorf("expected Storage.Path under mindstore/db, got %q", cfg.Storage.Path)
	}
	if !strings.HasSuffix(cfg.Storage.FallbackPath, "fallback.json") {
		t.Errorf("expected Storage.FallbackPath to end in fallback.json, got %q", cfg.Storage.FallbackPath)
	}
	if cfg.Storage.InitTimeout != 5*time.Second {
		t.Errorf("expected Storage.InitTimeout = 5s, got %v", cfg.Storage.InitTimeout)
	}
	if cfg.Storage.MinFreeSpace != 10*1024*1024 {
		t.Errorf("expected Storage.MinFreeSpace = 10MB, got %d", cfg.Storage.MinFreeSpace)
	}
	if cfg.Logs.RetentionDays != 30 {
		t.Errorf("expected Logs.RetentionDays = 30, got %d", cfg.Logs.RetentionDays)
	}
	if cfg.Logs.Retention() != 30*24*time.Hour {
		t.Errorf("expected Logs.Retention() = 720h, got %v", cfg.Logs.Retention())
	}
	if cfg.Logs.SweepInterval != 24*time.Hour {
		t.Errorf("expected Logs.SweepInterval = 24h, got %v", cfg.Logs.SweepInterval)
	}
	if cfg.Logs.PersistLevel != model.LogError {
		t.Errorf("expected Logs.PersistLevel = error, got %q", cfg.Logs.PersistLevel)
	}
	if cfg.Queue.ReplayInterval != 30*time.Second {
		t.Errorf("expected Queue.ReplayInterval = 30s, got %v", cfg.Queue.ReplayInterval)
	}
	if cfg.Queue.MaxRetries != 5 {
		t.Errorf("expected Queue.MaxRetries = 5, got %d", cfg.Queue.MaxRetries)
	}
	if cfg.Sync.Enabled() {
		t.Error("expected sync to be disabled without a bucket")
	}
}

func TestGlobalConfigExists(t *testing.T) {
	if Global == nil {
		t.Fatal("Global config should not be nil")
	}
}

func TestConfigReset(t *testing.T) {
	original := *Global
	defer func() { *Global = original }()

	Global.Queue.MaxRetries = 99
	Global.Reset()

	if Global.Queue.MaxRetries != 5 {
		t.Errorf("expected Queue.MaxRetries = 5 after reset, got %d", Global.Queue.MaxRetries)
	}
}

func TestConfigLoadFromEnv(t *testing.T) {
	t.Setenv("MINDSTORE_DB_PATH", "/tmp/ms-db")
	t.Setenv("MINDSTORE_IN_MEMORY", "true")
	t.Setenv("MINDSTORE_INIT_TIMEOUT", "2s")
	t.Setenv("MINDSTORE_LOG_RETENTION_DAYS", "7")
	t.Setenv("MINDSTORE_LOG_PERSIST_LEVEL", "WARN")
	t.Setenv("MINDSTORE_QUEUE_MAX_RETRIES", "0")
	t.Setenv("MINDSTORE_S3_BUCKET", "maps")
	t.Setenv("MINDSTORE_S3_PREFIX", "/team/")

	cfg := DefaultRuntimeConfig()
	cfg.loadFromEnv()

	if cfg.Storage.Path != "/tmp/ms-db" {
		t.Errorf("expected Storage.Path from env, got %q", cfg.Storage.Path)
	}
	if !cfg.Storage.InMemory {
		t.Error("expected Storage.InMemory from env")
	}
	if cfg.Storage.InitTimeout != 2*time.Second {
		t.Errorf("expected Storage.InitTimeout = 2s, got %v", cfg.Storage.InitTimeout)
	}
	if cfg.Logs.RetentionDays != 7 {
		t.Errorf("expected Logs.RetentionDays = 7, got %d", cfg.Logs.RetentionDays)
	}
	if cfg.Logs.PersistLevel != model.LogWarn {
		t.Errorf("expected Logs.PersistLevel = warn, got %q", cfg.Logs.PersistLevel)
	}
	if cfg.Queue.MaxRetries != 0 {
		t.Errorf("expected Queue.MaxRetries = 0, got %d", cfg.Queue.MaxRetries)
	}
	if !cfg.Sync.Enabled() || cfg.Sync.Prefix != "team" {
		t.Errorf("expected sync bucket maps with prefix team, got %+v", cfg.Sync)
	}
}

func TestConfigLoadFromEnvInvalidValues(t *testing.T) {
	t.Setenv("MINDSTORE_INIT_TIMEOUT", "soon")
	t.Setenv("MINDSTORE_LOG_RETENTION_DAYS", "-3")
	t.Setenv("MINDSTORE_LOG_PERSIST_LEVEL", "loud")
	t.Setenv("MINDSTORE_QUEUE_MAX_RETRIES", "many")

	cfg := DefaultRuntimeConfig()
	cfg.loadFromEnv()

	if cfg.Storage.InitTimeout != 5*time.Second {
		t.Errorf("expected default InitTimeout, got %v", cfg.Storage.InitTimeout)
	}
	if cfg.Logs.RetentionDays != 30 {
		t.Errorf("expected default RetentionDays, got %d", cfg.Logs.RetentionDays)
	}
	if cfg.Logs.PersistLevel != model.LogError {
		t.Errorf("expected default PersistLevel, got %q", cfg.Logs.PersistLevel)
	}
	if cfg.Queue.MaxRetries != 5 {
		t.Errorf("expected default MaxRetries, got %d", cfg.Queue.MaxRetries)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("MINDSTORE_S3_REGION=eu-west-1\nMINDSTORE_QUEUE_REPLAY_INTERVAL=1m\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("MINDSTORE_S3_REGION")
		os.Unsetenv("MINDSTORE_QUEUE_REPLAY_INTERVAL")
	})

	cfg := DefaultRuntimeConfig()
	if err := cfg.Load(envFile); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sync.Region != "eu-west-1" {
		t.Errorf("expected region from .env, got %q", cfg.Sync.Region)
	}
	if cfg.Queue.ReplayInterval != time.Minute {
		t.Errorf("expected replay interval from .env, got %v", cfg.Queue.ReplayInterval)
	}
}

func TestLoadMissingEnvFile(t *testing.T) {
	cfg := DefaultRuntimeConfig()
	if err := cfg.Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("missing .env should be ignored, got %v", err)
	}
}
