// Package config provides centralized configuration for mindstore runtime values.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"

	"github.com/manav03panchal/mindstore/internal/model"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MINDSTORE_"

// RuntimeConfig holds every tunable value of the process.
type RuntimeConfig struct {
	Storage StorageConfig
	Logs    LogsConfig
	Queue   QueueConfig
	Sync    SyncConfig
}

// StorageConfig configures the durable store gateway.
type StorageConfig struct {
	// Path is the badger directory.
	// Default: $XDG_DATA_HOME/mindstore/db
	Path string

	// InMemory opens badger without touching disk. Used by tests.
	InMemory bool

	// FallbackPath is the JSON mirror used in degraded mode.
	// Default: $XDG_STATE_HOME/mindstore/fallback.json
	FallbackPath string

	// InitTimeout bounds the primary open call.
	// Default: 5s
	InitTimeout time.Duration

	// MinFreeSpace is the minimum free space required to open for writing.
	// Default: 10MB
	MinFreeSpace uint64
}

// LogsConfig configures persisted logs.
type LogsConfig struct {
	// RetentionDays is how long persisted entries are kept.
	// Default: 30
	RetentionDays int

	// SweepInterval is how often the retention sweep runs.
	// Default: 24h
	SweepInterval time.Duration

	// PersistLevel is the lowest level written to the logs store.
	// Default: error
	PersistLevel model.LogLevel
}

// Retention returns RetentionDays as a duration.
func (c LogsConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// QueueConfig configures offline queue replay.
type QueueConfig struct {
	// ReplayInterval is how often queued operations are retried.
	// Default: 30s
	ReplayInterval time.Duration

	// MaxRetries is the number of failed replays before an entry is dropped.
	// Default: 5
	MaxRetries int
}

// SyncConfig configures the S3 remote. Sync is disabled while Bucket is empty.
type SyncConfig struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Prefix    string
}

// Enabled reports whether a remote bucket is configured.
func (c SyncConfig) Enabled() bool {
	return c.Bucket != ""
}

// DefaultRuntimeConfig returns the default runtime configuration.
func DefaultRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		Storage: StorageConfig{
			Path:         filepath.Join(xdg.DataHome, "mindstore", "db"),
			FallbackPath: filepath.Join(xdg.StateHome, "mindstore", "fallback.json"),
			InitTimeout:  5 * time.Second,
			MinFreeSpace: 10 * 1024 * 1024,
		},
		Logs: LogsConfig{
			RetentionDays: 30,
			SweepInterval: 24 * time.Hour,
			PersistLevel:  model.LogError,
		},
		Queue: QueueConfig{
			ReplayInterval: 30 * time.Second,
			MaxRetries:     5,
		},
		Sync: SyncConfig{
			Region: "us-east-1",
			Prefix: "projects",
		},
	}
}

// Global holds the process configuration: defaults plus environment
// overrides. Load additionally merges a .env file.
var Global = initGlobal()

func initGlobal() *RuntimeConfig {
	cfg := DefaultRuntimeConfig()
	cfg.loadFromEnv()
	return cfg
}

// Load reads envFile (if it exists) into the environment without
// overriding variables that are already set, then re-applies overrides.
func (c *RuntimeConfig) Load(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	c.loadFromEnv()
	return nil
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(EnvPrefix + name))
}

func (c *RuntimeConfig) loadFromEnv() {
	if v := env("DB_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := env("IN_MEMORY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Storage.InMemory = b
		}
	}
	if v := env("FALLBACK_PATH"); v != "" {
		c.Storage.FallbackPath = v
	}
	if v := env("INIT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Storage.InitTimeout = d
		}
	}
	if v := env("MIN_FREE_SPACE"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Storage.MinFreeSpace = n
		}
	}

	if v := env("LOG_RETENTION_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Logs.RetentionDays = n
		}
	}
	if v := env("LOG_SWEEP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Logs.SweepInterval = d
		}
	}
	if v := env("LOG_PERSIST_LEVEL"); v != "" {
		if l, err := model.ParseLogLevel(strings.ToLower(v)); err == nil {
			c.Logs.PersistLevel = l
		}
	}

	if v := env("QUEUE_REPLAY_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Queue.ReplayInterval = d
		}
	}
	if v := env("QUEUE_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Queue.MaxRetries = n
		}
	}

	if v := env("S3_BUCKET"); v != "" {
		c.Sync.Bucket = v
	}
	if v := env("S3_REGION"); v != "" {
		c.Sync.Region = v
	}
	if v := env("S3_ENDPOINT"); v != "" {
		c.Sync.Endpoint = v
	}
	if v := env("S3_ACCESS_KEY"); v != "" {
		c.Sync.AccessKey = v
	}
	if v := env("S3_SECRET_KEY"); v != "" {
		c.Sync.SecretKey = v
	}
	if v := env("S3_PREFIX"); v != "" {
		c.Sync.Prefix = strings.Trim(v, "/")
	}
}

// ReloadFromEnv re-applies environment overrides.
func (c *RuntimeConfig) ReloadFromEnv() {
	c.loadFromEnv()
}

// Reset restores defaults. Primarily useful for tests.
func (c *RuntimeConfig) Reset() {
	*c = *DefaultRuntimeConfig()
}
