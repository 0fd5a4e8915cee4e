// Package runtime wires the mindstore services for one process.
package runtime

import (
	"context"
	"os"
	"time"

	"github.com/manav03panchal/mindstore/internal/config"
	"github.com/manav03panchal/mindstore/internal/events"
	"github.com/manav03panchal/mindstore/internal/logging"
	"github.com/manav03panchal/mindstore/internal/offline"
	"github.com/manav03panchal/mindstore/internal/output"
	"github.com/manav03panchal/mindstore/internal/project"
	"github.com/manav03panchal/mindstore/internal/remote"
	"github.com/manav03panchal/mindstore/internal/securestore"
	"github.com/manav03panchal/mindstore/internal/storage"
	"github.com/manav03panchal/mindstore/internal/version"
)

// PassphraseEnv supplies the secure store passphrase.
const PassphraseEnv = config.EnvPrefix + "PASSPHRASE"

// Context holds the application runtime context.
type Context struct {
	Config    *config.RuntimeConfig
	Formatter *output.Formatter
	Bus       *events.Bus

	Gateway *storage.Gateway
	Primary *storage.BadgerBackend

	// Repositories
	Settings    *storage.SettingsRepo
	Colors      *storage.ColorRepo
	Preferences *storage.PreferencesRepo
	Logs        *storage.LogRepo
	Secure      *storage.SecureRepo
	ProjectRepo *storage.ProjectRepo
	History     *storage.HistoryRepo
	QueueRepo   *storage.QueueRepo
	Commits     *storage.CommitRepo

	// Services
	Projects *project.Manager
	Versions *version.Tracker
	Secrets  *securestore.Codec
	Queue    *offline.Queue
	Replayer *offline.Replayer
	Syncer   *remote.Syncer
	Sweeper  *storage.LogSweeper

	// InitErr is set when the gateway never reached a usable state.
	InitErr error

	Debug bool
}

// Options configures the runtime context.
type Options struct {
	DBPath       string
	InMemory     bool
	FallbackPath string
	Format       output.Format
	ColorMode    output.ColorMode
	Debug        bool
	Passphrase   string

	// Config overrides config.Global.
	Config *config.RuntimeConfig
}

// DefaultOptions returns default runtime options.
func DefaultOptions() Options {
	return Options{
		Format:    output.FormatCLI,
		ColorMode: output.ColorAuto,
	}
}

func (o Options) config() *config.RuntimeConfig {
	cfg := config.Global
	if o.Config != nil {
		cfg = o.Config
	}
	c := *cfg
	if o.DBPath != "" {
		if o.DBPath == ":memory:" {
			c.Storage.InMemory = true
		} else {
			c.Storage.Path = o.DBPath
		}
	}
	if o.InMemory {
		c.Storage.InMemory = true
	}
	if o.FallbackPath != "" {
		c.Storage.FallbackPath = o.FallbackPath
	}
	return &c
}

// New builds the context and initializes storage. A gateway that cannot
// reach a usable state is not fatal: InitErr records it and every storage
// call fails with ErrUnavailable.
func New(ctx context.Context, opts Options) (*Context, error) {
	cfg := opts.config()

	formatter := output.NewFormatter()
	if opts.Format != "" {
		formatter.Format = opts.Format
	}
	if opts.ColorMode != "" {
		formatter.ColorMode = opts.ColorMode
	}

	bus := events.NewBus()
	primary := storage.NewBadgerBackend(storage.BadgerOptions{
		Path:         cfg.Storage.Path,
		InMemory:     cfg.Storage.InMemory,
		MinFreeSpace: cfg.Storage.MinFreeSpace,
	})
	fallbackOpts := storage.MemoryOptions{MinFreeSpace: cfg.Storage.MinFreeSpace}
	if !cfg.Storage.InMemory {
		fallbackOpts.MirrorPath = cfg.Storage.FallbackPath
	}
	gateway := storage.NewGateway(primary, storage.NewMemoryBackend(fallbackOpts), storage.GatewayOptions{
		Bus:         bus,
		InitTimeout: cfg.Storage.InitTimeout,
	})

	c := &Context{
		Config:      cfg,
		Formatter:   formatter,
		Bus:         bus,
		Gateway:     gateway,
		Primary:     primary,
		Settings:    storage.NewSettingsRepo(gateway),
		Colors:      storage.NewColorRepo(gateway),
		Preferences: storage.NewPreferencesRepo(gateway),
		Logs:        storage.NewLogRepo(gateway),
		Secure:      storage.NewSecureRepo(gateway),
		ProjectRepo: storage.NewProjectRepo(gateway),
		History:     storage.NewHistoryRepo(gateway),
		QueueRepo:   storage.NewQueueRepo(gateway),
		Commits:     storage.NewCommitRepo(gateway),
		Debug:       opts.Debug,
	}
	c.initLogging(opts.Debug)

	c.Versions = version.NewTracker(c.Commits)
	c.Projects = project.NewManager(c.ProjectRepo, c.History, c.Versions)
	c.Secrets = securestore.New(c.Secure, nil)
	c.Queue = offline.NewQueue(c.QueueRepo)
	c.Replayer = offline.NewReplayer(c.Queue, offline.ReplayerOptions{
		Bus:        bus,
		Interval:   cfg.Queue.ReplayInterval,
		MaxRetries: cfg.Queue.MaxRetries,
	})
	c.Sweeper = storage.NewLogSweeper(c.Logs, cfg.Logs.Retention(), cfg.Logs.SweepInterval)

	var objects remote.Remote
	if cfg.Sync.Enabled() {
		s3, err := remote.NewS3Store(ctx, cfg.Sync)
		if err != nil {
			logging.WarnContext(ctx, "remote sync disabled", logging.KeyError, err)
		} else {
			objects = s3
		}
	}
	c.Syncer = remote.NewSyncer(objects, c.ProjectRepo, c.Queue, bus)
	c.Replayer.Register(remote.OpUpload, c.Syncer.Handler())

	passphrase := opts.Passphrase
	if passphrase == "" {
		passphrase = os.Getenv(PassphraseEnv)
	}
	if passphrase != "" {
		if err := c.Secrets.Configure(passphrase); err != nil {
			return nil, err
		}
	}

	if err := gateway.Init(ctx); err != nil {
		c.InitErr = err
		logging.WarnContext(ctx, "storage unavailable", logging.KeyError, err)
	}
	return c, nil
}

// initLogging routes the global logger through the persisted-log handler.
func (c *Context) initLogging(debug bool) {
	cfg := logging.DefaultConfig()
	if debug {
		cfg = logging.DebugConfig()
	}
	cfg.Sink = c.Logs
	cfg.PersistLevel = logging.SlogLevel(c.Config.Logs.PersistLevel)
	logging.Init(cfg)
}

// StartBackground starts the log retention sweep and offline replay.
func (c *Context) StartBackground(ctx context.Context) {
	c.Sweeper.Start(ctx)
	c.Replayer.Start(ctx)
}

// Close stops background work and closes storage.
func (c *Context) Close() error {
	c.Replayer.Stop()
	c.Sweeper.Stop()
	return c.Gateway.Close()
}

// Status summarizes storage, queue and sync state.
func (c *Context) Status(ctx context.Context) output.StatusResponse {
	s := c.Gateway.Status()
	resp := output.StatusResponse{
		Status:        "ok",
		Mode:          string(s.Mode),
		Backend:       s.Backend,
		Reason:        string(s.Reason),
		Error:         s.Error,
		SchemaVersion: s.SchemaVersion,
		Stores:        s.Stores,
		SyncEnabled:   c.Syncer.Enabled(),
		Encryption:    c.Secrets.Configured(),
	}
	if !c.Config.Storage.InMemory {
		resp.DataPath = c.Config.Storage.Path
		if info, err := storage.GetDiskSpace(resp.DataPath); err == nil {
			resp.DiskFree = info.FreePercent()
		}
	}
	switch s.Mode {
	case storage.ModePrimary:
		resp.QueueLength = c.Queue.Len(ctx)
	case storage.ModeDegraded:
		resp.Status = "degraded"
		resp.QueueLength = c.Queue.Len(ctx)
	default:
		resp.Status = "unavailable"
	}
	return resp
}

// Now returns the current time.
func (c *Context) Now() time.Time {
	return time.Now()
}

// CLIFormatter returns a CLI formatter.
func (c *Context) CLIFormatter() *output.CLIFormatter {
	return output.NewCLIFormatter(c.Formatter)
}

// JSONFormatter returns a JSON formatter.
func (c *Context) JSONFormatter() *output.JSONFormatter {
	return output.NewJSONFormatter(c.Formatter)
}

// IsJSON returns true if output format is JSON.
func (c *Context) IsJSON() bool {
	return c.Formatter.Format == output.FormatJSON
}

// Debugf prints debug output if debug mode is enabled.
func (c *Context) Debugf(format string, args ...any) {
	if c.Debug {
		c.Formatter.Printf("[DEBUG] "+format+"\n", args...)
	}
}
