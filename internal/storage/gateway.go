package storage

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/manav03panchal/mindstore/internal/errors"
	"github.com/manav03panchal/mindstore/internal/events"
	"github.com/manav03panchal/mindstore/internal/logging"
	"github.com/manav03panchal/mindstore/internal/model"
)

// DefaultInitTimeout bounds the primary open call.
const DefaultInitTimeout = 5 * time.Second

// selfTestKey is the settings record written and removed by the self-test.
const selfTestKey = "__selftest__"

// Mode is the gateway's operating state.
type Mode string

const (
	ModeUninitialized Mode = "uninitialized"
	ModePrimary       Mode = "primary"
	ModeDegraded      Mode = "degraded"
	ModeUnavailable   Mode = "unavailable"
)

// Status describes the gateway for health output.
type Status struct {
	Mode          Mode         `json:"mode"`
	Backend       string       `json:"backend"`
	Reason        model.Reason `json:"reason,omitempty"`
	Error         string       `json:"error,omitempty"`
	SchemaVersion int          `json:"schema_version"`
	Stores        []string     `json:"stores"`
}

// GatewayOptions configures a Gateway.
type GatewayOptions struct {
	// Bus receives Unavailable when the gateway degrades. May be nil.
	Bus *events.Bus
	// InitTimeout bounds the primary Open call. Zero means DefaultInitTimeout.
	InitTimeout time.Duration
	// Migrations overrides the migration list. Nil means Migrations.
	Migrations []Migration
	// Now overrides the clock used for seed timestamps.
	Now func() time.Time
}

// Gateway owns the physical store: it picks a backend at Init, applies
// migrations, and runs schema-aware transactions for the repositories.
type Gateway struct {
	primary  Backend
	fallback Backend
	opts     GatewayOptions

	group singleflight.Group

	mu       sync.RWMutex
	done     bool
	initErr  error
	active   Backend
	schema   *Schema
	mode     Mode
	reason   model.Reason
	cause    error
}

// NewGateway creates a gateway over a primary backend and the fallback used
// in degraded mode.
func NewGateway(primary, fallback Backend, opts GatewayOptions) *Gateway {
	if opts.InitTimeout <= 0 {
		opts.InitTimeout = DefaultInitTimeout
	}
	if opts.Migrations == nil {
		opts.Migrations = Migrations
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Gateway{
		primary:  primary,
		fallback: fallback,
		opts:     opts,
		mode:     ModeUninitialized,
	}
}

// Init opens the store once per gateway. Concurrent callers share the same
// in-flight attempt; later callers get its cached result. Init returns an
// error only if neither the primary nor the fallback backend is usable.
func (g *Gateway) Init(ctx context.Context) error {
	g.mu.RLock()
	if g.done {
		err := g.initErr
		g.mu.RUnlock()
		return err
	}
	g.mu.RUnlock()

	_, err, _ := g.group.Do("init", func() (any, error) {
		g.mu.RLock()
		if g.done {
			err := g.initErr
			g.mu.RUnlock()
			return nil, err
		}
		g.mu.RUnlock()

		// Records logged during init are not persisted: the log store is
		// served by this gateway.
		err := g.initialize(logging.WithoutPersist(context.WithoutCancel(ctx)))

		g.mu.Lock()
		g.done = true
		g.initErr = err
		g.mu.Unlock()
		return nil, err
	})
	return err
}

func (g *Gateway) initialize(ctx context.Context) error {
	start := time.Now()
	schema, reason, err := g.openPrimary(ctx)
	if err == nil {
		g.setActive(g.primary, schema, ModePrimary, model.ReasonNone, nil)
		logging.DebugContext(ctx, "store ready",
			logging.KeyBackend, g.primary.Name(),
			logging.KeyVersion, schema.Version,
			logging.KeyDuration, time.Since(start).Milliseconds())
		return nil
	}
	return g.degrade(ctx, reason, err)
}

// openPrimary runs probe, bounded open, migrations and self-test.
func (g *Gateway) openPrimary(ctx context.Context) (*Schema, model.Reason, error) {
	if g.primary == nil {
		return nil, model.ReasonNotSupported, stderrors.New("no primary backend configured")
	}

	if av := g.primary.Probe(ctx); !av.OK {
		return nil, av.Reason, av.Err
	}

	if err := g.openWithTimeout(ctx); err != nil {
		return nil, reasonFor(err), err
	}

	schema, err := g.prepare(g.primary)
	if err != nil {
		g.closeQuietly(ctx, g.primary)
		return nil, reasonFor(err), err
	}

	if err := g.selfTest(g.primary, schema); err != nil {
		g.closeQuietly(ctx, g.primary)
		return nil, model.ReasonCorrupted, err
	}
	g.repairDefaultScheme(ctx, g.primary, schema)
	return schema, model.ReasonNone, nil
}

// openWithTimeout treats an open that outlasts InitTimeout as blocked. If
// the abandoned open completes later, the backend is closed again.
func (g *Gateway) openWithTimeout(ctx context.Context) error {
	done := make(chan error, 1)
	go func() { done <- g.primary.Open(ctx) }()

	timer := time.NewTimer(g.opts.InitTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		go func() {
			if err := <-done; err == nil {
				g.closeQuietly(ctx, g.primary)
			}
		}()
		return fmt.Errorf("%w: open exceeded %s", errors.ErrTimeout, g.opts.InitTimeout)
	}
}

// prepare migrates b and returns the resulting schema. Seed records are
// written by the migrations that create their stores, never here.
func (g *Gateway) prepare(b Backend) (*Schema, error) {
	var schema *Schema
	err := b.Update(func(txn Txn) error {
		s, err := loadSchema(txn)
		if err != nil {
			return err
		}
		tx := &Tx{txn: txn, schema: s}
		if s.Version < maxVersion(g.opts.Migrations) {
			if err := runMigrations(tx, s.Version, g.opts.Migrations, g.opts.Now()); err != nil {
				return err
			}
		}
		schema = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return schema, nil
}

func maxVersion(ms []Migration) int {
	v := 0
	for _, m := range ms {
		v = max(v, m.Version)
	}
	return v
}

// selfTest writes, reads back and deletes a throwaway settings record in
// separate transactions.
func (g *Gateway) selfTest(b Backend, schema *Schema) error {
	if schema.Store(model.StoreSettings) == nil {
		return fmt.Errorf("self-test: %w: settings store missing", errors.ErrDatabaseCorrupted)
	}

	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return err
	}
	value, _ := json.Marshal(hex.EncodeToString(nonce))
	want := &model.Setting{Key: selfTestKey, Value: value, UpdatedAt: g.opts.Now().UTC()}
	wantRaw, err := json.Marshal(want)
	if err != nil {
		return err
	}

	if err := b.Update(func(txn Txn) error {
		return (&Tx{txn: txn, schema: schema}).PutRaw(model.StoreSettings, selfTestKey, wantRaw)
	}); err != nil {
		return fmt.Errorf("self-test write: %w", err)
	}

	var got []byte
	if err := b.View(func(txn Txn) error {
		var err error
		got, err = (&Tx{txn: txn, schema: schema}).GetRaw(model.StoreSettings, selfTestKey)
		return err
	}); err != nil {
		return fmt.Errorf("self-test read: %w", err)
	}
	if !bytes.Equal(got, wantRaw) {
		return fmt.Errorf("self-test: %w: read back %d bytes, wrote %d", errors.ErrDatabaseCorrupted, len(got), len(wantRaw))
	}

	if err := b.Update(func(txn Txn) error {
		_, err := (&Tx{txn: txn, schema: schema}).Delete(model.StoreSettings, selfTestKey)
		return err
	}); err != nil {
		return fmt.Errorf("self-test delete: %w", err)
	}
	return nil
}

// degrade announces the failure and switches to the fallback backend.
func (g *Gateway) degrade(ctx context.Context, reason model.Reason, cause error) error {
	logging.WarnContext(ctx, "primary store unavailable, using degraded mode",
		logging.KeyReason, string(reason), logging.KeyError, cause)
	g.opts.Bus.Publish(events.Unavailable{Reason: reason, Err: cause})

	if g.fallback == nil {
		g.setActive(nil, nil, ModeUnavailable, reason, cause)
		return errors.NewSystemErrorWithOp("init", "local storage unavailable", fmt.Errorf("%w: %w", errors.ErrUnavailable, cause))
	}

	schema, err := g.openFallback(ctx)
	if err != nil {
		logging.ErrorContext(ctx, "fallback store unavailable", logging.KeyError, err)
		g.setActive(nil, nil, ModeUnavailable, reason, cause)
		return errors.NewSystemErrorWithOp("init", "local storage unavailable", fmt.Errorf("%w: %w", errors.ErrUnavailable, err))
	}
	g.setActive(g.fallback, schema, ModeDegraded, reason, cause)
	return nil
}

func (g *Gateway) openFallback(ctx context.Context) (*Schema, error) {
	if av := g.fallback.Probe(ctx); !av.OK {
		return nil, av.Err
	}
	if err := g.fallback.Open(ctx); err != nil {
		return nil, err
	}
	schema, err := g.prepare(g.fallback)
	if err != nil {
		g.closeQuietly(ctx, g.fallback)
		return nil, err
	}
	g.repairDefaultScheme(ctx, g.fallback, schema)
	return schema, nil
}

func (g *Gateway) setActive(b Backend, schema *Schema, mode Mode, reason model.Reason, cause error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.active = b
	g.schema = schema
	g.mode = mode
	g.reason = reason
	g.cause = cause
}

func (g *Gateway) closeQuietly(ctx context.Context, b Backend) {
	if err := b.Close(); err != nil {
		logging.WarnContext(ctx, "closing backend failed", logging.KeyBackend, b.Name(), logging.KeyError, err)
	}
}

func (g *Gateway) current(ctx context.Context) (Backend, *Schema, error) {
	if err := g.Init(ctx); err != nil {
		return nil, nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.active == nil {
		return nil, nil, errors.NewSystemError("local storage unavailable", errors.ErrUnavailable)
	}
	return g.active, g.schema, nil
}

// View runs fn in a read-only transaction, initializing on first use.
func (g *Gateway) View(ctx context.Context, fn func(*Tx) error) error {
	b, schema, err := g.current(ctx)
	if err != nil {
		return err
	}
	return b.View(func(txn Txn) error {
		return fn(&Tx{txn: txn, schema: schema})
	})
}

// Update runs fn in a read-write transaction, initializing on first use.
func (g *Gateway) Update(ctx context.Context, fn func(*Tx) error) error {
	b, schema, err := g.current(ctx)
	if err != nil {
		return err
	}
	return b.Update(func(txn Txn) error {
		return fn(&Tx{txn: txn, schema: schema})
	})
}

// repairDefaultScheme leaves exactly one color scheme flagged as default
// when any schemes exist. It never inserts records, and a failure is logged
// rather than rejecting a backend that already passed its self-test.
func (g *Gateway) repairDefaultScheme(ctx context.Context, b Backend, schema *Schema) {
	if schema.Store(model.StoreColors) == nil {
		return
	}
	now := g.opts.Now()
	err := b.Update(func(txn Txn) error {
		tx := &Tx{txn: txn, schema: schema}
		defaults, err := IndexAll[model.ColorScheme](tx, model.StoreColors, "isDefault", true)
		if err != nil {
			return err
		}
		switch {
		case len(defaults) == 0:
			scheme, err := defaultCandidate(tx)
			if err != nil || scheme == nil {
				return err
			}
			scheme.IsDefault = true
			scheme.UpdatedAt = now
			return tx.Put(model.StoreColors, scheme)
		case len(defaults) > 1:
			// Keep the first flagged scheme in index order.
			for _, extra := range defaults[1:] {
				extra.IsDefault = false
				extra.UpdatedAt = now
				if err := tx.Put(model.StoreColors, &extra); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		logging.WarnContext(ctx, "repairing default color scheme failed",
			logging.KeyBackend, b.Name(), logging.KeyError, err)
	}
}

// defaultCandidate prefers the built-in default scheme and otherwise the
// first scheme in key order. It returns nil when the store is empty.
func defaultCandidate(tx *Tx) (*model.ColorScheme, error) {
	var scheme model.ColorScheme
	err := tx.Get(model.StoreColors, model.ColorSchemeDefault, &scheme)
	if err == nil {
		return &scheme, nil
	}
	if !IsErrKeyNotFound(err) {
		return nil, err
	}
	all, err := ScanAll[model.ColorScheme](tx, model.StoreColors, "")
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return &all[0], nil
}

// Mode returns the operating state.
func (g *Gateway) Mode() Mode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.mode
}

// Reason returns why the primary store was rejected, if it was.
func (g *Gateway) Reason() model.Reason {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.reason
}

// Status reports the gateway state without initializing it.
func (g *Gateway) Status() Status {
	g.mu.RLock()
	defer g.mu.RUnlock()

	st := Status{Mode: g.mode, Reason: g.reason}
	if g.cause != nil {
		st.Error = g.cause.Error()
	}
	if g.active != nil {
		st.Backend = g.active.Name()
	}
	if g.schema != nil {
		st.SchemaVersion = g.schema.Version
		st.Stores = g.schema.StoreNames()
	}
	return st
}

// Primary returns the primary backend.
func (g *Gateway) Primary() Backend {
	return g.primary
}

// Close closes the active backend.
func (g *Gateway) Close() error {
	g.mu.Lock()
	b := g.active
	g.active = nil
	g.mu.Unlock()
	if b == nil {
		return nil
	}
	return b.Close()
}
