package offline

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/manav03panchal/mindstore/internal/errors"
	"github.com/manav03panchal/mindstore/internal/events"
	"github.com/manav03panchal/mindstore/internal/logging"
	"github.com/manav03panchal/mindstore/internal/model"
)

// Default replay settings.
const (
	DefaultReplayInterval = 30 * time.Second
	DefaultMaxRetries     = 5
)

// Handler performs a queued operation. A nil error removes the entry.
type Handler func(ctx context.Context, e model.OfflineQueueEntry) error

// ReplayResult summarizes one replay pass.
type ReplayResult struct {
	Replayed int `json:"replayed"`
	Failed   int `json:"failed"`
	Dropped  int `json:"dropped"`
	Skipped  int `json:"skipped"`
}

// Replayer drains the queue through registered handlers. Entries whose
// retry count reaches MaxRetries are dropped.
type Replayer struct {
	queue      *Queue
	bus        *events.Bus
	interval   time.Duration
	maxRetries int

	handlersMu sync.RWMutex
	handlers   map[string]Handler

	// pass serializes replay passes so a tick and an online event never
	// replay the same entry twice.
	pass sync.Mutex

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	trigger chan struct{}
}

// ReplayerOptions configures a Replayer. Zero values take the defaults.
type ReplayerOptions struct {
	Bus        *events.Bus
	Interval   time.Duration
	MaxRetries int
}

// NewReplayer creates a replay driver for queue.
func NewReplayer(queue *Queue, opts ReplayerOptions) *Replayer {
	if opts.Interval <= 0 {
		opts.Interval = DefaultReplayInterval
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	return &Replayer{
		queue:      queue,
		bus:        opts.Bus,
		interval:   opts.Interval,
		maxRetries: opts.MaxRetries,
		handlers:   make(map[string]Handler),
		trigger:    make(chan struct{}, 1),
	}
}

// Register installs the handler for operation, replacing any previous one.
func (r *Replayer) Register(operation string, h Handler) {
	r.handlersMu.Lock()
	defer r.handlersMu.Unlock()
	r.handlers[operation] = h
}

func (r *Replayer) handler(operation string) (Handler, bool) {
	r.handlersMu.RLock()
	defer r.handlersMu.RUnlock()
	h, ok := r.handlers[operation]
	return h, ok
}

// ReplayOnce runs every queued entry in priority order. Entries with no
// registered handler stay queued untouched.
func (r *Replayer) ReplayOnce(ctx context.Context) ReplayResult {
	r.pass.Lock()
	defer r.pass.Unlock()

	var res ReplayResult
	for _, e := range r.queue.DequeueAllOrdered(ctx) {
		if ctx.Err() != nil {
			break
		}
		h, ok := r.handler(e.Operation)
		if !ok {
			res.Skipped++
			continue
		}

		err := h(ctx, e)
		if err == nil {
			if err := r.queue.Remove(ctx, e.ID); err != nil {
				logging.WarnContext(ctx, "remove replayed entry failed",
					logging.KeyQueueID, e.ID, logging.KeyError, err)
			}
			res.Replayed++
			continue
		}

		if r.retry(ctx, e, err) {
			res.Failed++
		} else {
			res.Dropped++
		}
	}

	if res != (ReplayResult{}) {
		logging.InfoContext(ctx, "offline queue replayed",
			"replayed", res.Replayed, "failed", res.Failed,
			"dropped", res.Dropped, "skipped", res.Skipped)
	}
	return res
}

// retry records a failed attempt. It reports false when the entry was
// dropped or had already disappeared.
func (r *Replayer) retry(ctx context.Context, e model.OfflineQueueEntry, cause error) bool {
	updated, err := r.queue.IncrementRetry(ctx, e.ID)
	if err != nil {
		if !stderrors.Is(err, errors.ErrNotFound) {
			logging.WarnContext(ctx, "increment retry failed",
				logging.KeyQueueID, e.ID, logging.KeyError, err)
			return true
		}
		return false
	}
	failure := errors.NewRecoverableError("replay "+e.Operation, cause, r.maxRetries).AtAttempt(updated.Retries)
	if failure.CanRetry {
		logging.DebugContext(ctx, "queued operation failed",
			logging.KeyQueueID, e.ID, logging.KeyOperation, e.Operation,
			"attempt", failure.Error(), logging.KeyError, cause)
		return true
	}

	logging.WarnContext(ctx, "queued operation dropped after max retries",
		logging.KeyQueueID, e.ID, logging.KeyOperation, e.Operation,
		"attempt", failure.Error(), logging.KeyError, cause)
	if err := r.queue.Remove(ctx, e.ID); err != nil {
		logging.WarnContext(ctx, "remove dropped entry failed",
			logging.KeyQueueID, e.ID, logging.KeyError, err)
	}
	return false
}

// Trigger requests a replay pass from the running loop. It never blocks.
func (r *Replayer) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Start runs the replay loop in the background: on every interval tick and
// whenever the bus reports the network is back online. Start is idempotent.
func (r *Replayer) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.running = true

	ctx, r.cancel = context.WithCancel(ctx)
	var unsubscribe func()
	if r.bus != nil {
		unsubscribe = r.bus.Subscribe(func(e events.Event) {
			if _, ok := e.(events.Online); ok {
				r.Trigger()
			}
		})
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if unsubscribe != nil {
			defer unsubscribe()
		}
		r.loop(ctx)
	}()
}

// Run replays until ctx is done. It is Start followed by waiting for ctx.
func (r *Replayer) Run(ctx context.Context) error {
	r.Start(ctx)
	<-ctx.Done()
	r.Stop()
	return ctx.Err()
}

func (r *Replayer) loop(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.ReplayOnce(ctx)
		case <-r.trigger:
			r.ReplayOnce(ctx)
		}
	}
}

// Stop ends the loop and waits for an in-progress pass. Stop is idempotent.
func (r *Replayer) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	cancel := r.cancel
	r.mu.Unlock()

	cancel()
	r.wg.Wait()
}
