package storage

import (
	"context"
	"sync"
	"time"

	"github.com/manav03panchal/mindstore/internal/logging"
)

// DefaultSweepInterval is how often the log sweeper runs.
const DefaultSweepInterval = 24 * time.Hour

// LogSweeper periodically deletes log entries older than the retention
// window. Failures are logged and never returned to callers.
type LogSweeper struct {
	logs      *LogRepo
	retention time.Duration
	interval  time.Duration
	now       func() time.Time

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewLogSweeper creates a sweeper. A non-positive retention disables
// sweeping; a non-positive interval uses DefaultSweepInterval.
func NewLogSweeper(logs *LogRepo, retention, interval time.Duration) *LogSweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &LogSweeper{
		logs:      logs,
		retention: retention,
		interval:  interval,
		now:       time.Now,
	}
}

// SweepOnce removes entries older than the retention window and returns how
// many were removed.
func (s *LogSweeper) SweepOnce(ctx context.Context) int {
	if s.retention <= 0 {
		return 0
	}
	ctx = logging.WithoutPersist(ctx)
	cutoff := s.now().Add(-s.retention)
	n, err := s.logs.Clear(ctx, cutoff)
	if err != nil {
		logging.WarnContext(ctx, "log retention sweep failed",
			logging.KeyOperation, "logs.sweep", logging.KeyError, err)
		return n
	}
	if n > 0 {
		logging.DebugContext(ctx, "log retention sweep", logging.KeyCount, n)
	}
	return n
}

// Start runs a sweep immediately and then on every interval until Stop.
func (s *LogSweeper) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop()
}

// Stop halts the background loop and waits for it to exit.
func (s *LogSweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
}

func (s *LogSweeper) loop() {
	defer s.wg.Done()

	s.SweepOnce(s.ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(s.ctx)
		}
	}
}
