// Package offline holds the durable queue of remote operations that could
// not run while the remote was unreachable, and the driver that replays
// them.
package offline

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/manav03panchal/mindstore/internal/errors"
	"github.com/manav03panchal/mindstore/internal/logging"
	"github.com/manav03panchal/mindstore/internal/model"
)

// Store is the queue persistence. storage.QueueRepo implements it.
type Store interface {
	Add(ctx context.Context, e *model.OfflineQueueEntry) (int64, error)
	All(ctx context.Context) []model.OfflineQueueEntry
	ByOperation(ctx context.Context, operation string) []model.OfflineQueueEntry
	Remove(ctx context.Context, id int64) error
	IncrementRetry(ctx context.Context, id int64) (*model.OfflineQueueEntry, error)
	Len(ctx context.Context) int
}

// Queue is the offline operation queue.
type Queue struct {
	store Store
	now   func() time.Time
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithClock overrides the clock used to timestamp entries.
func WithClock(now func() time.Time) QueueOption {
	return func(q *Queue) { q.now = now }
}

// NewQueue creates a queue over store.
func NewQueue(store Store, opts ...QueueOption) *Queue {
	q := &Queue{store: store, now: time.Now}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue appends an operation with zero retries and returns its id. data
// is stored as JSON.
func (q *Queue) Enqueue(ctx context.Context, operation string, data any, priority int) (int64, error) {
	if operation == "" {
		return 0, errors.NewUserErrorWithField("operation", operation, "operation is required", "")
	}
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return 0, fmt.Errorf("%w: encode queue data: %w", errors.ErrInvalidInput, err)
		}
		raw = b
	}

	e := &model.OfflineQueueEntry{
		Operation: operation,
		Data:      raw,
		Timestamp: q.now().UTC(),
		Priority:  priority,
	}
	id, err := q.store.Add(ctx, e)
	if err != nil {
		return 0, err
	}
	logging.DebugContext(ctx, "operation queued",
		logging.KeyQueueID, id, logging.KeyOperation, operation, "priority", priority)
	return id, nil
}

// DequeueAllOrdered returns every entry, highest priority first and oldest
// first within a priority. Entries are not removed.
func (q *Queue) DequeueAllOrdered(ctx context.Context) []model.OfflineQueueEntry {
	return replayOrder(q.store.All(ctx))
}

// Pending returns the entries for operation in replay order.
func (q *Queue) Pending(ctx context.Context, operation string) []model.OfflineQueueEntry {
	return replayOrder(q.store.ByOperation(ctx, operation))
}

func replayOrder(entries []model.OfflineQueueEntry) []model.OfflineQueueEntry {
	slices.SortStableFunc(entries, func(a, b model.OfflineQueueEntry) int {
		if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
			return c
		}
		return a.Timestamp.Compare(b.Timestamp)
	})
	return entries
}

// Remove deletes an entry. Removing a missing entry is not an error.
func (q *Queue) Remove(ctx context.Context, id int64) error {
	return q.store.Remove(ctx, id)
}

// IncrementRetry bumps an entry's retry count. It fails with ErrNotFound
// when the entry was already removed.
func (q *Queue) IncrementRetry(ctx context.Context, id int64) (*model.OfflineQueueEntry, error) {
	return q.store.IncrementRetry(ctx, id)
}

// Len returns the number of queued entries.
func (q *Queue) Len(ctx context.Context) int {
	return q.store.Len(ctx)
}
