package storage

import (
	"context"
	"fmt"

	"github.com/manav03panchal/mindstore/internal/errors"
	"github.com/manav03panchal/mindstore/internal/model"
)

// QueueRepo persists offline queue entries. IDs are assigned by the store's
// key generator.
type QueueRepo struct {
	g *Gateway
}

// NewQueueRepo creates a new offline queue repository.
func NewQueueRepo(g *Gateway) *QueueRepo {
	return &QueueRepo{g: g}
}

// Add stores e, setting e.ID, and returns the assigned ID.
func (r *QueueRepo) Add(ctx context.Context, e *model.OfflineQueueEntry) (int64, error) {
	var id int64
	err := r.g.Update(ctx, func(tx *Tx) error {
		var err error
		id, err = tx.Add(model.StoreOfflineQueue, e)
		return err
	})
	if err != nil {
		return 0, writeFailed("queue.add", err)
	}
	return id, nil
}

// All returns every entry in ID order.
func (r *QueueRepo) All(ctx context.Context) []model.OfflineQueueEntry {
	var out []model.OfflineQueueEntry
	err := r.g.View(ctx, func(tx *Tx) error {
		var err error
		out, err = ScanAll[model.OfflineQueueEntry](tx, model.StoreOfflineQueue, "")
		return err
	})
	if err != nil {
		readFailed(ctx, "queue.all", model.StoreOfflineQueue, err)
		return nil
	}
	return out
}

// ByOperation returns entries for one operation name in ID order.
func (r *QueueRepo) ByOperation(ctx context.Context, operation string) []model.OfflineQueueEntry {
	var out []model.OfflineQueueEntry
	err := r.g.View(ctx, func(tx *Tx) error {
		var err error
		out, err = IndexAll[model.OfflineQueueEntry](tx, model.StoreOfflineQueue, "type", operation)
		return err
	})
	if err != nil {
		readFailed(ctx, "queue.by_operation", model.StoreOfflineQueue, err)
		return nil
	}
	return out
}

// Remove deletes an entry. Removing a missing entry is not an error.
func (r *QueueRepo) Remove(ctx context.Context, id int64) error {
	return writeFailed("queue.remove", r.g.Update(ctx, func(tx *Tx) error {
		_, err := tx.Delete(model.StoreOfflineQueue, model.QueueKey(id))
		return err
	}))
}

// IncrementRetry bumps the retry counter in one read-modify-write
// transaction. It fails with ErrNotFound when the entry is gone.
func (r *QueueRepo) IncrementRetry(ctx context.Context, id int64) (*model.OfflineQueueEntry, error) {
	var e model.OfflineQueueEntry
	err := r.g.Update(ctx, func(tx *Tx) error {
		if err := tx.Get(model.StoreOfflineQueue, model.QueueKey(id), &e); err != nil {
			if notFound(err) {
				return fmt.Errorf("queue entry %d: %w", id, errors.ErrNotFound)
			}
			return err
		}
		e.Retries++
		return tx.Put(model.StoreOfflineQueue, &e)
	})
	if err != nil {
		return nil, writeFailed("queue.increment_retry", err)
	}
	return &e, nil
}

// Len returns the number of queued entries, or zero when unreadable.
func (r *QueueRepo) Len(ctx context.Context) int {
	var n int
	err := r.g.View(ctx, func(tx *Tx) error {
		var err error
		n, err = tx.Count(model.StoreOfflineQueue)
		return err
	})
	if err != nil {
		readFailed(ctx, "queue.len", model.StoreOfflineQueue, err)
		return 0
	}
	return n
}

// Clear removes every entry and returns how many were removed.
func (r *QueueRepo) Clear(ctx context.Context) (int, error) {
	var n int
	err := r.g.Update(ctx, func(tx *Tx) error {
		var err error
		n, err = tx.Clear(model.StoreOfflineQueue)
		return err
	})
	return n, writeFailed("queue.clear", err)
}
