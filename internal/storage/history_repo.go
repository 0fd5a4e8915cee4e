package storage

import (
	"context"
	"slices"
	"time"

	"github.com/manav03panchal/mindstore/internal/model"
)

// HistoryRepo appends and queries project history. Entries are never
// modified.
type HistoryRepo struct {
	g *Gateway
}

// NewHistoryRepo creates a new history repository.
func NewHistoryRepo(g *Gateway) *HistoryRepo {
	return &HistoryRepo{g: g}
}

// Append stores e. When another entry already holds the same
// (project, timestamp) key, the timestamp is advanced by a nanosecond until
// it is free, so rapid successive actions keep their order.
func (r *HistoryRepo) Append(ctx context.Context, e *model.ProjectHistoryEntry) error {
	e.Timestamp = e.Timestamp.UTC()
	err := r.g.Update(ctx, func(tx *Tx) error {
		for {
			taken, err := tx.Exists(model.StoreProjectHistory, e.GetKey())
			if err != nil {
				return err
			}
			if !taken {
				break
			}
			e.Timestamp = e.Timestamp.Add(time.Nanosecond)
		}
		return tx.Put(model.StoreProjectHistory, e)
	})
	return writeFailed("history.append", err)
}

// List returns a project's history in timestamp order.
func (r *HistoryRepo) List(ctx context.Context, projectID string) []model.ProjectHistoryEntry {
	var out []model.ProjectHistoryEntry
	err := r.g.View(ctx, func(tx *Tx) error {
		var err error
		out, err = ScanAll[model.ProjectHistoryEntry](tx, model.StoreProjectHistory, model.HistoryPrefix(projectID))
		return err
	})
	if err != nil {
		readFailed(ctx, "history.list", model.StoreProjectHistory, err)
		return nil
	}
	return out
}

// ByAction returns every entry with the given action in timestamp order.
func (r *HistoryRepo) ByAction(ctx context.Context, action model.HistoryAction) []model.ProjectHistoryEntry {
	var out []model.ProjectHistoryEntry
	err := r.g.View(ctx, func(tx *Tx) error {
		var err error
		out, err = IndexAll[model.ProjectHistoryEntry](tx, model.StoreProjectHistory, "action", string(action))
		return err
	})
	if err != nil {
		readFailed(ctx, "history.by_action", model.StoreProjectHistory, err)
		return nil
	}
	// Index order is by primary key, which groups entries by project.
	slices.SortStableFunc(out, func(a, b model.ProjectHistoryEntry) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return out
}
