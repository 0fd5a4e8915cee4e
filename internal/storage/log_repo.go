package storage

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/manav03panchal/mindstore/internal/logging"
	"github.com/manav03panchal/mindstore/internal/model"
)

// clearBatch bounds the deletes per transaction when clearing logs.
const clearBatch = 500

// LogFilter narrows List results.
type LogFilter struct {
	// Level is the minimum severity. Empty means all.
	Level model.LogLevel
	// Since excludes entries older than this instant. Zero means no bound.
	Since time.Time
	// Limit caps the result size. Zero means no cap.
	Limit int
}

// LogRepo stores persisted log entries. It implements logging.Sink.
type LogRepo struct {
	g   *Gateway
	now func() time.Time
}

// NewLogRepo creates a new log repository.
func NewLogRepo(g *Gateway) *LogRepo {
	return &LogRepo{g: g, now: time.Now}
}

var _ logging.Sink = (*LogRepo)(nil)

// Append stores an entry, filling in a missing ID and timestamp.
func (r *LogRepo) Append(ctx context.Context, e *model.LogEntry) error {
	if e.ID == "" {
		e.ID = uuid.Must(uuid.NewV7()).String()
	}
	if e.Timestamp == "" {
		e.Timestamp = r.now().UTC().Format(time.RFC3339Nano)
	}
	return writeFailed("logs.append", r.g.Update(ctx, func(tx *Tx) error {
		return tx.Put(model.StoreLogs, e)
	}))
}

// Persist implements logging.Sink.
func (r *LogRepo) Persist(ctx context.Context, e model.LogEntry) error {
	return r.Append(logging.WithoutPersist(ctx), &e)
}

// List returns matching entries, newest first.
func (r *LogRepo) List(ctx context.Context, f LogFilter) []model.LogEntry {
	var all []model.LogEntry
	err := r.g.View(ctx, func(tx *Tx) error {
		var err error
		all, err = IndexAll[model.LogEntry](tx, model.StoreLogs, "timestamp", nil)
		return err
	})
	if err != nil {
		readFailed(logging.WithoutPersist(ctx), "logs.list", model.StoreLogs, err)
		return nil
	}

	slices.Reverse(all)
	out := all[:0]
	for _, e := range all {
		if f.Level != "" && !e.Level.AtLeast(f.Level) {
			continue
		}
		if !f.Since.IsZero() && e.Time().Before(f.Since) {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}

// Clear deletes entries older than before, or every entry when before is
// zero. It returns the number removed.
func (r *LogRepo) Clear(ctx context.Context, before time.Time) (int, error) {
	var ids []string
	err := r.g.View(ctx, func(tx *Tx) error {
		return tx.IndexScan(model.StoreLogs, "timestamp", nil, func(pk string, raw []byte) error {
			if before.IsZero() {
				ids = append(ids, pk)
				return nil
			}
			var e model.LogEntry
			if err := json.Unmarshal(raw, &e); err != nil {
				return nil
			}
			if !e.Time().Before(before) {
				return errStopIteration
			}
			ids = append(ids, pk)
			return nil
		})
	})
	if err != nil {
		return 0, writeFailed("logs.clear", err)
	}

	removed := 0
	for chunk := range slices.Chunk(ids, clearBatch) {
		err := r.g.Update(ctx, func(tx *Tx) error {
			for _, id := range chunk {
				if _, err := tx.Delete(model.StoreLogs, id); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return removed, writeFailed("logs.clear", err)
		}
		removed += len(chunk)
	}
	return removed, nil
}
