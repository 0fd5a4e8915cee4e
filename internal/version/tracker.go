// Package version keeps lightweight snapshot versions of projects. A commit
// is a full project snapshot with a message; each project has its own
// append-only commit list and a current-commit pointer.
package version

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/manav03panchal/mindstore/internal/logging"
	"github.com/manav03panchal/mindstore/internal/model"
)

// Store is the commit persistence. storage.CommitRepo implements it.
type Store interface {
	Get(ctx context.Context, projectID string) *model.CommitLog
	Append(ctx context.Context, projectID string, c model.Commit) (*model.CommitLog, error)
	SetCurrent(ctx context.Context, projectID, commitID string) (*model.Commit, error)
	Delete(ctx context.Context, projectID string) error
}

// Tracker is the version/commit tracker.
type Tracker struct {
	store Store
	now   func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the wall clock used for version labels.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// NewTracker creates a tracker.
func NewTracker(store Store, opts ...Option) *Tracker {
	t := &Tracker{store: store, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Commit snapshots p under a version label derived from the current time
// and returns a copy of p with Version and UpdatedAt advanced. The caller
// persists the returned project.
func (t *Tracker) Commit(ctx context.Context, p *model.Project, message string) (*model.Project, *model.Commit, error) {
	return t.commit(ctx, p, message, "")
}

// CommitInitial records a project's first snapshot under
// model.InitialVersion.
func (t *Tracker) CommitInitial(ctx context.Context, p *model.Project, message string) (*model.Project, *model.Commit, error) {
	return t.commit(ctx, p, message, model.InitialVersion)
}

func (t *Tracker) commit(ctx context.Context, p *model.Project, message, label string) (*model.Project, *model.Commit, error) {
	now := t.now().UTC()
	if label == "" {
		label = model.VersionLabel(now)
	}

	next := p.Clone()
	next.Version = label
	next.UpdatedAt = now

	c := model.Commit{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Message:   message,
		Timestamp: now,
		Version:   label,
		Snapshot:  next.Clone(),
	}
	if _, err := t.store.Append(ctx, p.ID, c); err != nil {
		return nil, nil, err
	}
	logging.DebugContext(ctx, "project committed",
		logging.KeyProjectID, p.ID, logging.KeyVersion, label)
	return next, &c, nil
}

// List returns the project's commits, oldest first.
func (t *Tracker) List(ctx context.Context, projectID string) []model.Commit {
	l := t.store.Get(ctx, projectID)
	if l == nil {
		return nil
	}
	return l.Commits
}

// Checkout moves the current pointer to commitID and returns a deep copy
// of that commit's snapshot. It returns nil, nil when the commit is unknown.
func (t *Tracker) Checkout(ctx context.Context, projectID, commitID string) (*model.Project, error) {
	c, err := t.store.SetCurrent(ctx, projectID, commitID)
	if err != nil || c == nil {
		return nil, err
	}
	return c.Snapshot.Clone(), nil
}

// Current returns the commit the current pointer names, or nil.
func (t *Tracker) Current(ctx context.Context, projectID string) *model.Commit {
	c, ok := t.store.Get(ctx, projectID).Current()
	if !ok {
		return nil
	}
	return c
}

// Forget drops the project's commit history.
func (t *Tracker) Forget(ctx context.Context, projectID string) error {
	return t.store.Delete(ctx, projectID)
}
