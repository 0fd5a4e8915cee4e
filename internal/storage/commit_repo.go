package storage

import (
	"context"

	"github.com/manav03panchal/mindstore/internal/model"
)

// CommitRepo stores one commit log per project, keyed by project ID.
type CommitRepo struct {
	g *Gateway
}

// NewCommitRepo creates a new commit repository.
func NewCommitRepo(g *Gateway) *CommitRepo {
	return &CommitRepo{g: g}
}

// Get returns the project's commit log, or nil.
func (r *CommitRepo) Get(ctx context.Context, projectID string) *model.CommitLog {
	var l model.CommitLog
	err := r.g.View(ctx, func(tx *Tx) error {
		return tx.Get(model.StoreCommits, projectID, &l)
	})
	if err != nil {
		if !notFound(err) {
			readFailed(ctx, "commits.get", model.StoreCommits, err)
		}
		return nil
	}
	return &l
}

// Append adds c to the project's log, creating the log if necessary, and
// makes c the current commit.
func (r *CommitRepo) Append(ctx context.Context, projectID string, c model.Commit) (*model.CommitLog, error) {
	var l model.CommitLog
	err := r.g.Update(ctx, func(tx *Tx) error {
		if err := tx.Get(model.StoreCommits, projectID, &l); err != nil {
			if !notFound(err) {
				return err
			}
			l = model.CommitLog{ProjectID: projectID}
		}
		l.Commits = append(l.Commits, c)
		l.CurrentCommitID = c.ID
		return tx.Put(model.StoreCommits, &l)
	})
	if err != nil {
		return nil, writeFailed("commits.append", err)
	}
	return &l, nil
}

// SetCurrent moves the current pointer to commitID and returns that commit.
// It returns nil, nil when the log or commit does not exist.
func (r *CommitRepo) SetCurrent(ctx context.Context, projectID, commitID string) (*model.Commit, error) {
	var found *model.Commit
	err := r.g.Update(ctx, func(tx *Tx) error {
		var l model.CommitLog
		if err := tx.Get(model.StoreCommits, projectID, &l); err != nil {
			if notFound(err) {
				return nil
			}
			return err
		}
		c, ok := l.Find(commitID)
		if !ok {
			return nil
		}
		found = c
		l.CurrentCommitID = commitID
		return tx.Put(model.StoreCommits, &l)
	})
	if err != nil {
		return nil, writeFailed("commits.set_current", err)
	}
	return found, nil
}

// Delete removes the project's commit log.
func (r *CommitRepo) Delete(ctx context.Context, projectID string) error {
	return writeFailed("commits.delete", r.g.Update(ctx, func(tx *Tx) error {
		_, err := tx.Delete(model.StoreCommits, projectID)
		return err
	}))
}
