package storage

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/manav03panchal/mindstore/internal/errors"
	"github.com/manav03panchal/mindstore/internal/model"
)

// ProjectRepo provides operations for Project records.
type ProjectRepo struct {
	g *Gateway
}

// NewProjectRepo creates a new project repository.
func NewProjectRepo(g *Gateway) *ProjectRepo {
	return &ProjectRepo{g: g}
}

// Get retrieves a project by ID, or nil when absent or unreadable.
func (r *ProjectRepo) Get(ctx context.Context, id string) *model.Project {
	var p model.Project
	err := r.g.View(ctx, func(tx *Tx) error {
		return tx.Get(model.StoreProjects, id, &p)
	})
	if err != nil {
		if !notFound(err) {
			readFailed(ctx, "projects.get", model.StoreProjects, err)
		}
		return nil
	}
	return &p
}

// Put upserts a project and returns its ID.
func (r *ProjectRepo) Put(ctx context.Context, p *model.Project) (string, error) {
	err := r.g.Update(ctx, func(tx *Tx) error {
		return tx.Put(model.StoreProjects, p)
	})
	if err != nil {
		return "", writeFailed("projects.put", err)
	}
	return p.ID, nil
}

// Update overwrites an existing project. It fails with ErrNotFound when the
// project does not exist.
func (r *ProjectRepo) Update(ctx context.Context, p *model.Project) error {
	err := r.g.Update(ctx, func(tx *Tx) error {
		ok, err := tx.Exists(model.StoreProjects, p.ID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("project %s: %w", p.ID, errors.ErrNotFound)
		}
		return tx.Put(model.StoreProjects, p)
	})
	return writeFailed("projects.update", err)
}

// Delete removes a project and returns the removed record. It fails with
// ErrNotFound when the project does not exist.
func (r *ProjectRepo) Delete(ctx context.Context, id string) (*model.Project, error) {
	var p model.Project
	err := r.g.Update(ctx, func(tx *Tx) error {
		if err := tx.Get(model.StoreProjects, id, &p); err != nil {
			if notFound(err) {
				return fmt.Errorf("project %s: %w", id, errors.ErrNotFound)
			}
			return err
		}
		_, err := tx.Delete(model.StoreProjects, id)
		return err
	})
	if err != nil {
		return nil, writeFailed("projects.delete", err)
	}
	return &p, nil
}

// List returns every project, most recently updated first.
func (r *ProjectRepo) List(ctx context.Context) []model.Project {
	return r.query(ctx, "projects.list", "updatedAt", nil, true)
}

// Archived returns projects whose archive flag equals archived, most
// recently updated first.
func (r *ProjectRepo) Archived(ctx context.Context, archived bool) []model.Project {
	out := r.query(ctx, "projects.archived", "isArchived", archived, false)
	sortByUpdated(out)
	return out
}

// ByTag returns projects carrying tag, most recently updated first.
func (r *ProjectRepo) ByTag(ctx context.Context, tag string) []model.Project {
	out := r.query(ctx, "projects.by_tag", "tags", tag, false)
	sortByUpdated(out)
	return out
}

// RecentlyAccessed returns up to limit projects by LastAccessedAt, newest
// first. A limit of zero returns all.
func (r *ProjectRepo) RecentlyAccessed(ctx context.Context, limit int) []model.Project {
	out := r.query(ctx, "projects.recent", "lastAccessedAt", nil, true)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *ProjectRepo) query(ctx context.Context, op, index string, value any, reverse bool) []model.Project {
	var out []model.Project
	err := r.g.View(ctx, func(tx *Tx) error {
		var err error
		out, err = IndexAll[model.Project](tx, model.StoreProjects, index, value)
		return err
	})
	if err != nil {
		readFailed(ctx, op, model.StoreProjects, err)
		return nil
	}
	if reverse {
		slices.Reverse(out)
	}
	return out
}

func sortByUpdated(ps []model.Project) {
	slices.SortStableFunc(ps, func(a, b model.Project) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
}

// Archive sets the archive flag in one read-modify-write transaction and
// returns the updated project. It returns nil, nil when the project does
// not exist.
func (r *ProjectRepo) Archive(ctx context.Context, id string, archived bool, now time.Time) (*model.Project, error) {
	var p model.Project
	found := true
	err := r.g.Update(ctx, func(tx *Tx) error {
		if err := tx.Get(model.StoreProjects, id, &p); err != nil {
			if notFound(err) {
				found = false
				return nil
			}
			return err
		}
		p.SetArchived(archived, now.UTC())
		p.UpdatedAt = now.UTC()
		return tx.Put(model.StoreProjects, &p)
	})
	if err != nil {
		return nil, writeFailed("projects.archive", err)
	}
	if !found {
		return nil, nil
	}
	return &p, nil
}

// Touch refreshes LastAccessedAt in its own transaction. A missing project
// is ignored.
func (r *ProjectRepo) Touch(ctx context.Context, id string, now time.Time) error {
	err := r.g.Update(ctx, func(tx *Tx) error {
		var p model.Project
		if err := tx.Get(model.StoreProjects, id, &p); err != nil {
			if notFound(err) {
				return nil
			}
			return err
		}
		p.LastAccessedAt = now.UTC()
		return tx.Put(model.StoreProjects, &p)
	})
	return writeFailed("projects.touch", err)
}
