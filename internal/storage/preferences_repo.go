package storage

import (
	"context"
	"time"

	"github.com/manav03panchal/mindstore/internal/errors"
	"github.com/manav03panchal/mindstore/internal/model"
)

// PreferencesRepo provides the node preferences singleton.
type PreferencesRepo struct {
	g   *Gateway
	now func() time.Time
}

// NewPreferencesRepo creates a new preferences repository.
func NewPreferencesRepo(g *Gateway) *PreferencesRepo {
	return &PreferencesRepo{g: g, now: time.Now}
}

// Get returns the stored preferences, or the built-in defaults when none
// can be read.
func (r *PreferencesRepo) Get(ctx context.Context) *model.NodePreferences {
	var p model.NodePreferences
	err := r.g.View(ctx, func(tx *Tx) error {
		return tx.Get(model.StoreNodePreferences, model.KeyNodePreferences, &p)
	})
	if err != nil {
		if !notFound(err) {
			readFailed(ctx, "prefs.get", model.StoreNodePreferences, err)
		}
		return model.DefaultNodePreferences(r.now().UTC())
	}
	return &p
}

// Update stores p as the singleton.
func (r *PreferencesRepo) Update(ctx context.Context, p *model.NodePreferences) error {
	if !p.DefaultSize.Valid() {
		return errors.NewUserErrorWithField("default_size", p.DefaultSize.String(), "invalid node size", "Use small, medium or large")
	}
	for nodeType, color := range p.CustomColors {
		if !model.ValidateColor(color) {
			return errors.NewUserErrorWithField(nodeType, color, "invalid custom color", "Use #RRGGBB hex colors")
		}
	}
	p.ID = model.KeyNodePreferences
	p.UpdatedAt = r.now().UTC()
	return writeFailed("prefs.update", r.g.Update(ctx, func(tx *Tx) error {
		return tx.Put(model.StoreNodePreferences, p)
	}))
}

// SetDefaultSize changes only the default node size.
func (r *PreferencesRepo) SetDefaultSize(ctx context.Context, size model.Size) (*model.NodePreferences, error) {
	p := r.Get(ctx)
	p.DefaultSize = size
	if err := r.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
