package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/manav03panchal/mindstore/internal/model"
)

// SettingsRepo provides key/value settings.
type SettingsRepo struct {
	g   *Gateway
	now func() time.Time
}

// NewSettingsRepo creates a new settings repository.
func NewSettingsRepo(g *Gateway) *SettingsRepo {
	return &SettingsRepo{g: g, now: time.Now}
}

// Get returns the setting, or nil when absent or unreadable.
func (r *SettingsRepo) Get(ctx context.Context, key string) *model.Setting {
	var s model.Setting
	err := r.g.View(ctx, func(tx *Tx) error {
		return tx.Get(model.StoreSettings, key, &s)
	})
	if err != nil {
		if !notFound(err) {
			readFailed(ctx, "settings.get", model.StoreSettings, err)
		}
		return nil
	}
	return &s
}

// GetValue decodes the setting value into v. It reports whether a value was
// found and decoded.
func (r *SettingsRepo) GetValue(ctx context.Context, key string, v any) bool {
	s := r.Get(ctx, key)
	if s == nil {
		return false
	}
	if err := json.Unmarshal(s.Value, v); err != nil {
		readFailed(ctx, "settings.get", model.StoreSettings, err)
		return false
	}
	return true
}

// Set stores value as JSON under key.
func (r *SettingsRepo) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return writeFailed("settings.set", err)
	}
	s := &model.Setting{Key: key, Value: raw, UpdatedAt: r.now().UTC()}
	return writeFailed("settings.set", r.g.Update(ctx, func(tx *Tx) error {
		return tx.Put(model.StoreSettings, s)
	}))
}

// Delete removes key. Deleting a missing key is not an error.
func (r *SettingsRepo) Delete(ctx context.Context, key string) error {
	return writeFailed("settings.delete", r.g.Update(ctx, func(tx *Tx) error {
		_, err := tx.Delete(model.StoreSettings, key)
		return err
	}))
}

// All returns every setting in key order.
func (r *SettingsRepo) All(ctx context.Context) []model.Setting {
	var out []model.Setting
	err := r.g.View(ctx, func(tx *Tx) error {
		var err error
		out, err = ScanAll[model.Setting](tx, model.StoreSettings, "")
		return err
	})
	if err != nil {
		readFailed(ctx, "settings.all", model.StoreSettings, err)
		return nil
	}
	return out
}
