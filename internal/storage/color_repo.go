package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/manav03panchal/mindstore/internal/errors"
	"github.com/manav03panchal/mindstore/internal/model"
)

// ColorRepo provides operations for color schemes. Exactly one scheme
// carries IsDefault.
type ColorRepo struct {
	g   *Gateway
	now func() time.Time
}

// NewColorRepo creates a new color scheme repository.
func NewColorRepo(g *Gateway) *ColorRepo {
	return &ColorRepo{g: g, now: time.Now}
}

// List returns all schemes in id order.
func (r *ColorRepo) List(ctx context.Context) []model.ColorScheme {
	var out []model.ColorScheme
	err := r.g.View(ctx, func(tx *Tx) error {
		var err error
		out, err = ScanAll[model.ColorScheme](tx, model.StoreColors, "")
		return err
	})
	if err != nil {
		readFailed(ctx, "colors.list", model.StoreColors, err)
		return nil
	}
	return out
}

// Get returns the scheme, or nil.
func (r *ColorRepo) Get(ctx context.Context, id string) *model.ColorScheme {
	var c model.ColorScheme
	err := r.g.View(ctx, func(tx *Tx) error {
		return tx.Get(model.StoreColors, id, &c)
	})
	if err != nil {
		if !notFound(err) {
			readFailed(ctx, "colors.get", model.StoreColors, err)
		}
		return nil
	}
	return &c
}

// Default returns the default-flagged scheme, or nil.
func (r *ColorRepo) Default(ctx context.Context) *model.ColorScheme {
	var found []model.ColorScheme
	err := r.g.View(ctx, func(tx *Tx) error {
		var err error
		found, err = IndexAll[model.ColorScheme](tx, model.StoreColors, "isDefault", true)
		return err
	})
	if err != nil {
		readFailed(ctx, "colors.default", model.StoreColors, err)
		return nil
	}
	if len(found) == 0 {
		return nil
	}
	return &found[0]
}

// Save upserts a custom scheme. An empty ID gets a generated one; the
// stored CreatedAt and default flag are preserved on update. Colors must be
// #RRGGBB hex values.
func (r *ColorRepo) Save(ctx context.Context, c *model.ColorScheme) error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.NewUserErrorWithField("name", c.Name, "color scheme name is required", "")
	}
	for slot, color := range c.Colors {
		if !model.ValidateColor(color) {
			return errors.NewUserErrorWithField(slot, color, fmt.Sprintf("invalid color for %s", slot), "Use #RRGGBB hex colors")
		}
	}

	now := r.now().UTC()
	if c.ID == "" {
		c.ID = uuid.Must(uuid.NewV7()).String()
	}
	err := r.g.Update(ctx, func(tx *Tx) error {
		var existing model.ColorScheme
		switch err := tx.Get(model.StoreColors, c.ID, &existing); {
		case err == nil:
			c.CreatedAt = existing.CreatedAt
			c.IsDefault = existing.IsDefault
		case notFound(err):
			c.CreatedAt = now
			c.IsDefault = false
		default:
			return err
		}
		c.IsCustom = c.ID != model.ColorSchemeDefault && c.ID != model.ColorSchemeDark
		c.UpdatedAt = now
		return tx.Put(model.StoreColors, c)
	})
	return writeFailed("colors.save", err)
}

// SetDefault flags id as the default and clears every other scheme in the
// same transaction.
func (r *ColorRepo) SetDefault(ctx context.Context, id string) error {
	now := r.now().UTC()
	err := r.g.Update(ctx, func(tx *Tx) error {
		var target model.ColorScheme
		if err := tx.Get(model.StoreColors, id, &target); err != nil {
			if notFound(err) {
				return fmt.Errorf("color scheme %s: %w", id, errors.ErrNotFound)
			}
			return err
		}

		flagged, err := IndexAll[model.ColorScheme](tx, model.StoreColors, "isDefault", true)
		if err != nil {
			return err
		}
		for _, other := range flagged {
			if other.ID == id {
				continue
			}
			other.IsDefault = false
			other.UpdatedAt = now
			if err := tx.Put(model.StoreColors, &other); err != nil {
				return err
			}
		}

		if target.IsDefault {
			return nil
		}
		target.IsDefault = true
		target.UpdatedAt = now
		return tx.Put(model.StoreColors, &target)
	})
	return writeFailed("colors.set_default", err)
}

// Delete removes a scheme. The default scheme cannot be deleted. Deleting a
// missing scheme is not an error.
func (r *ColorRepo) Delete(ctx context.Context, id string) error {
	err := r.g.Update(ctx, func(tx *Tx) error {
		var c model.ColorScheme
		if err := tx.Get(model.StoreColors, id, &c); err != nil {
			if notFound(err) {
				return nil
			}
			return err
		}
		if c.IsDefault {
			return fmt.Errorf("color scheme %s: %w", id, errors.ErrDefaultSchemeProtected)
		}
		_, err := tx.Delete(model.StoreColors, id)
		return err
	})
	return writeFailed("colors.delete", err)
}
