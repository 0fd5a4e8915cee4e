package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/manav03panchal/mindstore/internal/model"
)

// SecureRepo stores encrypted blobs addressed by their unique key. It never
// sees plaintext.
type SecureRepo struct {
	g *Gateway
}

// NewSecureRepo creates a new secure store repository.
func NewSecureRepo(g *Gateway) *SecureRepo {
	return &SecureRepo{g: g}
}

// FindByKey looks key up through the unique key index. It returns nil, nil
// when absent.
func (r *SecureRepo) FindByKey(ctx context.Context, key string) (*model.SecureData, error) {
	var found *model.SecureData
	err := r.g.View(ctx, func(tx *Tx) error {
		var err error
		found, err = findSecure(tx, key)
		return err
	})
	if err != nil {
		return nil, writeFailed("secure.find", err)
	}
	return found, nil
}

func findSecure(tx *Tx, key string) (*model.SecureData, error) {
	rows, err := IndexAll[model.SecureData](tx, model.StoreSecure, "key", key)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].Key == key {
			return &rows[i], nil
		}
	}
	return nil, nil
}

// Upsert stores ciphertext under key. An existing record keeps its ID and
// CreatedAt; a new record gets a fresh ID.
func (r *SecureRepo) Upsert(ctx context.Context, key, ciphertext string, now time.Time) (*model.SecureData, error) {
	now = now.UTC()
	var out *model.SecureData
	err := r.g.Update(ctx, func(tx *Tx) error {
		rec, err := findSecure(tx, key)
		if err != nil {
			return err
		}
		if rec == nil {
			rec = &model.SecureData{
				ID:        uuid.Must(uuid.NewV7()).String(),
				Key:       key,
				CreatedAt: now,
			}
		}
		rec.Ciphertext = ciphertext
		rec.UpdatedAt = now
		out = rec
		return tx.Put(model.StoreSecure, rec)
	})
	if err != nil {
		return nil, writeFailed("secure.upsert", err)
	}
	return out, nil
}

// DeleteByKey resolves key to its record ID and deletes by ID. It reports
// whether a record was removed.
func (r *SecureRepo) DeleteByKey(ctx context.Context, key string) (bool, error) {
	var deleted bool
	err := r.g.Update(ctx, func(tx *Tx) error {
		rec, err := findSecure(tx, key)
		if err != nil || rec == nil {
			return err
		}
		deleted, err = tx.Delete(model.StoreSecure, rec.ID)
		return err
	})
	return deleted, writeFailed("secure.delete", err)
}

// Keys lists the stored keys in key order.
func (r *SecureRepo) Keys(ctx context.Context) []string {
	var keys []string
	err := r.g.View(ctx, func(tx *Tx) error {
		rows, err := IndexAll[model.SecureData](tx, model.StoreSecure, "key", nil)
		for _, row := range rows {
			keys = append(keys, row.Key)
		}
		return err
	})
	if err != nil {
		readFailed(ctx, "secure.keys", model.StoreSecure, err)
		return nil
	}
	return keys
}
