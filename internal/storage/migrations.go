package storage

import (
	"fmt"
	"time"

	"github.com/manav03panchal/mindstore/internal/model"
)

// SchemaVersion is the version the current migrations produce.
const SchemaVersion = 5

// Migration upgrades the schema to Version. Up runs only when the persisted
// version is below Version and must tolerate partially applied earlier runs.
type Migration struct {
	Version int
	Up      func(u *UpgradeTx, now time.Time) error
}

// Migrations is the ordered migration list.
var Migrations = []Migration{
	{Version: 1, Up: migrateV1},
	{Version: 2, Up: migrateV2},
	{Version: 3, Up: migrateV3},
	{Version: 4, Up: migrateV4},
	{Version: 5, Up: migrateV5},
}

type indexSpec struct {
	name, keyPath string
	opts          IndexOptions
}

// ensureStore creates store and any missing indexes.
func ensureStore(u *UpgradeTx, name string, opts StoreOptions, indexes ...indexSpec) (*ObjectStore, error) {
	store := u.ObjectStore(name)
	if !u.ObjectStoreNames().Contains(name) {
		var err error
		if store, err = u.CreateObjectStore(name, opts); err != nil {
			return nil, err
		}
	}
	for _, idx := range indexes {
		if store.IndexNames().Contains(idx.name) {
			continue
		}
		if err := store.CreateIndex(idx.name, idx.keyPath, idx.opts); err != nil {
			return nil, fmt.Errorf("create index %s.%s: %w", name, idx.name, err)
		}
	}
	return store, nil
}

var (
	idKey     = StoreOptions{KeyPath: []string{"id"}}
	timeIndex = IndexOptions{Kind: IndexKindTime}
)

func migrateV1(u *UpgradeTx, now time.Time) error {
	if _, err := ensureStore(u, model.StoreSettings, StoreOptions{KeyPath: []string{"key"}}); err != nil {
		return err
	}
	colors, err := ensureStore(u, model.StoreColors, idKey,
		indexSpec{"name", "name", IndexOptions{Unique: true}},
		indexSpec{"isDefault", "is_default", IndexOptions{}},
	)
	if err != nil {
		return err
	}
	prefs, err := ensureStore(u, model.StoreNodePreferences, idKey)
	if err != nil {
		return err
	}
	if _, err := ensureStore(u, model.StoreLogs, idKey,
		indexSpec{"timestamp", "timestamp", timeIndex},
		indexSpec{"level", "level", IndexOptions{}},
	); err != nil {
		return err
	}

	return seedDefaults(colors, prefs, now)
}

func migrateV2(u *UpgradeTx, _ time.Time) error {
	if _, err := ensureStore(u, model.StoreSecure, idKey,
		indexSpec{"key", "key", IndexOptions{Unique: true}},
		indexSpec{"updatedAt", "updated_at", timeIndex},
	); err != nil {
		return err
	}
	_, err := ensureStore(u, model.StoreProjects, idKey,
		indexSpec{"updatedAt", "updated_at", timeIndex},
	)
	return err
}

func migrateV3(u *UpgradeTx, _ time.Time) error {
	if _, err := ensureStore(u, model.StoreProjectHistory, StoreOptions{KeyPath: []string{"project_id", "timestamp"}},
		indexSpec{"projectId", "project_id", IndexOptions{}},
		indexSpec{"timestamp", "timestamp", timeIndex},
		indexSpec{"action", "action", IndexOptions{}},
	); err != nil {
		return err
	}
	if _, err := ensureStore(u, model.StoreOfflineQueue, StoreOptions{KeyPath: []string{"id"}, AutoIncrement: true},
		indexSpec{"timestamp", "timestamp", timeIndex},
		indexSpec{"type", "operation", IndexOptions{}},
	); err != nil {
		return err
	}
	// projects exists since v2; v3 only adds indexes.
	_, err := ensureStore(u, model.StoreProjects, idKey,
		indexSpec{"isArchived", "is_archived", IndexOptions{}},
		indexSpec{"lastAccessedAt", "last_accessed_at", timeIndex},
		indexSpec{"tags", "tags", IndexOptions{MultiEntry: true, Kind: IndexKindFold}},
	)
	return err
}

func migrateV4(u *UpgradeTx, _ time.Time) error {
	_, err := ensureStore(u, model.StoreCommits, StoreOptions{KeyPath: []string{"project_id"}})
	return err
}

// indexKinds lists the indexes whose strings are not compared verbatim.
var indexKinds = map[string]map[string]IndexKind{
	model.StoreLogs:           {"timestamp": IndexKindTime},
	model.StoreSecure:         {"updatedAt": IndexKindTime},
	model.StoreProjects:       {"updatedAt": IndexKindTime, "lastAccessedAt": IndexKindTime, "tags": IndexKindFold},
	model.StoreProjectHistory: {"timestamp": IndexKindTime},
	model.StoreOfflineQueue:   {"timestamp": IndexKindTime},
}

// migrateV5 re-encodes every index with typed values. Entries written
// before v5 were untyped and folded any RFC 3339 string into its instant.
// Running it on a fresh store only rewrites the seed entries.
func migrateV5(u *UpgradeTx, _ time.Time) error {
	for _, name := range u.ObjectStoreNames() {
		store := u.ObjectStore(name)
		for _, idx := range store.IndexNames() {
			if err := store.RebuildIndex(idx, indexKinds[name][idx]); err != nil {
				return fmt.Errorf("rebuild index %s.%s: %w", name, idx, err)
			}
		}
	}
	return nil
}

// seedDefaults inserts the built-in color schemes and node preferences when
// absent. It runs only inside the upgrade transaction that creates their
// stores, so records the user deletes later stay deleted.
func seedDefaults(colors, prefs *ObjectStore, now time.Time) error {
	for _, scheme := range []*model.ColorScheme{model.DefaultColorScheme(now), model.DarkColorScheme(now)} {
		exists, err := colors.Exists(scheme.ID)
		if err != nil {
			return err
		}
		if !exists {
			if err := colors.Put(scheme); err != nil {
				return fmt.Errorf("seed color scheme %s: %w", scheme.ID, err)
			}
		}
	}

	exists, err := prefs.Exists(model.KeyNodePreferences)
	if err != nil {
		return err
	}
	if !exists {
		if err := prefs.Put(model.DefaultNodePreferences(now)); err != nil {
			return fmt.Errorf("seed node preferences: %w", err)
		}
	}
	return nil
}

// runMigrations applies every migration above oldVersion in one transaction
// and persists the resulting schema.
func runMigrations(tx *Tx, oldVersion int, migrations []Migration, now time.Time) error {
	target := oldVersion
	for _, m := range migrations {
		if m.Version > target {
			target = m.Version
		}
	}
	u := &UpgradeTx{OldVersion: oldVersion, NewVersion: target, tx: tx}
	for _, m := range migrations {
		if oldVersion >= m.Version {
			continue
		}
		if err := m.Up(u, now); err != nil {
			return fmt.Errorf("migration v%d: %w", m.Version, err)
		}
	}
	if target > tx.schema.Version {
		tx.schema.Version = target
	}
	return saveSchema(tx.txn, tx.schema)
}
