package storage

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/manav03panchal/mindstore/internal/model"
)

// IndexKind selects how string field values are encoded in an index.
type IndexKind string

// Index kinds. The zero kind indexes strings verbatim.
const (
	// IndexKindTime indexes RFC 3339 strings by instant rather than by text.
	IndexKindTime IndexKind = "time"
	// IndexKindFold indexes strings case-insensitively.
	IndexKindFold IndexKind = "fold"
)

// IndexDef describes a secondary index over a top-level JSON field.
type IndexDef struct {
	Name       string    `json:"name"`
	KeyPath    string    `json:"key_path"`
	Unique     bool      `json:"unique,omitempty"`
	MultiEntry bool      `json:"multi_entry,omitempty"`
	Kind       IndexKind `json:"kind,omitempty"`
}

// StoreDef describes an object store.
type StoreDef struct {
	Name          string              `json:"name"`
	KeyPath       []string            `json:"key_path"`
	AutoIncrement bool                `json:"auto_increment,omitempty"`
	Indexes       map[string]IndexDef `json:"indexes,omitempty"`
}

// IndexNames returns the store's index names in sorted order.
func (s *StoreDef) IndexNames() NameList {
	names := make([]string, 0, len(s.Indexes))
	for n := range s.Indexes {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Schema is the persisted set of stores and the version that produced it.
type Schema struct {
	Version int                  `json:"version"`
	Stores  map[string]*StoreDef `json:"stores"`
}

func newSchema() *Schema {
	return &Schema{Stores: make(map[string]*StoreDef)}
}

// StoreNames returns the store names in sorted order.
func (s *Schema) StoreNames() NameList {
	names := make([]string, 0, len(s.Stores))
	for n := range s.Stores {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Store returns the definition of name, or nil.
func (s *Schema) Store(name string) *StoreDef {
	if s == nil {
		return nil
	}
	return s.Stores[name]
}

func loadSchema(txn Txn) (*Schema, error) {
	raw, err := txn.Get(schemaKey)
	if err != nil {
		if IsErrKeyNotFound(err) {
			return newSchema(), nil
		}
		return nil, err
	}
	s := newSchema()
	if err := json.Unmarshal(raw, s); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	if s.Stores == nil {
		s.Stores = make(map[string]*StoreDef)
	}
	for _, def := range s.Stores {
		if def.Indexes == nil {
			def.Indexes = make(map[string]IndexDef)
		}
	}
	return s, nil
}

func saveSchema(txn Txn, s *Schema) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return txn.Set(schemaKey, raw)
}

// NameList is a list of store or index names.
type NameList []string

// Contains reports whether name is in the list.
func (l NameList) Contains(name string) bool {
	return slices.Contains(l, name)
}

// StoreOptions configures CreateObjectStore.
type StoreOptions struct {
	KeyPath       []string
	AutoIncrement bool
}

// IndexOptions configures CreateIndex.
type IndexOptions struct {
	Unique     bool
	MultiEntry bool
	Kind       IndexKind
}

// UpgradeTx is the single transaction a migration runs in. It mirrors the
// versionchange transaction of an object database: stores and indexes are
// created through it, and seed data is written with it.
type UpgradeTx struct {
	OldVersion int
	NewVersion int

	tx *Tx
}

// ObjectStoreNames lists existing stores.
func (u *UpgradeTx) ObjectStoreNames() NameList {
	return u.tx.schema.StoreNames()
}

// CreateObjectStore adds a store. Creating an existing store is an error;
// migrations guard with ObjectStoreNames().Contains.
func (u *UpgradeTx) CreateObjectStore(name string, opts StoreOptions) (*ObjectStore, error) {
	if u.tx.schema.Store(name) != nil {
		return nil, fmt.Errorf("object store %q already exists", name)
	}
	u.tx.schema.Stores[name] = &StoreDef{
		Name:          name,
		KeyPath:       slices.Clone(opts.KeyPath),
		AutoIncrement: opts.AutoIncrement,
		Indexes:       make(map[string]IndexDef),
	}
	return u.ObjectStore(name), nil
}

// ObjectStore returns a handle on an existing store, or nil.
func (u *UpgradeTx) ObjectStore(name string) *ObjectStore {
	if u.tx.schema.Store(name) == nil {
		return nil
	}
	return &ObjectStore{name: name, tx: u.tx}
}

// ObjectStore is a store handle inside an UpgradeTx.
type ObjectStore struct {
	name string
	tx   *Tx
}

// IndexNames lists the store's indexes.
func (o *ObjectStore) IndexNames() NameList {
	return o.tx.schema.Store(o.name).IndexNames()
}

// CreateIndex adds an index and backfills it from existing records.
func (o *ObjectStore) CreateIndex(name, keyPath string, opts IndexOptions) error {
	def := o.tx.schema.Store(o.name)
	if _, exists := def.Indexes[name]; exists {
		return fmt.Errorf("index %q already exists on %q", name, o.name)
	}
	idx := IndexDef{Name: name, KeyPath: keyPath, Unique: opts.Unique, MultiEntry: opts.MultiEntry, Kind: opts.Kind}
	def.Indexes[name] = idx
	return o.tx.backfillIndex(o.name, idx)
}

// RebuildIndex drops every entry of an existing index and backfills it
// again under kind.
func (o *ObjectStore) RebuildIndex(name string, kind IndexKind) error {
	def := o.tx.schema.Store(o.name)
	idx, exists := def.Indexes[name]
	if !exists {
		return fmt.Errorf("index %q does not exist on %q", name, o.name)
	}
	if err := o.tx.dropIndexEntries(o.name, name); err != nil {
		return err
	}
	idx.Kind = kind
	def.Indexes[name] = idx
	return o.tx.backfillIndex(o.name, idx)
}

// Get reads a record, returning ErrKeyNotFound if absent.
func (o *ObjectStore) Get(m model.Model, pk string) error {
	return o.tx.Get(o.name, pk, m)
}

// Exists reports whether pk is present.
func (o *ObjectStore) Exists(pk string) (bool, error) {
	return o.tx.Exists(o.name, pk)
}

// Put upserts a record.
func (o *ObjectStore) Put(m model.Model) error {
	return o.tx.Put(o.name, m)
}

// Count returns the number of records.
func (o *ObjectStore) Count() (int, error) {
	return o.tx.Count(o.name)
}
