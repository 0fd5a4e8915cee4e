package storage

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strconv"

	"github.com/manav03panchal/mindstore/internal/errors"
	"github.com/manav03panchal/mindstore/internal/model"
)

// ErrUnknownStore is returned when a transaction names a store the schema
// does not define.
var ErrUnknownStore = stderrors.New("unknown object store")

// Tx is a schema-aware transaction. Records are JSON documents; index
// entries are maintained for every index the schema defines on the store.
type Tx struct {
	txn    Txn
	schema *Schema
}

func (t *Tx) def(store string) (*StoreDef, error) {
	def := t.schema.Store(store)
	if def == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStore, store)
	}
	return def, nil
}

// GetRaw returns the encoded record, or ErrKeyNotFound.
func (t *Tx) GetRaw(store, pk string) ([]byte, error) {
	if _, err := t.def(store); err != nil {
		return nil, err
	}
	return t.txn.Get(recordKey(store, pk))
}

// Get decodes the record pk into m.
func (t *Tx) Get(store, pk string, m model.Model) error {
	raw, err := t.GetRaw(store, pk)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, m); err != nil {
		return fmt.Errorf("decode %s/%s: %w", store, pk, err)
	}
	m.SetKey(pk)
	return nil
}

// Exists reports whether pk is present in store.
func (t *Tx) Exists(store, pk string) (bool, error) {
	_, err := t.GetRaw(store, pk)
	switch {
	case err == nil:
		return true, nil
	case IsErrKeyNotFound(err):
		return false, nil
	default:
		return false, err
	}
}

// Put upserts m under m.GetKey().
func (t *Tx) Put(store string, m model.Model) error {
	pk := m.GetKey()
	if pk == "" {
		return fmt.Errorf("put %s: empty primary key", store)
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", store, pk, err)
	}
	return t.PutRaw(store, pk, raw)
}

// PutRaw upserts an encoded record, replacing its index entries. Unique
// index collisions fail with ErrConstraint and leave the store unchanged.
func (t *Tx) PutRaw(store, pk string, raw []byte) error {
	def, err := t.def(store)
	if err != nil {
		return err
	}

	newDoc, err := decodeDoc(raw)
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", store, pk, err)
	}
	for _, idx := range def.Indexes {
		if !idx.Unique {
			continue
		}
		for _, v := range indexValues(newDoc, idx) {
			if err := t.checkUnique(store, idx, v, pk); err != nil {
				return err
			}
		}
	}

	if err := t.removeIndexEntries(def, pk); err != nil {
		return err
	}
	if err := t.txn.Set(recordKey(store, pk), raw); err != nil {
		return err
	}
	return t.addIndexEntries(def, pk, newDoc)
}

// Add assigns the next auto-increment id to m, stores it and returns the id.
func (t *Tx) Add(store string, m model.Model) (int64, error) {
	def, err := t.def(store)
	if err != nil {
		return 0, err
	}
	if !def.AutoIncrement {
		return 0, fmt.Errorf("add %s: store has no key generator", store)
	}

	id, err := t.nextSeq(store)
	if err != nil {
		return 0, err
	}
	m.SetKey(autoKey(id))
	if err := t.Put(store, m); err != nil {
		return 0, err
	}
	return id, nil
}

func (t *Tx) nextSeq(store string) (int64, error) {
	var last int64
	raw, err := t.txn.Get(seqKey(store))
	switch {
	case err == nil:
		last, err = strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("decode sequence for %s: %w", store, err)
		}
	case !IsErrKeyNotFound(err):
		return 0, err
	}
	next := last + 1
	if err := t.txn.Set(seqKey(store), []byte(strconv.FormatInt(next, 10))); err != nil {
		return 0, err
	}
	return next, nil
}

// Delete removes pk and its index entries. It reports whether pk existed.
func (t *Tx) Delete(store, pk string) (bool, error) {
	def, err := t.def(store)
	if err != nil {
		return false, err
	}
	found, err := t.Exists(store, pk)
	if err != nil || !found {
		return false, err
	}
	if err := t.removeIndexEntries(def, pk); err != nil {
		return false, err
	}
	return true, t.txn.Delete(recordKey(store, pk))
}

// Scan calls fn for every record whose primary key starts with pkPrefix, in
// primary key order. Return errStopIteration from fn to end early.
func (t *Tx) Scan(store, pkPrefix string, fn func(pk string, raw []byte) error) error {
	if _, err := t.def(store); err != nil {
		return err
	}
	prefix := recordPrefix(store)
	return t.txn.Iterate(prefix+pkPrefix, func(key string, value []byte) error {
		return fn(key[len(prefix):], value)
	})
}

// IndexScan calls fn for each record reachable through index, in index
// order. A nil value walks the whole index; otherwise only entries equal to
// value are visited.
func (t *Tx) IndexScan(store, index string, value any, fn func(pk string, raw []byte) error) error {
	def, err := t.def(store)
	if err != nil {
		return err
	}
	idx, ok := def.Indexes[index]
	if !ok {
		return fmt.Errorf("%w: index %s.%s", ErrUnknownStore, store, index)
	}

	prefix := indexPrefix(store, index)
	if value != nil {
		enc, ok := encodeIndexValue(value, idx.Kind)
		if !ok {
			return fmt.Errorf("index %s.%s: unsupported value %T", store, index, value)
		}
		prefix = indexValuePrefix(store, index, enc)
	}

	var pks []string
	if err := t.txn.Iterate(prefix, func(key string, _ []byte) error {
		pks = append(pks, pkFromIndexKey(key))
		return nil
	}); err != nil {
		return err
	}
	for _, pk := range pks {
		raw, err := t.txn.Get(recordKey(store, pk))
		if IsErrKeyNotFound(err) {
			continue
		}
		if err != nil {
			return err
		}
		if err := fn(pk, raw); err != nil {
			return iterationDone(err)
		}
	}
	return nil
}

// Count returns the number of records in store.
func (t *Tx) Count(store string) (int, error) {
	n := 0
	err := t.Scan(store, "", func(string, []byte) error {
		n++
		return nil
	})
	return n, err
}

// Clear deletes every record of store and returns how many were removed.
func (t *Tx) Clear(store string) (int, error) {
	var pks []string
	if err := t.Scan(store, "", func(pk string, _ []byte) error {
		pks = append(pks, pk)
		return nil
	}); err != nil {
		return 0, err
	}
	for _, pk := range pks {
		if _, err := t.Delete(store, pk); err != nil {
			return 0, err
		}
	}
	return len(pks), nil
}

func (t *Tx) checkUnique(store string, idx IndexDef, value, pk string) error {
	return t.txn.Iterate(indexValuePrefix(store, idx.Name, value), func(key string, _ []byte) error {
		if other := pkFromIndexKey(key); other != pk {
			return fmt.Errorf("%w: %s.%s %q already used by %s", errors.ErrConstraint, store, idx.Name, value, other)
		}
		return nil
	})
}

func (t *Tx) removeIndexEntries(def *StoreDef, pk string) error {
	if len(def.Indexes) == 0 {
		return nil
	}
	old, err := t.txn.Get(recordKey(def.Name, pk))
	if IsErrKeyNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	oldDoc, err := decodeDoc(old)
	if err != nil {
		// An undecodable record has no index entries we can compute.
		return nil
	}
	for _, idx := range def.Indexes {
		for _, v := range indexValues(oldDoc, idx) {
			if err := t.txn.Delete(indexKey(def.Name, idx.Name, v, pk)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Tx) addIndexEntries(def *StoreDef, pk string, doc map[string]any) error {
	for _, idx := range def.Indexes {
		for _, v := range indexValues(doc, idx) {
			if err := t.txn.Set(indexKey(def.Name, idx.Name, v, pk), nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// dropIndexEntries removes every entry of one index.
func (t *Tx) dropIndexEntries(store, index string) error {
	var keys []string
	if err := t.txn.Iterate(indexPrefix(store, index), func(key string, _ []byte) error {
		keys = append(keys, key)
		return nil
	}); err != nil {
		return err
	}
	for _, k := range keys {
		if err := t.txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// backfillIndex writes entries of a newly created index for existing records.
func (t *Tx) backfillIndex(store string, idx IndexDef) error {
	return t.Scan(store, "", func(pk string, raw []byte) error {
		doc, err := decodeDoc(raw)
		if err != nil {
			return nil
		}
		for _, v := range indexValues(doc, idx) {
			if idx.Unique {
				if err := t.checkUnique(store, idx, v, pk); err != nil {
					return err
				}
			}
			if err := t.txn.Set(indexKey(store, idx.Name, v, pk), nil); err != nil {
				return err
			}
		}
		return nil
	})
}

func decodeDoc(raw []byte) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

type modelPtr[T any] interface {
	*T
	model.Model
}

// ScanAll decodes every record of store whose key starts with pkPrefix.
func ScanAll[T any, PT modelPtr[T]](tx *Tx, store, pkPrefix string) ([]T, error) {
	var out []T
	err := tx.Scan(store, pkPrefix, func(pk string, raw []byte) error {
		var v T
		if err := json.Unmarshal(raw, PT(&v)); err != nil {
			return fmt.Errorf("decode %s/%s: %w", store, pk, err)
		}
		PT(&v).SetKey(pk)
		out = append(out, v)
		return nil
	})
	return out, err
}

// IndexAll decodes the records reachable through index (see IndexScan).
func IndexAll[T any, PT modelPtr[T]](tx *Tx, store, index string, value any) ([]T, error) {
	var out []T
	err := tx.IndexScan(store, index, value, func(pk string, raw []byte) error {
		var v T
		if err := json.Unmarshal(raw, PT(&v)); err != nil {
			return fmt.Errorf("decode %s/%s: %w", store, pk, err)
		}
		PT(&v).SetKey(pk)
		out = append(out, v)
		return nil
	})
	return out, err
}
