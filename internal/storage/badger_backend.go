// Package storage is the durable store gateway for mindstore: a schema-aware
// layer of object stores and secondary indexes over a pluggable ordered
// key/value Backend, with badger as the primary backend and an in-process
// map as the degraded-mode fallback.
package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/adrg/xdg"
	badger "github.com/dgraph-io/badger/v4"
)

// AppName is the application name used for data directories.
const AppName = "mindstore"

// DefaultPath returns the default database path following the XDG spec.
func DefaultPath() string {
	return filepath.Join(xdg.DataHome, AppName, "db")
}

// ErrBackendClosed is returned for transactions on a closed or unopened
// backend.
var ErrBackendClosed = stderrors.New("storage backend is not open")

// BadgerOptions configures the primary backend.
type BadgerOptions struct {
	// Path is the database directory. Empty means in-memory.
	Path string
	// InMemory forces in-memory mode regardless of Path.
	InMemory bool
	// MinFreeSpace is the free space Probe requires. Zero disables the check.
	MinFreeSpace uint64
}

func (o BadgerOptions) inMemory() bool {
	return o.InMemory || o.Path == ""
}

// BadgerBackend is the primary Backend.
type BadgerBackend struct {
	opts BadgerOptions

	mu   sync.RWMutex
	db   *badger.DB
	lock *FileLock
}

// NewBadgerBackend creates an unopened badger backend.
func NewBadgerBackend(opts BadgerOptions) *BadgerBackend {
	return &BadgerBackend{opts: opts}
}

func (b *BadgerBackend) Name() string {
	if b.opts.inMemory() {
		return "badger (in-memory)"
	}
	return "badger"
}

// Path returns the database directory, or "" when in memory.
func (b *BadgerBackend) Path() string {
	if b.opts.inMemory() {
		return ""
	}
	return b.opts.Path
}

// Probe checks that the data directory can be created, written and read
// back, and that enough disk space remains.
func (b *BadgerBackend) Probe(ctx context.Context) Availability {
	if b.opts.inMemory() {
		return Available
	}
	if err := ctx.Err(); err != nil {
		return Unavailable(reasonFor(err), err)
	}
	return probeDirectory(b.opts.Path, b.opts.MinFreeSpace)
}

// Open opens or creates the badger database.
func (b *BadgerBackend) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var (
		badgerOpts badger.Options
		lock       *FileLock
	)
	if b.opts.inMemory() {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(b.opts.Path, 0o700); err != nil {
			return err
		}
		lock = NewFileLock(b.opts.Path)
		if err := lock.Acquire(); err != nil {
			return NewLockError(err)
		}
		badgerOpts = badger.DefaultOptions(b.opts.Path)
	}
	badgerOpts = badgerOpts.WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		releaseLock(lock)
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db != nil {
		_ = db.Close()
		releaseLock(lock)
		return fmt.Errorf("badger backend already open")
	}
	b.db = db
	b.lock = lock
	return nil
}

func releaseLock(l *FileLock) {
	if l != nil {
		_ = l.Release()
	}
}

func (b *BadgerBackend) handle() (*badger.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.db == nil {
		return nil, ErrBackendClosed
	}
	return b.db, nil
}

func (b *BadgerBackend) View(fn func(Txn) error) error {
	db, err := b.handle()
	if err != nil {
		return err
	}
	return db.View(func(txn *badger.Txn) error {
		return fn(badgerTxn{txn})
	})
}

func (b *BadgerBackend) Update(fn func(Txn) error) error {
	db, err := b.handle()
	if err != nil {
		return err
	}
	return db.Update(func(txn *badger.Txn) error {
		return fn(badgerTxn{txn})
	})
}

// Close closes the database. Closing an unopened backend is a no-op.
func (b *BadgerBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	if b.lock != nil {
		if lockErr := b.lock.Release(); err == nil {
			err = lockErr
		}
		b.lock = nil
	}
	return err
}

// Badger returns the underlying database for backup and integrity checks.
func (b *BadgerBackend) Badger() *badger.DB {
	db, _ := b.handle()
	return db
}

type badgerTxn struct {
	txn *badger.Txn
}

func (t badgerTxn) Get(key string) ([]byte, error) {
	item, err := t.txn.Get([]byte(key))
	if err != nil {
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (t badgerTxn) Set(key string, value []byte) error {
	return t.txn.Set([]byte(key), value)
}

func (t badgerTxn) Delete(key string) error {
	return t.txn.Delete([]byte(key))
}

// Iterate copies the range before calling fn: badger allows only one live
// iterator per read-write transaction.
func (t badgerTxn) Iterate(prefix string, fn func(key string, value []byte) error) error {
	type kv struct {
		key   string
		value []byte
	}
	var batch []kv

	opts := badger.DefaultIteratorOptions
	opts.PrefetchSize = 100
	opts.Prefix = []byte(prefix)
	it := t.txn.NewIterator(opts)
	for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
		item := it.Item()
		val, err := item.ValueCopy(nil)
		if err != nil {
			it.Close()
			return err
		}
		batch = append(batch, kv{key: string(item.KeyCopy(nil)), value: val})
	}
	it.Close()

	for _, e := range batch {
		if err := fn(e.key, e.value); err != nil {
			return iterationDone(err)
		}
	}
	return nil
}
