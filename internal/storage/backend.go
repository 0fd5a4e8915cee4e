package storage

import (
	"context"
	stderrors "errors"

	"github.com/manav03panchal/mindstore/internal/errors"
	"github.com/manav03panchal/mindstore/internal/model"
)

// ErrKeyNotFound is returned by Txn.Get and the Gateway when a key is
// absent. It matches errors.ErrNotFound.
var ErrKeyNotFound = &keyNotFoundError{}

type keyNotFoundError struct{}

func (*keyNotFoundError) Error() string { return "key not found" }
func (*keyNotFoundError) Unwrap() error { return errors.ErrNotFound }

// IsErrKeyNotFound reports whether err is a missing-key error.
func IsErrKeyNotFound(err error) bool {
	return stderrors.Is(err, ErrKeyNotFound)
}

// Availability is the outcome of Backend.Probe.
type Availability struct {
	OK     bool
	Reason model.Reason
	Err    error
}

// Available is the Availability of a usable backend.
var Available = Availability{OK: true}

// Unavailable builds a failed Availability.
func Unavailable(reason model.Reason, err error) Availability {
	return Availability{Reason: reason, Err: err}
}

// Backend is a transactional ordered key/value store. The Gateway selects one
// at Init time: the badger store normally, the memory store in degraded mode.
type Backend interface {
	// Name identifies the backend in status output and logs.
	Name() string
	// Probe checks the environment without opening the store.
	Probe(ctx context.Context) Availability
	// Open makes the backend ready for transactions.
	Open(ctx context.Context) error
	// View runs fn in a read-only transaction.
	View(fn func(Txn) error) error
	// Update runs fn in a read-write transaction. Writes are applied only if
	// fn returns nil.
	Update(fn func(Txn) error) error
	Close() error
}

// Txn is a single backend transaction.
type Txn interface {
	// Get returns a copy of the value, or ErrKeyNotFound.
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
	// Iterate calls fn for each key with prefix in ascending key order. The
	// range is snapshotted first, so fn may write to the transaction.
	Iterate(prefix string, fn func(key string, value []byte) error) error
}

// errStopIteration lets a callback end an Iterate early without failing.
var errStopIteration = stderrors.New("stop iteration")

func iterationDone(err error) error {
	if stderrors.Is(err, errStopIteration) {
		return nil
	}
	return err
}
