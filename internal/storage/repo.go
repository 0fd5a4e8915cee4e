package storage

import (
	"context"
	stderrors "errors"

	"github.com/manav03panchal/mindstore/internal/errors"
	"github.com/manav03panchal/mindstore/internal/logging"
)

// Repositories share one policy: reads log the storage cause and return an
// empty result, writes return a typed error.

func readFailed(ctx context.Context, op, store string, err error) {
	logging.WarnContext(ctx, "read failed",
		logging.KeyOperation, op, logging.KeyStore, store, logging.KeyError, err)
}

// writeFailed passes domain errors through and wraps everything else as a
// persistence failure.
func writeFailed(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, domain := range []error{
		errors.ErrNotFound,
		errors.ErrConstraint,
		errors.ErrInvalidInput,
		errors.ErrDefaultSchemeProtected,
		errors.ErrUnavailable,
	} {
		if stderrors.Is(err, domain) {
			return err
		}
	}
	return errors.Persistence(op, "storage write failed", err)
}

// notFound reports a missing record as ErrNotFound.
func notFound(err error) bool {
	return IsErrKeyNotFound(err)
}
