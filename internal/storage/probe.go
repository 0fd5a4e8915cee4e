package storage

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/manav03panchal/mindstore/internal/errors"
	"github.com/manav03panchal/mindstore/internal/model"
)

const probeFileName = ".mindstore-probe"

var probePayload = []byte("mindstore-probe")

// probeDirectory decides whether dir can host the primary store. It is the
// local analogue of feature-probing a browser: the directory must be a
// directory, must accept a write that reads back intact, and must have
// minFree bytes available.
func probeDirectory(dir string, minFree uint64) Availability {
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		return Unavailable(model.ReasonNotSupported,
			fmt.Errorf("%s exists and is not a directory", dir))
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return Unavailable(reasonFor(err), err)
	}

	if err := CheckDiskSpace(dir, minFree); err != nil {
		return Unavailable(model.ReasonQuotaExceeded, err)
	}

	probe := filepath.Join(dir, probeFileName)
	defer os.Remove(probe)

	if err := os.WriteFile(probe, probePayload, 0o600); err != nil {
		return Unavailable(reasonFor(err), err)
	}
	got, err := os.ReadFile(probe)
	if err != nil {
		return Unavailable(reasonFor(err), err)
	}
	if !bytes.Equal(got, probePayload) {
		return Unavailable(model.ReasonCorrupted, errors.ErrDatabaseCorrupted)
	}
	return Available
}

// reasonFor maps an open, probe or migration failure onto a Reason.
func reasonFor(err error) model.Reason {
	switch {
	case err == nil:
		return model.ReasonNone
	case stderrors.Is(err, context.DeadlineExceeded), stderrors.Is(err, errors.ErrTimeout):
		return model.ReasonTimeout
	case stderrors.Is(err, errors.ErrDiskFull), isDiskFullError(err):
		return model.ReasonQuotaExceeded
	case isReadOnlyError(err), stderrors.Is(err, os.ErrPermission):
		return model.ReasonPrivateBrowsing
	case IsDatabaseCorrupted(err):
		return model.ReasonCorrupted
	default:
		return model.ReasonError
	}
}
