package storage

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/manav03panchal/mindstore/internal/errors"
	"github.com/manav03panchal/mindstore/internal/logging"
)

// RecoveryStatus is the result of an integrity check.
type RecoveryStatus struct {
	Healthy    bool      `json:"healthy"`
	Corrupted  bool      `json:"corrupted"`
	LastCheck  time.Time `json:"last_check"`
	Checked    int       `json:"checked"`
	ErrorCount int       `json:"error_count"`
	Errors     []string  `json:"errors,omitempty"`
}

// integritySample bounds how many values CheckIntegrity reads.
const integritySample = 1000

// CheckIntegrity reads a sample of values from an open badger backend.
func CheckIntegrity(b *BadgerBackend) *RecoveryStatus {
	status := &RecoveryStatus{LastCheck: time.Now(), Healthy: true}

	db := b.Badger()
	if db == nil {
		status.Healthy = false
		status.Errors = append(status.Errors, "database not open")
		return status
	}

	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchSize = 10
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid() && status.Checked < integritySample; it.Next() {
			item := it.Item()
			if err := item.Value(func([]byte) error { return nil }); err != nil {
				status.Errors = append(status.Errors, fmt.Sprintf("unreadable value at key %q: %v", item.Key(), err))
				status.ErrorCount++
			}
			status.Checked++
		}
		return nil
	})
	if err != nil {
		status.Errors = append(status.Errors, fmt.Sprintf("iteration error: %v", err))
		status.ErrorCount++
	}

	if status.ErrorCount > 0 {
		status.Healthy = false
		status.Corrupted = true
	}
	return status
}

// DefaultBackupDir returns the directory backups are written to.
func DefaultBackupDir(dbPath string) string {
	return filepath.Join(filepath.Dir(dbPath), "backups")
}

// CreateBackup streams a full badger backup into dir and returns its path.
func CreateBackup(b *BadgerBackend, dir string) (string, error) {
	db := b.Badger()
	if db == nil {
		return "", errors.NewSystemError("database is not open", errors.ErrUnavailable)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("mindstore-%s.bak", time.Now().Format("20060102-150405")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}

	if _, err := db.Backup(f, 0); err != nil {
		f.Close()
		os.Remove(path)
		if isDiskFullError(err) {
			return "", errors.NewSystemErrorWithOp("backup", "disk full", errors.ErrDiskFull)
		}
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close backup file: %w", err)
	}

	logging.Info("database backup created", logging.KeyOperation, "backup", "path", path)
	return path, nil
}

var corruptionPatterns = []string{
	"checksum mismatch",
	"corrupt",
	"unexpected eof",
	"bad magic",
	"truncated",
	"manifest has unsupported version",
}

// IsDatabaseCorrupted reports whether err indicates on-disk corruption.
func IsDatabaseCorrupted(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, errors.ErrDatabaseCorrupted) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range corruptionPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
