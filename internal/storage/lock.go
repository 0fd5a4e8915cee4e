package storage

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LockFileName is the name of the lock file in the database directory.
const LockFileName = "mindstore.lock"

var (
	// ErrLockAcquireFailed is returned when the lock cannot be acquired.
	ErrLockAcquireFailed = stderrors.New("failed to acquire database lock")
	// ErrLockAlreadyHeld is returned when another process holds the lock.
	ErrLockAlreadyHeld = stderrors.New("database is locked by another process")
)

// FileLock keeps a second mindstore process from opening the same database
// directory. The holder's PID is written to the file so a stale lock can be
// detected and reported.
type FileLock struct {
	path string
	file *os.File
}

// NewFileLock creates a lock in dir.
func NewFileLock(dir string) *FileLock {
	return &FileLock{path: filepath.Join(dir, LockFileName)}
}

// Acquire takes the lock without blocking.
func (l *FileLock) Acquire() error {
	if err := l.cleanStaleLock(); err != nil {
		return err
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLockAcquireFailed, err)
	}

	if err := flockAcquire(file); err != nil {
		file.Close()
		if stderrors.Is(err, ErrLockAlreadyHeld) {
			if pid := l.readPID(); pid > 0 {
				return fmt.Errorf("%w: PID %d", ErrLockAlreadyHeld, pid)
			}
		}
		return err
	}

	if err := writePID(file); err != nil {
		_ = flockRelease(file)
		file.Close()
		return fmt.Errorf("%w: %v", ErrLockAcquireFailed, err)
	}

	l.file = file
	return nil
}

func writePID(file *os.File) error {
	if err := file.Truncate(0); err != nil {
		return err
	}
	if _, err := file.Seek(0, 0); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(file, "%d", os.Getpid()); err != nil {
		return err
	}
	return file.Sync()
}

// Release releases the lock and removes the lock file. Releasing twice is a
// no-op.
func (l *FileLock) Release() error {
	if l.file == nil {
		return nil
	}
	file := l.file
	l.file = nil

	if err := flockRelease(file); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// cleanStaleLock removes a lock file whose PID no longer runs.
func (l *FileLock) cleanStaleLock() error {
	pid := l.readPID()
	if pid <= 0 || pid == os.Getpid() || isProcessRunning(pid) {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clean stale lock: %v", err)
	}
	return nil
}

// readPID returns the PID recorded in the lock file, or 0.
func (l *FileLock) readPID() int {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}

// LockError reports a lock failure with the holder's PID when known.
type LockError struct {
	Err error
	PID int
}

func (e *LockError) Error() string {
	if e.PID > 0 {
		return fmt.Sprintf("cannot open database: another mindstore process (PID %d) is using it", e.PID)
	}
	return fmt.Sprintf("cannot open database: %v", e.Err)
}

func (e *LockError) Unwrap() error {
	return e.Err
}

// NewLockError wraps err, extracting the PID from an ErrLockAlreadyHeld
// message.
func NewLockError(err error) *LockError {
	lockErr := &LockError{Err: err}
	if stderrors.Is(err, ErrLockAlreadyHeld) {
		if _, after, ok := strings.Cut(err.Error(), "PID "); ok {
			if pid, parseErr := strconv.Atoi(strings.TrimSpace(after)); parseErr == nil {
				lockErr.PID = pid
			}
		}
	}
	return lockErr
}
