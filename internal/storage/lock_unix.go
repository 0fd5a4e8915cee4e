//go:build !windows

package storage

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// flockAcquire takes an exclusive non-blocking flock.
func flockAcquire(file *os.File) error {
	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return ErrLockAlreadyHeld
		}
		return fmt.Errorf("%w: %v", ErrLockAcquireFailed, err)
	}
	return nil
}

func flockRelease(file *os.File) error {
	return syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
}

// isProcessRunning checks if a process with the given PID is still running.
func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// FindProcess always succeeds on unix; signal 0 probes existence.
	err = process.Signal(syscall.Signal(0))
	return err == nil
}
