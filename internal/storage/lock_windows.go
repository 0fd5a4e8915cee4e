//go:build windows

package storage

import (
	"os"
)

// flockAcquire is a no-op on windows: badger holds its own directory lock.
func flockAcquire(file *os.File) error {
	return nil
}

func flockRelease(file *os.File) error {
	return nil
}

// isProcessRunning checks if a process with the given PID is still running.
func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	var ws *os.ProcessState
	ws, err = process.Wait()
	if err != nil {
		// Unknown; treat as running.
		return true
	}
	return !ws.Exited()
}
