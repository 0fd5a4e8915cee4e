package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/manav03panchal/mindstore/internal/errors"
)

const (
	// DefaultMinFreeSpace is the free space required before writing (10MB).
	DefaultMinFreeSpace = 10 * 1024 * 1024
	// MinFreeSpaceWarning is the threshold for a low-space warning (50MB).
	MinFreeSpaceWarning = 50 * 1024 * 1024
)

// DiskSpaceInfo contains information about available disk space.
type DiskSpaceInfo struct {
	Path       string
	TotalBytes uint64
	FreeBytes  uint64
	UsedBytes  uint64
}

// FreePercent returns the percentage of free space.
func (d *DiskSpaceInfo) FreePercent() float64 {
	if d.TotalBytes == 0 {
		return 0
	}
	return float64(d.FreeBytes) / float64(d.TotalBytes) * 100
}

// CheckDiskSpace fails with ErrDiskFull when less than minFree bytes are free
// at path. If free space cannot be measured the check passes.
func CheckDiskSpace(path string, minFree uint64) error {
	if minFree == 0 {
		return nil
	}
	info, err := GetDiskSpace(path)
	if err != nil {
		return nil
	}

	if info.FreeBytes < minFree {
		return errors.NewSystemError(
			fmt.Sprintf("insufficient disk space: %d MB free, need at least %d MB",
				info.FreeBytes/(1024*1024),
				minFree/(1024*1024)),
			errors.ErrDiskFull,
		)
	}
	return nil
}

// CheckDiskSpaceWarning returns a warning when free space is low, or "".
func CheckDiskSpaceWarning(path string) string {
	info, err := GetDiskSpace(path)
	if err != nil {
		return ""
	}
	if info.FreeBytes < MinFreeSpaceWarning {
		return fmt.Sprintf("Warning: Low disk space (%d MB free)", info.FreeBytes/(1024*1024))
	}
	return ""
}

// existingAncestor walks up from path to the nearest directory that exists.
func existingAncestor(path string) string {
	for {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(path)
		if parent == path {
			return path
		}
		path = parent
	}
}

// SafeWrite writes data to path atomically (temp file, fsync, rename) after
// a disk space check. Disk-full conditions surface as ErrDiskFull.
func SafeWrite(path string, data []byte, perm os.FileMode, minFree uint64) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		if isDiskFullError(err) {
			return errors.NewSystemErrorWithOp("mkdir", "disk full", errors.ErrDiskFull)
		}
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := CheckDiskSpace(dir, minFree); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(dir, ".mindstore-*.tmp")
	if err != nil {
		if isDiskFullError(err) {
			return errors.NewSystemErrorWithOp("create temp file", "disk full", errors.ErrDiskFull)
		}
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		if isDiskFullError(err) {
			return errors.NewSystemErrorWithOp("write", "disk full", errors.ErrDiskFull)
		}
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		if isDiskFullError(err) {
			return errors.NewSystemErrorWithOp("sync", "disk full", errors.ErrDiskFull)
		}
		return fmt.Errorf("failed to sync data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
