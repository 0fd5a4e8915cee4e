//go:build !windows

package storage

import (
	stderrors "errors"
	"fmt"
	"syscall"
)

// GetDiskSpace returns disk space information for the nearest existing
// ancestor of path.
func GetDiskSpace(path string) (*DiskSpaceInfo, error) {
	path = existingAncestor(path)

	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return nil, fmt.Errorf("failed to get disk space: %w", err)
	}

	info := &DiskSpaceInfo{
		Path:       path,
		TotalBytes: stat.Blocks * uint64(stat.Bsize),
		FreeBytes:  stat.Bavail * uint64(stat.Bsize),
	}
	info.UsedBytes = info.TotalBytes - info.FreeBytes
	return info, nil
}

func isDiskFullError(err error) bool {
	var errno syscall.Errno
	return stderrors.As(err, &errno) && errno == syscall.ENOSPC
}

// isReadOnlyError matches the errors a write probe hits on a read-only or
// sandboxed data directory.
func isReadOnlyError(err error) bool {
	var errno syscall.Errno
	if !stderrors.As(err, &errno) {
		return false
	}
	return errno == syscall.EROFS || errno == syscall.EACCES || errno == syscall.EPERM
}
