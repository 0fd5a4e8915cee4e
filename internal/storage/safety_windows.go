//go:build windows

package storage

import (
	stderrors "errors"
	"fmt"
	"syscall"
	"unsafe"
)

var (
	kernel32            = syscall.NewLazyDLL("kernel32.dll")
	getDiskFreeSpaceExW = kernel32.NewProc("GetDiskFreeSpaceExW")
)

const (
	errorAccessDenied   = syscall.Errno(5)
	errorWriteProtect   = syscall.Errno(19)
	errorDiskFull       = syscall.Errno(112)
	errorHandleDiskFull = syscall.Errno(39)
)

// GetDiskSpace returns disk space information for the nearest existing
// ancestor of path.
func GetDiskSpace(path string) (*DiskSpaceInfo, error) {
	path = existingAncestor(path)

	pathPtr, err := syscall.UTF16PtrFromString(path)
	if err != nil {
		return nil, fmt.Errorf("failed to convert path: %w", err)
	}

	var freeBytesAvailable, totalBytes, totalFreeBytes uint64
	ret, _, err := getDiskFreeSpaceExW.Call(
		uintptr(unsafe.Pointer(pathPtr)),
		uintptr(unsafe.Pointer(&freeBytesAvailable)),
		uintptr(unsafe.Pointer(&totalBytes)),
		uintptr(unsafe.Pointer(&totalFreeBytes)),
	)
	if ret == 0 {
		return nil, fmt.Errorf("failed to get disk space: %w", err)
	}

	info := &DiskSpaceInfo{
		Path:       path,
		TotalBytes: totalBytes,
		FreeBytes:  freeBytesAvailable,
	}
	info.UsedBytes = info.TotalBytes - info.FreeBytes
	return info, nil
}

func isDiskFullError(err error) bool {
	var errno syscall.Errno
	return stderrors.As(err, &errno) && (errno == errorDiskFull || errno == errorHandleDiskFull)
}

func isReadOnlyError(err error) bool {
	var errno syscall.Errno
	return stderrors.As(err, &errno) && (errno == errorAccessDenied || errno == errorWriteProtect)
}
