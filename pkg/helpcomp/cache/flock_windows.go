//go:build windows

package cache

import (
	"os"

	"golang.org/x/sys/windows"
)

const lockfileExclusiveLock = 0x00000002

// lockFile locks the first byte of the cache lock file, shared or
// exclusive.
func lockFile(file *os.File, exclusive bool) error {
	var flags uint32
	if exclusive {
		flags = lockfileExclusiveLock
	}
	ol := new(windows.Overlapped)
	return windows.LockFileEx(windows.Handle(file.Fd()), flags, 0, 1, 0, ol)
}

func unlockFile(file *os.File) error {
	ol := new(windows.Overlapped)
	return windows.UnlockFileEx(windows.Handle(file.Fd()), 0, 1, 0, ol)
}
