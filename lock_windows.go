//go:build windows

package solid

import "golang.org/x/sys/windows"

// lockRange covers the whole file.
const lockRange = ^uint32(0)

func (l *fileLock) lock(mode LockMode) error {
	var flags uint32
	if mode == LockExclusive {
		flags = windows.LOCKFILE_EXCLUSIVE_LOCK
	}
	var ol windows.Overlapped
	return windows.LockFileEx(windows.Handle(l.f.Fd()), flags, 0, lockRange, lockRange, &ol)
}

func (l *fileLock) unlock() error {
	var ol windows.Overlapped
	return windows.UnlockFileEx(windows.Handle(l.f.Fd()), 0, lockRange, lockRange, &ol)
}
