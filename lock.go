// OS-level file locks for archives on disk.
//
// OpenFile holds a shared lock on the archive for as long as the Archive
// is open; BuildFile holds an exclusive lock while it truncates and
// rewrites the destination. A rebuild therefore waits for readers in
// other processes to close, and no reader parses a half-written file.
//
// flock(2) locks belong to the open file description, so a process that
// still has an archive open through OpenFile must Close it before calling
// BuildFile on the same path, or BuildFile blocks forever.
//
// Unlock drops the lock but keeps the handle; release also detaches it.
// BuildFile unlocks as soon as the data is written and leaves release to
// its deferred cleanup.
package solid

import (
	"os"
	"sync"
)

// LockMode selects shared (read) or exclusive (write) locking.
type LockMode int

const (
	LockShared LockMode = iota
	LockExclusive
)

// fileLock guards a handle's lock calls against release, so the
// descriptor is never used after the file has been closed.
type fileLock struct {
	mu     sync.Mutex
	f      *os.File
	locked bool
}

// Lock acquires the lock, blocking until it is available. It is a no-op
// after release.
func (l *fileLock) Lock(mode LockMode) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	if err := l.lock(mode); err != nil {
		return err
	}
	l.locked = true
	return nil
}

// Unlock releases the lock. It is a no-op after release.
func (l *fileLock) Unlock() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil || !l.locked {
		return nil
	}
	if err := l.unlock(); err != nil {
		return err
	}
	l.locked = false
	return nil
}

// release unlocks and detaches the handle. The caller closes the file.
func (l *fileLock) release() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	var err error
	if l.locked {
		err = l.unlock()
		l.locked = false
	}
	l.f = nil
	return err
}
