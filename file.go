// Archives on disk.
//
// Both helpers go through os.Root so that name cannot escape dir.
package solid

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// OpenFile opens the archive dir/name for reading and holds a shared
// lock on it until Close.
func OpenFile(dir, name string, config Config) (*Archive, error) {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	f, err := root.Open(name)
	if err != nil {
		root.Close()
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	lock := &fileLock{f: f}
	release := func() error {
		return errors.Join(lock.release(), f.Close(), root.Close())
	}

	if err := lock.Lock(LockShared); err != nil {
		f.Close()
		root.Close()
		return nil, fmt.Errorf("%w: lock: %w", ErrIO, err)
	}

	info, err := f.Stat()
	if err != nil {
		release()
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	a, err := open(f, info.Size(), config, release)
	if err != nil {
		release()
		return nil, err
	}
	return a, nil
}

// BuildFile builds the archive into dir/name, creating or truncating it
// under an exclusive lock. A failed build leaves whatever was written in
// place; the caller decides whether to remove it.
//
// The exclusive lock waits for every reader holding the file through
// OpenFile, including readers in this process. Calling BuildFile on a
// path this process still has open, for example to repack an archive
// onto itself, blocks forever: Close the reader first, or build to a
// different name and rename it over the original.
func (a *Archive) BuildFile(dir, name string) (*Report, error) {
	r := &Report{Algorithm: algName(a.config.HashAlgorithm)}
	if err := a.live(); err != nil {
		return r, err
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return r, fmt.Errorf("build: %w: %w", ErrIO, err)
	}
	defer root.Close()

	f, err := root.OpenFile(name, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return r, fmt.Errorf("build: %w: %w", ErrIO, err)
	}
	defer f.Close()

	lock := &fileLock{f: f}
	if err := lock.Lock(LockExclusive); err != nil {
		return r, fmt.Errorf("build: %w: lock: %w", ErrIO, err)
	}
	defer lock.release()

	if err := f.Truncate(0); err != nil {
		return r, fmt.Errorf("build: %w: %w", ErrIO, err)
	}

	r, err = a.Build(f)
	if err != nil {
		return r, err
	}

	if a.config.SyncWrites {
		if err := f.Sync(); err != nil {
			r.Success = false
			return r, fmt.Errorf("build: %w: sync: %w", ErrIO, err)
		}
	}
	// Readers waiting on the file may start once the data is complete.
	if err := lock.Unlock(); err != nil {
		r.Success = false
		return r, fmt.Errorf("build: %w: unlock: %w", ErrIO, err)
	}
	a.log.Debug("archive written", slog.String("name", name), slog.Int64("bytes", r.TotalBytes()))
	return r, nil
}
