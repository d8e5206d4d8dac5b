// Package lock provides advisory, file-backed reader/writer locks shared
// across processes.
//
// Cross-process exclusion is delegated to flock(2) via github.com/gofrs/flock:
// readers take the shared mode, writers the exclusive mode, and a lock held
// by a process that dies is released by the kernel, so stale lockfiles never
// need manual reclamation.
//
// A process-global registry indexes live locks by path so that an invocation
// already holding a lock may re-enter it without blocking. This is the one
// legitimate process-global in the engine: a spawned child inherits lock
// metadata through the filesystem, and the parent must not deadlock against
// itself.
package lock

import (
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

type entry struct {
	mu      sync.Mutex
	f       *flock.Flock
	readers int
	writer  bool
}

var (
	regMu    sync.Mutex
	registry = map[string]*entry{}
)

func get(path string) *entry {
	key := filepath.Clean(path)
	regMu.Lock()
	defer regMu.Unlock()
	e, ok := registry[key]
	if !ok {
		e = &entry{f: flock.New(key)}
		registry[key] = e
	}
	return e
}

// ReaderAcquire blocks until no writer holds path, then returns a release
// func. Many readers may hold the same path concurrently. If this process
// already holds the path (reader or writer), the acquire re-enters without
// touching the file lock.
func ReaderAcquire(path string) (func(), error) {
	e := get(path)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.writer {
		// Own-PID skip: a writer in this process implies read access.
		return func() {}, nil
	}
	if e.readers == 0 {
		if err := e.f.RLock(); err != nil {
			return nil, err
		}
	}
	e.readers++

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.readers--
			if e.readers == 0 && !e.writer {
				_ = e.f.Unlock()
			}
		})
	}, nil
}

// WriterAcquire blocks until no reader or writer holds path, then returns a
// release func. Invoking the release drops back to a shared lock if this
// process still has readers, else unlocks fully. Re-entry by a process
// already holding the writer returns a no-op release.
func WriterAcquire(path string) (func(), error) {
	e := get(path)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.writer {
		return func() {}, nil
	}
	// flock converts an existing shared lock on the same descriptor to
	// exclusive, so in-process readers do not deadlock the upgrade.
	if err := e.f.Lock(); err != nil {
		return nil, err
	}
	e.writer = true

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.writer = false
			if e.readers > 0 {
				_ = e.f.RLock()
			} else {
				_ = e.f.Unlock()
			}
		})
	}, nil
}

// HasWriter is a non-blocking probe for an active writer on path. It is
// used by the autoupdater to avoid piling on while a swap is in flight.
func HasWriter(path string) (bool, error) {
	e := get(path)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.writer {
		return true, nil
	}
	if e.readers > 0 {
		// Shared mode is already held here, so no writer can be.
		return false, nil
	}
	ok, err := e.f.TryRLock()
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	_ = e.f.Unlock()
	return false, nil
}
