package shmreg

import (
	"sync"
	"sync/atomic"
)

// entryStatus is the Lifecycle Coordinator's per-entry state.
type entryStatus int32

const (
	statusLoading entryStatus = iota
	statusReady
	statusReleasing
	statusDeleting
)

func (s entryStatus) String() string {
	switch s {
	case statusLoading:
		return "LOADING"
	case statusReady:
		return "READY"
	case statusReleasing:
		return "RELEASING"
	case statusDeleting:
		return "DELETING"
	default:
		return "UNKNOWN"
	}
}

// registryEntry is the process-wide record for one canonical path.
//
// refCount starts at 2 on insertion: one for the registry table itself, one
// for the Manager Instance that owns it locally. Release decrements it; once
// it drops to 1 (only the table holds it) the entry is eligible for
// reaping, either synchronously by Release or on the next Janitor sweep.
type registryEntry struct {
	handle    Container
	status    atomic.Int32
	groupName string
	appID     int
	refCount  atomic.Int32
}

func newRegistryEntry(handle Container, groupName string, appID int) *registryEntry {
	e := &registryEntry{handle: handle, groupName: groupName, appID: appID}
	e.status.Store(int32(statusLoading))
	e.refCount.Store(2)

	return e
}

func (e *registryEntry) getStatus() entryStatus {
	return entryStatus(e.status.Load())
}

func (e *registryEntry) setStatus(s entryStatus) {
	e.status.Store(int32(s))
}

// registry is the process-wide Registry Table: a single map protected by a
// readers/writer lock. It is the single source of truth for what is
// attached. Lock ordering with the rest of the package: LOCAL -> GLOBAL_RW ->
// INIT_EXCL; registry.mu is GLOBAL_RW.
type registry struct {
	mu      sync.RWMutex
	entries map[string]*registryEntry
}

func newRegistry() *registry {
	return &registry{entries: make(map[string]*registryEntry)}
}

var globalRegistry = newRegistry()

// initLock is INIT_EXCL: it serializes every call to a container's Init
// across the whole process, because opaque containers' shared-memory
// allocators are not assumed to be reentrant.
var initLock sync.Mutex

// insertLoading inserts a fresh LOADING entry for key. Returns
// ErrAlreadyExists if any entry for key exists already.
func (r *registry) insertLoading(key string, handle Container, groupName string, appID int) (*registryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[key]; exists {
		return nil, ErrAlreadyExists
	}

	entry := newRegistryEntry(handle, groupName, appID)
	r.entries[key] = entry

	return entry, nil
}

// removeLoading unconditionally drops key's entry, used on Register error
// paths where no reader should ever have observed the entry.
func (r *registry) removeLoading(key string) {
	r.mu.Lock()
	delete(r.entries, key)
	r.mu.Unlock()
}

// lookup returns key's entry under the read lock. Never mutates the table:
// see the Open Questions resolution in SPEC_FULL.md #9 about the original
// implementation's read-lock mutation race.
func (r *registry) lookup(key string) (*registryEntry, bool) {
	r.mu.RLock()
	entry, ok := r.entries[key]
	r.mu.RUnlock()

	return entry, ok
}

// markReleasing transitions key's entry to RELEASING and drops the local
// owner's reference. Returns the entry so the caller can attempt an
// immediate reap.
func (r *registry) markReleasing(key string) (*registryEntry, bool) {
	r.mu.Lock()
	entry, ok := r.entries[key]
	r.mu.Unlock()

	if !ok {
		return nil, false
	}

	entry.setStatus(statusReleasing)
	entry.refCount.Add(-1)

	return entry, true
}

// reap removes every entry in RELEASING/DELETING whose refcount has dropped
// to 1 (only the table holds it) and destroys the underlying container.
// Handles are destroyed outside the write lock so a slow Destroy never
// blocks readers.
func (r *registry) reap() int {
	var doomed []Container

	r.mu.Lock()

	for key, entry := range r.entries {
		status := entry.getStatus()
		if (status == statusReleasing || status == statusDeleting) && entry.refCount.Load() <= 1 {
			doomed = append(doomed, entry.handle)
			delete(r.entries, key)
		}
	}

	r.mu.Unlock()

	for _, handle := range doomed {
		handle.Destroy()
	}

	return len(doomed)
}

// forceRemove immediately deletes every entry with appID matched by match,
// regardless of its refcount, and destroys its handle. Used by the explicit
// cleanup surface (ClearByFileList, ClearByGroup) which overrides normal
// owner-refcount protection because the caller asked for eviction outright.
func (r *registry) forceRemove(appID int, match func(key string, e *registryEntry) bool) int {
	var doomed []Container

	r.mu.Lock()

	for key, entry := range r.entries {
		if entry.appID != appID || !match(key, entry) {
			continue
		}

		entry.setStatus(statusDeleting)
		doomed = append(doomed, entry.handle)
		delete(r.entries, key)
	}

	r.mu.Unlock()

	for _, handle := range doomed {
		handle.Destroy()
	}

	return len(doomed)
}

// snapshotKeys returns the set of canonical paths currently registered for
// appID, used by ClearUnregistered to decide which OS-level segments are
// orphaned.
func (r *registry) snapshotKeys(appID int) map[string]struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make(map[string]struct{}, len(r.entries))

	for key, entry := range r.entries {
		if entry.appID == appID {
			keys[key] = struct{}{}
		}
	}

	return keys
}
