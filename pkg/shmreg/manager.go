package shmreg

import (
	"log/slog"
	"sync"
)

// ManagerOption configures optional behavior on a Manager at construction.
type ManagerOption func(*Manager)

// WithLogger overrides the logger a Manager Instance uses for its own
// advisory log lines. If this Manager is the one whose construction starts
// the process-wide Janitor (the 0->1 transition), the Janitor goroutine
// adopts the same logger for its sweep lines. Passing nil is a no-op;
// Managers default to slog.Default().
//
// Logging is advisory only: nothing in this package's correctness depends
// on whether a log line is ever observed.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Manager is a per-group façade through which user code registers
// containers and later releases them. It holds the local view of which
// canonical paths this instance has attached; the registry table itself is
// process-wide and shared across every Manager.
//
// A Manager must be closed with Close once it is no longer needed; Close
// releases every locally-owned entry and, once the last live Manager is
// closed, stops the Janitor.
type Manager struct {
	groupName string
	appID     int
	logger    *slog.Logger

	// mu is LOCAL: it guards local and serializes Register/Release calls on
	// this Manager. Lock ordering with the rest of the package: LOCAL ->
	// GLOBAL_RW -> INIT_EXCL.
	mu     sync.Mutex
	local  map[string]struct{}
	closed bool
}

// NewManager constructs a Manager Instance for groupName/appID and starts
// the process-wide Janitor if this is the first live Manager. By default
// advisory log lines go to slog.Default(); pass WithLogger to override.
func NewManager(groupName string, appID int, opts ...ManagerOption) *Manager {
	m := &Manager{
		groupName: groupName,
		appID:     appID,
		logger:    slog.Default(),
		local:     make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	janitorAcquire(m.logger)

	return m
}

// GroupName returns the group this Manager was constructed with.
func (m *Manager) GroupName() string { return m.groupName }

// AppID returns the app ID this Manager was constructed with.
func (m *Manager) AppID() int { return m.appID }

// ReleasePath transitions the single locally-owned entry for userPath to
// RELEASING, drops this Manager's local reference to it, and attempts an
// immediate reap. It is a no-op if userPath was never registered - or was
// already released - through this Manager. Like Release, an entry that
// cannot be reaped immediately (another concurrent holder still exists) is
// picked up by the next Janitor sweep.
func (m *Manager) ReleasePath(userPath string) error {
	key, err := canonicalPath(userPath)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.local[key]; !ok {
		return nil
	}

	globalRegistry.markReleasing(key)
	delete(m.local, key)

	globalRegistry.reap()

	return nil
}

// Release transitions every locally-owned entry to RELEASING, drops this
// Manager's local reference, and attempts an immediate reap. Entries that
// cannot be reaped immediately (another concurrent holder still exists) are
// picked up by the next Janitor sweep.
func (m *Manager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range m.local {
		globalRegistry.markReleasing(key)
		delete(m.local, key)
	}

	globalRegistry.reap()
}

// Close releases every locally-owned entry and, if this was the last live
// Manager, stops the Janitor. Close is idempotent.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}

	m.closed = true
	m.mu.Unlock()

	m.Release()
	janitorRelease()

	return nil
}
