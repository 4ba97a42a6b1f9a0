package shmreg

import "sync"

// SegmentLister enumerates the OS-level shared segments tagged with appID
// that a concrete container family has created, independent of whether they
// are currently known to the registry. Concrete container packages register
// one via SetSegmentReclaimer.
type SegmentLister func(appID int) ([]string, error)

// SegmentDestroyer unlinks the OS-level segment for path/appID outright.
// Unlike Container.Destroy (which only drops a reference), this permanently
// removes the segment.
type SegmentDestroyer func(path string, appID int) error

var (
	reclaimMu   sync.RWMutex
	listSegment SegmentLister
	killSegment SegmentDestroyer
)

// SetSegmentReclaimer installs the pluggable segment enumerator/destroyer
// used by ClearUnregistered. Passing nil for either disables
// ClearUnregistered, which then becomes a no-op (still idempotent).
func SetSegmentReclaimer(lister SegmentLister, destroyer SegmentDestroyer) {
	reclaimMu.Lock()
	listSegment = lister
	killSegment = destroyer
	reclaimMu.Unlock()
}

// ClearUnregistered enumerates every OS-level shared segment tagged with
// appID and destroys those not present as keys in the registry table. It is
// invoked implicitly once by Register on ErrOOM, and may also be called
// directly. ClearUnregistered is idempotent: a segment destroyed by one call
// is simply absent from the enumeration on the next.
func ClearUnregistered(appID int) error {
	reclaimMu.RLock()
	lister, destroyer := listSegment, killSegment
	reclaimMu.RUnlock()

	if lister == nil || destroyer == nil {
		return nil
	}

	segments, err := lister(appID)
	if err != nil {
		return err
	}

	registered := globalRegistry.snapshotKeys(appID)

	for _, seg := range segments {
		if _, ok := registered[seg]; ok {
			continue
		}

		if err := destroyer(seg, appID); err != nil {
			return err
		}
	}

	return nil
}

// ClearByFileList removes and destroys every registry entry for appID whose
// key is not in reserve, regardless of whether a Manager still locally
// references it. This is an explicit administrative eviction, not the
// graceful Release path.
func ClearByFileList(reserve map[string]struct{}, appID int) error {
	globalRegistry.forceRemove(appID, func(key string, _ *registryEntry) bool {
		_, keep := reserve[key]
		return !keep
	})

	return nil
}

// ClearByGroup removes and destroys every registry entry for appID whose
// group name is not in reserveGroups.
func ClearByGroup(reserveGroups map[string]struct{}, appID int) error {
	globalRegistry.forceRemove(appID, func(_ string, e *registryEntry) bool {
		_, keep := reserveGroups[e.groupName]
		return !keep
	})

	return nil
}
