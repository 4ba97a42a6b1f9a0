package shmreg

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// VerifierFunc is a caller-supplied integrity-check predicate over a path
// and its expected digest. It returns true when the file matches.
type VerifierFunc func(path, expectedDigest string) bool

type checkEntry struct {
	digest   string
	verifier VerifierFunc
}

// globalCheckMap holds the (path -> expected digest, verifier) pairs known
// to the process, populated by VerifyFiles. verifyOneFile consults it during
// Register when a path has not yet been verified.
var globalCheckMap sync.Map // map[string]checkEntry

// globalVerified is the process-wide already-verified set (Global Invariant
// 5): a path appears here only once its digest has matched at least once.
type verifiedSet struct {
	m sync.Map
}

func (v *verifiedSet) has(path string) bool {
	_, ok := v.m.Load(path)
	return ok
}

func (v *verifiedSet) add(path string) {
	v.m.Store(path, struct{}{})
}

var globalVerified verifiedSet

// VerifyFiles checks every (path, expectedDigest) pair in expected using
// verifierFn, skipping paths already in the already-verified set. It spawns
// min(WorkerCount, remaining) worker goroutines that draw work from a shared
// counter and abort early on the first mismatch. verifierFn defaults to
// [DefaultMD5Verifier] when nil.
//
// Every path in expected is recorded in the per-process check map, whatever
// the outcome, so a later Register's verifyOneFile call can validate that
// single path without re-supplying its digest. On success every
// newly-checked path is also added to the already-verified set.
func VerifyFiles(expected map[string]string, verifierFn VerifierFunc, appID int) error {
	if verifierFn == nil {
		verifierFn = DefaultMD5Verifier
	}

	remaining := make([]string, 0, len(expected))

	for path, digest := range expected {
		globalCheckMap.Store(path, checkEntry{digest: digest, verifier: verifierFn})

		if !globalVerified.has(path) {
			remaining = append(remaining, path)
		}
	}

	if len(remaining) == 0 {
		return nil
	}

	workerCount := currentConfig().WorkerCount
	if workerCount > len(remaining) {
		workerCount = len(remaining)
	}

	var (
		nextIdx      atomic.Int64
		isCheckStop  atomic.Bool
		leftRunning  atomic.Int32
		resultsMu    sync.Mutex
		wg           sync.WaitGroup
		results      = make([]bool, len(remaining))
		mismatchPath string
	)

	leftRunning.Store(int32(workerCount))
	wg.Add(workerCount)

	for range workerCount {
		go func() {
			defer wg.Done()
			defer leftRunning.Add(-1)

			for {
				if isCheckStop.Load() {
					return
				}

				idx := int(nextIdx.Add(1) - 1)
				if idx >= len(remaining) {
					return
				}

				path := remaining[idx]
				ok := verifierFn(path, expected[path])

				resultsMu.Lock()
				results[idx] = ok
				resultsMu.Unlock()

				if !ok {
					if isCheckStop.CompareAndSwap(false, true) {
						mismatchPath = path
					}

					return
				}
			}
		}()
	}

	wg.Wait()

	if isCheckStop.Load() {
		slog.Default().Warn("shmreg: verify files digest mismatch", "path", mismatchPath, "appID", appID)

		return fmt.Errorf("%w: %s", ErrMismatch, mismatchPath)
	}

	for _, path := range remaining {
		globalVerified.add(path)
	}

	return nil
}

// verifyOneFile is the single-file variant consulted at Register step 5. It
// returns nil immediately if path is already verified. Otherwise it looks up
// path's expected digest and verifier in the process-wide check map; if no
// such entry exists there is nothing to validate against and verification is
// skipped (the caller never registered an expected digest for this path via
// VerifyFiles). logger receives an advisory line on a digest mismatch.
func verifyOneFile(logger *slog.Logger, path string) error {
	if globalVerified.has(path) {
		return nil
	}

	raw, ok := globalCheckMap.Load(path)
	if !ok {
		return nil
	}

	entry, ok := raw.(checkEntry)
	if !ok {
		return nil
	}

	if !entry.verifier(path, entry.digest) {
		logger.Warn("shmreg: verification failed during register", "path", path)

		return fmt.Errorf("%w: %s", ErrMismatch, path)
	}

	globalVerified.add(path)

	return nil
}
