package shmreg

import "errors"

// Sentinel errors returned by shmreg operations.
//
// Callers should use [errors.Is] to check error types:
//
//	if errors.Is(err, shmreg.ErrAlreadyExists) {
//	    // another goroutine is attaching this path; back off
//	}
var (
	// ErrOOM indicates a container failed to initialize due to shared-memory
	// exhaustion.
	//
	// Recovery: Register already retries once after ClearUnregistered; if
	// this error still escapes, the process-wide segment budget is exhausted
	// and the caller must free space itself before retrying.
	ErrOOM = errors.New("shmreg: out of shared memory")

	// ErrPathInvalid indicates the supplied path could not be canonicalised.
	//
	// Recovery: fix the path; this is a caller error.
	ErrPathInvalid = errors.New("shmreg: invalid path")

	// ErrNoRegister indicates no entry exists for the given key.
	//
	// Recovery: call Register first.
	ErrNoRegister = errors.New("shmreg: not registered")

	// ErrStatus indicates an entry exists but is not READY.
	//
	// Recovery: retry after the in-flight Register/Release completes.
	ErrStatus = errors.New("shmreg: entry not ready")

	// ErrType indicates the registered handle's concrete type does not match
	// the type requested by the caller.
	//
	// This is a programming error.
	ErrType = errors.New("shmreg: type mismatch")

	// ErrException indicates a panic was recovered during Register.
	//
	// The in-flight handle was destroyed and no entry was left in the
	// registry.
	ErrException = errors.New("shmreg: exception during register")

	// ErrMismatch indicates a file failed verification against its expected
	// digest.
	//
	// Recovery: the affected path is not added to the already-verified set;
	// fix the snapshot file or the expected digest and retry.
	ErrMismatch = errors.New("shmreg: verification mismatch")

	// ErrIOError indicates a snapshot file could not be read, for reasons
	// unrelated to content mismatch. Container implementations return it from
	// Load. VerifyFiles does not return it: a VerifierFunc reports only
	// true or false, so a file the verifier could not open is reported as
	// ErrMismatch.
	//
	// Recovery: fix the underlying I/O condition and retry.
	ErrIOError = errors.New("shmreg: verification io error")

	// ErrAlreadyExists indicates a concurrent or prior Register already
	// claimed this key.
	//
	// Recovery: call GetContainerPtr to observe the winning registration, or
	// treat this as a no-op.
	ErrAlreadyExists = errors.New("shmreg: already registered")

	// ErrClosed indicates an operation was attempted on a Manager that has
	// already been closed with Close. Release alone does not close a Manager.
	ErrClosed = errors.New("shmreg: manager closed")
)
