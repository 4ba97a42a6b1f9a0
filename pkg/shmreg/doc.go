// Package shmreg is a process-local registry and lifecycle manager for
// shared-memory-backed immutable containers loaded from on-disk snapshot
// files.
//
// Multiple processes on the same host may attach to the same file. Within
// one process, shmreg deduplicates attachments, validates file integrity
// before attach, and coordinates release and eviction of segments that are
// no longer needed.
//
// A [Container] is an opaque capability: shmreg never inspects its concrete
// type except through the generic [Register] and [GetContainerPtr]
// accessors. The snapshot file format and the concrete container
// implementations are not part of this package; see internal/container for
// example implementations used in tests.
//
// Errors fall into input errors ([ErrPathInvalid], [ErrType]), contention
// errors ([ErrAlreadyExists], [ErrNoRegister], [ErrStatus]), resource errors
// ([ErrOOM], recovered automatically once), integrity errors ([ErrMismatch],
// [ErrIOError]), and unexpected faults ([ErrException]).
package shmreg
