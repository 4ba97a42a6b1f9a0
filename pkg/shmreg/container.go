package shmreg

// Container is the capability set exposed by an opaque shared-memory-backed
// container. Concrete implementations live outside this package; shmreg
// treats every Container as an opaque handle and never inspects its fields.
//
// Implementations must be safe to call Init, IsExist, Load, Destroy and Size
// from the goroutine that owns a single Register call; shmreg itself
// serializes all Init calls process-wide (see the package-level initLock).
type Container interface {
	// Init prepares the container for the key it was constructed with. It
	// may allocate the shared segment. Returns ErrOOM if the shared-memory
	// allocator is exhausted.
	Init() error

	// IsExist reports whether a live OS-side shared segment for this
	// container's key already exists, created by this or another process.
	IsExist() bool

	// Load reads the snapshot file and attaches it to the segment reported
	// by Init. Only called when IsExist returned false.
	Load() error

	// Destroy releases this container's reference to its shared segment.
	// Destroy must not unlink the segment unless the caller is an explicit
	// cleanup operation (ClearUnregistered, ClearByFileList, ClearByGroup).
	Destroy()

	// Size returns the number of elements in the container. Only meaningful
	// once the container is READY.
	Size() int64
}

// ContainerFactory constructs a new, un-initialized Container bound to key,
// groupName and appID. Register calls this exactly once per call that gets
// past path resolution on an open Manager, before the LOADING entry is
// inserted, so a Register that ends in ErrAlreadyExists has called it too.
type ContainerFactory[T Container] func(key, groupName string, appID int) (T, error)
