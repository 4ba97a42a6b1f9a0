package shmreg

// GetContainerPtr looks up path in the process-wide registry and returns the
// handle typed as T. It takes only the registry's read lock and never
// mutates the table.
//
// Returns ErrPathInvalid if path cannot be canonicalised, ErrNoRegister if
// no entry exists, ErrStatus if the entry exists but is not READY, and
// ErrType if the entry's concrete type does not match T.
func GetContainerPtr[T Container](path string) (T, error) {
	var zero T

	key, err := canonicalPath(path)
	if err != nil {
		return zero, err
	}

	entry, ok := globalRegistry.lookup(key)
	if !ok {
		return zero, ErrNoRegister
	}

	if entry.getStatus() != statusReady {
		return zero, ErrStatus
	}

	typed, ok := entry.handle.(T)
	if !ok {
		return zero, ErrType
	}

	return typed, nil
}
