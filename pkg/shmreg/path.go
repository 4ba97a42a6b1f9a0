package shmreg

import (
	"fmt"
	"path/filepath"
)

// canonicalPath resolves userPath to an absolute, symlink-resolved form
// used as the registry key. Resolving an already-canonical path returns it
// unchanged.
func canonicalPath(userPath string) (string, error) {
	abs, err := filepath.Abs(userPath)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrPathInvalid, userPath, err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrPathInvalid, userPath, err)
	}

	return resolved, nil
}
