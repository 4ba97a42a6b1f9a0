// Package fs provides a filesystem abstraction over [os], so callers can
// swap in a fake for tests without touching the real filesystem.
//
// The main types are:
//   - [FS]: interface for filesystem operations
//   - [File]: interface for open files (satisfied by [os.File])
//   - [Real]: production implementation using [os] package
//
// shmreg's containers use this package for snapshot reads ([Container.Load])
// and segment-directory bookkeeping (reclaiming orphaned segments); the
// default MD5 verifier uses it to open and hash snapshot files. Surfaces
// those callers don't need - writing, renaming, exclusive create - are not
// part of this package; mmap'd segment files always go through [os] directly
// since [golang.org/x/sys/unix.Mmap] needs a raw fd regardless of which File
// implementation opened it.
//
// Example usage:
//
//	fsys := fs.NewReal()
//	f, err := fsys.Open("snapshot.bin")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	data, _ := io.ReadAll(f)
package fs

import (
	"io"
	"os"
)

// File represents an open file descriptor opened for reading.
//
// This interface is satisfied by [os.File] and can be used with all
// standard library functions that accept [io.Reader] or [io.Closer].
type File interface {
	io.ReadCloser
}

// FS defines the read-side filesystem operations shmreg's containers and
// verifiers need.
//
// [Real] wraps the [os] package; tests provide their own fakes for the
// same interface.
type FS interface {
	// Open opens a file for reading. See [os.Open].
	Open(path string) (File, error)

	// ReadFile reads an entire file into memory. See [os.ReadFile].
	ReadFile(path string) ([]byte, error)

	// ReadDir reads a directory and returns its entries. See [os.ReadDir].
	// Entries are sorted by name.
	ReadDir(path string) ([]os.DirEntry, error)

	// MkdirAll creates a directory and all parents. See [os.MkdirAll].
	// No error if the directory already exists.
	MkdirAll(path string, perm os.FileMode) error

	// Stat returns file info. See [os.Stat].
	// Returns [os.ErrNotExist] if file doesn't exist.
	Stat(path string) (os.FileInfo, error)

	// Exists reports whether a file or directory exists.
	// Returns (false, nil) if not found, (false, err) on other errors.
	Exists(path string) (bool, error)

	// Remove deletes a file or empty directory. See [os.Remove].
	// Reclaiming an orphaned segment that's already gone is not an error;
	// callers check [os.ErrNotExist] themselves.
	Remove(path string) error
}

// Compile-time interface checks.
var _ File = (*os.File)(nil)
