package container

import (
	"errors"
	"os"
	"path/filepath"
)

// DirLister returns a shmreg.SegmentLister that enumerates every *.seg file
// under dir and reports the canonical snapshot key each one was created
// for, so ClearUnregistered can compare it against the registry's own keys.
func DirLister(dir string) func(appID int) ([]string, error) {
	return func(int) ([]string, error) {
		entries, err := fsys.ReadDir(dir)
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		if err != nil {
			return nil, err
		}

		keys := make([]string, 0, len(entries))

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}

			key, ok := keyFromSegmentFileName(entry.Name())
			if !ok {
				continue
			}

			keys = append(keys, key)
		}

		return keys, nil
	}
}

// DirDestroyer returns a shmreg.SegmentDestroyer that removes the segment
// file corresponding to a canonical key outright.
func DirDestroyer(dir string) func(key string, appID int) error {
	return func(key string, _ int) error {
		path := filepath.Join(dir, segmentFileName(key))
		if err := fsys.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}

		return nil
	}
}
