package shmreg

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/natefinch/atomic"
)

// SaveVerifiedCache persists the current already-verified set to path as a
// JSON array, replacing the file atomically via a temp-file-plus-rename so a
// concurrent reader never observes a partially written cache.
func SaveVerifiedCache(path string) error {
	var paths []string

	globalVerified.m.Range(func(key, _ any) bool {
		if p, ok := key.(string); ok {
			paths = append(paths, p)
		}

		return true
	})

	buf, err := json.Marshal(paths)
	if err != nil {
		return err
	}

	return atomic.WriteFile(path, bytes.NewReader(buf))
}

// LoadVerifiedCache seeds the already-verified set from a cache file
// previously written by SaveVerifiedCache. A missing file is not an error:
// the set simply starts empty, and every path will be re-verified on its
// next VerifyFiles call.
func LoadVerifiedCache(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled by design
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return err
	}

	var paths []string
	if err := json.Unmarshal(data, &paths); err != nil {
		return err
	}

	for _, p := range paths {
		globalVerified.add(p)
	}

	return nil
}
