package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
	"sync"

	"github.com/calvinalkan/shmreg/pkg/shmreg"
)

// Set is a sorted fixed-key-size set backed by an mmap'd segment file. It
// satisfies shmreg.Container.
type Set struct {
	key        string
	segmentDir string
	keySize    int

	mu  sync.RWMutex
	seg *segment
}

// NewSet returns a shmreg.ContainerFactory that constructs Set instances
// with the given fixed key size.
func NewSet(segmentDir string, keySize int) shmreg.ContainerFactory[*Set] {
	return func(key, _ string, _ int) (*Set, error) {
		return &Set{key: key, segmentDir: segmentDir, keySize: keySize}, nil
	}
}

// Init opens (creating if necessary) the mmap'd segment file for this
// container's key.
func (s *Set) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seg, err := openSegment(s.segmentDir, s.key, headerSize)
	if err != nil {
		return fmt.Errorf("%w: %w", shmreg.ErrOOM, err)
	}

	s.seg = seg

	return nil
}

// IsExist reports whether the segment file already existed before Init.
func (s *Set) IsExist() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.seg.existed
}

// Load reads keySize-byte keys from the snapshot file at s.key, sorts and
// deduplicates them, and stores the result in the mmap'd segment.
func (s *Set) Load() error {
	raw, err := fsys.ReadFile(s.key)
	if err != nil {
		return fmt.Errorf("%w: %w", shmreg.ErrIOError, err)
	}

	if len(raw)%s.keySize != 0 {
		return fmt.Errorf("%w: snapshot size %d is not a multiple of key size %d", shmreg.ErrIOError, len(raw), s.keySize)
	}

	n := len(raw) / s.keySize
	keys := make([][]byte, n)

	for i := range n {
		keys[i] = raw[i*s.keySize : (i+1)*s.keySize]
	}

	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i], keys[j]) < 0 })

	deduped := keys[:0]

	for i, k := range keys {
		if i == 0 || !bytes.Equal(k, keys[i-1]) {
			deduped = append(deduped, k)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.seg.grow(headerSize + len(deduped)*s.keySize); err != nil {
		return fmt.Errorf("%w: %w", shmreg.ErrOOM, err)
	}

	offset := headerSize
	for _, k := range deduped {
		copy(s.seg.data[offset:offset+s.keySize], k)
		offset += s.keySize
	}

	binary.LittleEndian.PutUint64(s.seg.data[:headerSize], uint64(len(deduped)))

	return s.seg.sync()
}

// Destroy unmaps, closes and unlinks the segment.
func (s *Set) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seg != nil {
		s.seg.destroy()
	}
}

// Size returns the number of elements currently stored.
func (s *Set) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(binary.LittleEndian.Uint64(s.seg.data[:headerSize]))
}

// Contains reports whether key is a member, via binary search over the
// sorted key region.
func (s *Set) Contains(key []byte) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := int(binary.LittleEndian.Uint64(s.seg.data[:headerSize]))

	idx := sort.Search(n, func(i int) bool {
		start := headerSize + i*s.keySize
		return bytes.Compare(s.seg.data[start:start+s.keySize], key) >= 0
	})

	if idx >= n {
		return false
	}

	start := headerSize + idx*s.keySize

	return bytes.Equal(s.seg.data[start:start+s.keySize], key)
}
