// Package container provides example shared-memory-backed containers used to
// exercise shmreg.Container end to end. The on-disk snapshot format and the
// production container implementations are explicitly out of scope for
// shmreg itself; these are reference/test containers only, not a supported
// snapshot format.
package container

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/calvinalkan/shmreg/pkg/shmreg"
)

const headerSize = 8 // little-endian uint64 record/element count

// Vector is a fixed-record-size vector backed by an mmap'd segment file. It
// satisfies shmreg.Container.
//
// Unlike a production container it always unlinks its segment on Destroy:
// there is no real second process sharing it in this reference
// implementation, so decrement-only semantics would just leak files.
type Vector[T any] struct {
	key        string
	segmentDir string
	recordSize int

	encode func(T) []byte
	decode func([]byte) T

	mu  sync.RWMutex
	seg *segment
}

// New returns a shmreg.ContainerFactory that constructs Vector[T] instances
// with the given fixed record size and (encode, decode) pair.
func New[T any](segmentDir string, recordSize int, encode func(T) []byte, decode func([]byte) T) shmreg.ContainerFactory[*Vector[T]] {
	return func(key, _ string, _ int) (*Vector[T], error) {
		return &Vector[T]{
			key:        key,
			segmentDir: segmentDir,
			recordSize: recordSize,
			encode:     encode,
			decode:     decode,
		}, nil
	}
}

// Init opens (creating if necessary) the mmap'd segment file for this
// container's key. Returns shmreg.ErrOOM if the segment cannot be mapped.
func (v *Vector[T]) Init() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	seg, err := openSegment(v.segmentDir, v.key, headerSize)
	if err != nil {
		return fmt.Errorf("%w: %w", shmreg.ErrOOM, err)
	}

	v.seg = seg

	return nil
}

// IsExist reports whether the segment file already existed before Init.
func (v *Vector[T]) IsExist() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.seg.existed
}

// Load reads records from the snapshot file at v.key and copies them into
// the mmap'd segment right after the header, growing it via truncate+remap
// as needed.
func (v *Vector[T]) Load() error {
	raw, err := fsys.ReadFile(v.key)
	if err != nil {
		return fmt.Errorf("%w: %w", shmreg.ErrIOError, err)
	}

	if len(raw)%v.recordSize != 0 {
		return fmt.Errorf("%w: snapshot size %d is not a multiple of record size %d", shmreg.ErrIOError, len(raw), v.recordSize)
	}

	numRecords := len(raw) / v.recordSize

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.seg.grow(headerSize + numRecords*v.recordSize); err != nil {
		return fmt.Errorf("%w: %w", shmreg.ErrOOM, err)
	}

	copy(v.seg.data[headerSize:], raw)
	binary.LittleEndian.PutUint64(v.seg.data[:headerSize], uint64(numRecords))

	return v.seg.sync()
}

// Destroy unmaps, closes and unlinks the segment. See the type comment for
// why this reference implementation unlinks unconditionally.
func (v *Vector[T]) Destroy() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.seg != nil {
		v.seg.destroy()
	}
}

// Size returns the number of records currently stored.
func (v *Vector[T]) Size() int64 {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return int64(binary.LittleEndian.Uint64(v.seg.data[:headerSize]))
}

// At decodes the record at idx. Callers must ensure idx < Size().
func (v *Vector[T]) At(idx int64) T {
	v.mu.RLock()
	defer v.mu.RUnlock()

	start := headerSize + int(idx)*v.recordSize

	return v.decode(v.seg.data[start : start+v.recordSize])
}
