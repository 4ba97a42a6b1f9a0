package container

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/calvinalkan/shmreg/pkg/fs"

	filelock "github.com/calvinalkan/shmreg/internal/fs"
)

// fsys is the filesystem used for snapshot reads and directory setup. It
// defaults to fs.Real; tests swap it for a fake to exercise I/O failures
// without touching the real filesystem. mmap'd segment files themselves
// always go through os directly, since unix.Mmap needs a raw fd regardless
// of which File implementation opened it.
var fsys fs.FS = fs.NewReal()

// SetFS overrides the filesystem used for snapshot reads and segment
// directory setup. Passing nil restores fs.Real.
func SetFS(f fs.FS) {
	if f == nil {
		f = fs.NewReal()
	}

	fsys = f
}

// segmentLocker serializes segment creation across OS processes sharing the
// same segment directory. Process-local Init calls are already serialized by
// shmreg's INIT_EXCL; this additionally protects the on-disk existed/create
// decision from a concurrent process doing the same thing for the same key,
// which shmreg's in-process lock cannot see.
var segmentLocker = filelock.NewLocker(filelock.NewReal())

// segmentFileName derives a segment filename that is reversible back to key
// via keyFromSegmentFileName, so DirLister can report orphaned segments in
// terms of the same canonical paths the registry uses as keys.
func segmentFileName(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key)) + ".seg"
}

func keyFromSegmentFileName(name string) (string, bool) {
	base := strings.TrimSuffix(name, ".seg")
	if base == name {
		return "", false
	}

	raw, err := base64.RawURLEncoding.DecodeString(base)
	if err != nil {
		return "", false
	}

	return string(raw), true
}

// segment is the mmap'd backing store shared by the example containers in
// this package. It is not part of shmreg's public surface; each container
// type wraps one to implement shmreg.Container.
type segment struct {
	fd      int
	data    []byte
	path    string
	existed bool
}

func openSegment(dir, key string, minSize int) (*segment, error) {
	if err := fsys.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}

	path := filepath.Join(dir, segmentFileName(key))

	lock, err := segmentLocker.Lock(path + ".lock")
	if err != nil {
		return nil, err
	}
	defer lock.Close()

	_, statErr := fsys.Stat(path)
	existed := statErr == nil

	//nolint:gosec // path is derived from a caller-supplied key, not attacker input
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	size := int(info.Size())
	if size < minSize {
		if err := f.Truncate(int64(minSize)); err != nil {
			_ = f.Close()
			return nil, err
		}

		size = minSize
	}

	fd := int(f.Fd())

	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	return &segment{fd: fd, data: data, path: path, existed: existed}, nil
}

func (s *segment) grow(newSize int) error {
	if len(s.data) >= newSize {
		return nil
	}

	if err := unix.Munmap(s.data); err != nil {
		return err
	}

	if err := unix.Ftruncate(s.fd, int64(newSize)); err != nil {
		return err
	}

	data, err := unix.Mmap(s.fd, 0, newSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return err
	}

	s.data = data

	return nil
}

func (s *segment) sync() error {
	return unix.Msync(s.data, unix.MS_SYNC)
}

func (s *segment) destroy() {
	if s.data != nil {
		_ = unix.Munmap(s.data)
		s.data = nil
	}

	if s.fd != 0 {
		_ = unix.Close(s.fd)
		s.fd = 0
	}

	if s.path != "" {
		_ = os.Remove(s.path)
	}
}
