package main

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/shmreg/internal/config"
	"github.com/calvinalkan/shmreg/internal/container"
	"github.com/calvinalkan/shmreg/pkg/shmreg"
)

func newTestREPL(t *testing.T) *REPL {
	t.Helper()

	segDir := t.TempDir()
	mgr := shmreg.NewManager("shmregctl-test", 1)
	t.Cleanup(func() { _ = mgr.Close() })

	return &REPL{
		mgr:               mgr,
		segDir:            segDir,
		appID:             1,
		cfg:               config.DefaultConfig(),
		verifiedCachePath: filepath.Join(segDir, ".verified-cache.json"),
	}
}

func writeVectorSnapshot(t *testing.T, dir, name string, values ...uint64) string {
	t.Helper()

	buf := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:], v)
	}

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf, 0o600))

	return path
}

func writeSetSnapshot(t *testing.T, dir, name string, keys ...[4]byte) string {
	t.Helper()

	buf := make([]byte, 4*len(keys))
	for i, k := range keys {
		copy(buf[i*4:], k[:])
	}

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf, 0o600))

	return path
}

func Test_REPL_RegisterVec_Then_GetVec_Round_Trip(t *testing.T) {
	r := newTestREPL(t)
	dir := t.TempDir()
	path := writeVectorSnapshot(t, dir, "v.snap", 10, 20, 30)

	r.cmdRegisterVec([]string{path})

	vec, err := shmreg.GetContainerPtr[*container.Vector[uint64]](path)
	require.NoError(t, err)
	require.EqualValues(t, 3, vec.Size())
}

func Test_REPL_RegisterVec_Missing_Args_Does_Not_Register(t *testing.T) {
	r := newTestREPL(t)
	dir := t.TempDir()
	path := writeVectorSnapshot(t, dir, "never-registered.snap", 1)

	r.cmdRegisterVec(nil)

	_, err := shmreg.GetContainerPtr[*container.Vector[uint64]](path)
	require.ErrorIs(t, err, shmreg.ErrNoRegister)
}

func Test_REPL_RegisterSet_Then_GetSet_Round_Trip(t *testing.T) {
	r := newTestREPL(t)
	dir := t.TempDir()
	path := writeSetSnapshot(t, dir, "s.snap", [4]byte{0, 0, 0, 1}, [4]byte{0, 0, 0, 2})

	r.cmdRegisterSet([]string{path})

	set, err := shmreg.GetContainerPtr[*container.Set](path)
	require.NoError(t, err)
	require.EqualValues(t, 2, set.Size())
}

func Test_REPL_Release_Drops_Only_The_Named_Path(t *testing.T) {
	r := newTestREPL(t)
	dir := t.TempDir()
	pathA := writeVectorSnapshot(t, dir, "a.snap", 1)
	pathB := writeVectorSnapshot(t, dir, "b.snap", 2)

	r.cmdRegisterVec([]string{pathA})
	r.cmdRegisterVec([]string{pathB})

	r.cmdRelease([]string{pathA})

	_, err := shmreg.GetContainerPtr[*container.Vector[uint64]](pathA)
	require.ErrorIs(t, err, shmreg.ErrNoRegister)

	stillThere, err := shmreg.GetContainerPtr[*container.Vector[uint64]](pathB)
	require.NoError(t, err)
	require.EqualValues(t, 1, stillThere.Size())
}

func Test_REPL_Verify_Persists_Cache_On_Match(t *testing.T) {
	r := newTestREPL(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "verify-me.snap")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	// md5("hello")
	const digest = "5d41402abc4b2a76b9719d911017c592"

	r.cmdVerify([]string{path, digest})

	_, statErr := os.Stat(r.verifiedCachePath)
	require.NoError(t, statErr, "verify should persist the verified cache on a digest match")
}

func Test_REPL_Verify_Mismatch_Does_Not_Persist_Cache(t *testing.T) {
	r := newTestREPL(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "verify-mismatch.snap")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	r.cmdVerify([]string{path, "deadbeef"})

	_, statErr := os.Stat(r.verifiedCachePath)
	require.True(t, errors.Is(statErr, os.ErrNotExist))
}

func Test_Completer_Filters_By_Prefix(t *testing.T) {
	r := &REPL{}

	got := r.completer("reg")
	require.ElementsMatch(t, []string{"register-vec", "register-set"}, got)

	require.Empty(t, r.completer("nope"))
	require.Contains(t, r.completer(""), "help")
}
