package shmreg

import (
	"crypto/md5" //nolint:gosec // digest algorithm is a caller-facing convenience, not a security boundary
	"encoding/hex"
	"io"

	"github.com/calvinalkan/shmreg/pkg/fs"
)

// verifierFS is the filesystem DefaultMD5Verifier reads through. It defaults
// to fs.Real and can be replaced with SetVerifierFS.
var verifierFS fs.FS = fs.NewReal()

// SetVerifierFS overrides the filesystem used by DefaultMD5Verifier.
// Passing nil restores fs.Real.
func SetVerifierFS(fsys fs.FS) {
	if fsys == nil {
		fsys = fs.NewReal()
	}

	verifierFS = fsys
}

// DefaultMD5Verifier is the convenience verifier used when a caller omits
// one. It is a thin wrapper, not part of the core lifecycle logic; callers
// with stronger integrity requirements should supply their own VerifierFunc.
func DefaultMD5Verifier(path, expectedDigest string) bool {
	f, err := verifierFS.Open(path) //nolint:gosec // path is caller-controlled by design
	if err != nil {
		return false
	}
	defer f.Close()

	h := md5.New() //nolint:gosec // see package comment
	if _, err := io.Copy(h, f); err != nil {
		return false
	}

	return hex.EncodeToString(h.Sum(nil)) == expectedDigest
}
