// Package sha1 provides SHA-1 hashing utilities.
package sha1

import (
	"crypto/sha1" // #nosec G505 -- digests name files, they are not a security boundary.
	"encoding/hex"
)

// Hasher implements scraper.Hasher using SHA-1. PDF filenames are derived
// from the digest of the download URL, so the digest must be stable across
// runs; it carries no security meaning.
type Hasher struct{}

// New returns a SHA-1 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash hashes the input and returns a hex digest.
func (h *Hasher) Hash(data []byte) (string, error) {
	sum := sha1.Sum(data) // #nosec G401
	return hex.EncodeToString(sum[:]), nil
}
