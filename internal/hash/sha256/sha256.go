// Package sha256 fingerprints page bodies so identical content reached
// through different URLs is stored once.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// Digest returns the hex SHA-256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Set remembers digests that were already seen.
type Set struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{seen: make(map[string]struct{})}
}

// Add records the digest of data. It returns the digest and whether it was
// new.
func (s *Set) Add(data []byte) (string, bool) {
	d := Digest(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[d]; ok {
		return d, false
	}
	s.seen[d] = struct{}{}
	return d, true
}
