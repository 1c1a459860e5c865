// Package sha256 derives digests for scrape cache keys and archived asset
// names.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher implements adforge.Hasher. Digests are lower-case hex, optionally
// namespaced as "<prefix>:<hex>".
type Hasher struct {
	prefix string
}

// New returns a hasher producing bare hex digests.
func New() *Hasher {
	return &Hasher{}
}

// WithPrefix returns a hasher whose digests live under prefix, so keys from
// different features can share one Redis database.
func WithPrefix(prefix string) *Hasher {
	return &Hasher{prefix: prefix}
}

// Hash hashes the input and returns its digest.
func (h *Hasher) Hash(data []byte) (string, error) {
	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])
	if h.prefix == "" {
		return digest, nil
	}
	return h.prefix + ":" + digest, nil
}
