// Package hasher computes the canonical content fingerprint for governance
// artifacts. The digest is SHA-256 over the exact byte sequence that is (or
// was) persisted; no normalization of any kind, so anyone can re-download the
// stored object and reproduce the hash.
package hasher

import (
	"crypto/sha256"
	"encoding/hex"
)

// HexLength is the length of an encoded digest.
const HexLength = 64

// Sum returns the lowercase hex SHA-256 digest of data. Pure and total;
// callers treat an empty input as an input error, not a hasher failure.
func Sum(data []byte) string {
	digest := sha256.Sum256(data)
	return hex.EncodeToString(digest[:])
}

// IsDigest reports whether s looks like a canonical digest: 64 lowercase hex
// characters.
func IsDigest(s string) bool {
	if len(s) != HexLength {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
