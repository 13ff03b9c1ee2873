package fieldcrypt

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashSize is the length of a hex-encoded digest.
const HashSize = sha256.Size * 2

// Hash computes the deterministic digest of plaintext: lowercase hex SHA-256.
// It is stored in Y_hash columns so rows can be matched by equality without
// decrypting them.
//
// Hash takes no key. Lookups such as "find patient by access code" run before
// the caller is authenticated, so no per-request key is available.
func Hash(plaintext string) string {
	return HashBytes([]byte(plaintext))
}

// HashBytes computes the digest of raw bytes.
func HashBytes(plaintext []byte) string {
	sum := sha256.Sum256(plaintext)
	return hex.EncodeToString(sum[:])
}

// HashNormalized normalizes plaintext before hashing.
// Use the same normalizer on write and on search.
func HashNormalized(plaintext string, norm Normalizer) string {
	return Hash(norm(plaintext))
}

// VerifyHash reports whether digest is the digest of plaintext.
func VerifyHash(plaintext, digest string) bool {
	return subtle.ConstantTimeCompare([]byte(Hash(plaintext)), []byte(digest)) == 1
}
