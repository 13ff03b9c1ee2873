package fieldcrypt

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"io"
	"sync/atomic"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/scrypt"
)

// Derivation parameters. Changing any of these invalidates every stored ciphertext.
const (
	infoEncryption = "fieldcrypt-field-encryption"

	scryptN = 1 << 14
	scryptR = 8
	scryptP = 1

	keySize = 32
)

// DefaultSalt is the fixed salt used by DeriveKey.
var DefaultSalt = []byte("fieldcrypt-salt")

// DerivedKey is the symmetric key produced from an operator secret.
// It is read-only after derivation and safe for concurrent use.
type DerivedKey struct {
	encryption [keySize]byte
	closed     atomic.Bool
}

// DeriveKey derives a field encryption key from secret using DefaultSalt.
// The same secret always yields the same key.
func DeriveKey(secret string) (*DerivedKey, error) {
	return DeriveKeyWithSalt(secret, DefaultSalt)
}

// DeriveKeyWithSalt derives a field encryption key from secret and salt.
//
// The derivation is two-step:
//   - master = scrypt(secret, salt, N=16384, r=8, p=1) stretches the low-entropy secret
//   - key = HKDF-SHA256(master, info="fieldcrypt-field-encryption") separates purposes
func DeriveKeyWithSalt(secret string, salt []byte) (*DerivedKey, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: %w", ErrKeyDerivation, ErrEmptySecret)
	}

	master, err := scrypt.Key([]byte(secret), salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyDerivation, err)
	}
	defer zero(master)

	key := &DerivedKey{}
	if err := hkdfDerive(master, infoEncryption, key.encryption[:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyDerivation, err)
	}
	return key, nil
}

// hkdfDerive performs HKDF-SHA256 key derivation with the given info string.
// No salt is used; scrypt already salted the master key.
func hkdfDerive(master []byte, info string, out []byte) error {
	reader := hkdf.New(sha256.New, master, nil, []byte(info))
	_, err := io.ReadFull(reader, out)
	return err
}

// Equal reports whether both keys hold the same material, in constant time.
func (k *DerivedKey) Equal(other *DerivedKey) bool {
	if k == nil || other == nil {
		return k == other
	}
	return subtle.ConstantTimeCompare(k.encryption[:], other.encryption[:]) == 1
}

// Close zeros out the key material.
// Codecs built from this key keep working with their own copy.
func (k *DerivedKey) Close() {
	if k == nil {
		return
	}
	k.closed.Store(true)
	zero(k.encryption[:])
}

func (k *DerivedKey) usable() bool {
	return k != nil && !k.closed.Load()
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
