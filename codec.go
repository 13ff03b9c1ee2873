package fieldcrypt

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"

	"golang.org/x/crypto/chacha20poly1305"
)

// Codec encrypts and decrypts individual record fields with one DerivedKey.
// It is safe for concurrent use.
type Codec struct {
	aead   cipher.AEAD
	config *config
	closed atomic.Bool
}

// New creates a Codec for key.
// The codec keeps its own copy of the key; closing key afterwards does not affect it.
//
// Example:
//
//	key, err := fieldcrypt.DeriveKey(secret)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	codec, err := fieldcrypt.New(key, fieldcrypt.WithLogger(logger))
func New(key *DerivedKey, opts ...Option) (*Codec, error) {
	if !key.usable() {
		return nil, fmt.Errorf("%w: %w", ErrEncryption, ErrNilKey)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	aead, err := chacha20poly1305.NewX(key.encryption[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncryption, err)
	}

	return &Codec{
		aead:   aead,
		config: cfg,
	}, nil
}

// NewFromSecret derives a key from secret and creates a Codec for it.
// The intermediate key is zeroed before returning.
func NewFromSecret(secret string, opts ...Option) (*Codec, error) {
	key, err := DeriveKey(secret)
	if err != nil {
		return nil, err
	}
	defer key.Close()
	return New(key, opts...)
}

// Encrypt encrypts plaintext with a fresh random iv.
// Empty plaintext is valid and yields a non-empty ciphertext.
func (c *Codec) Encrypt(plaintext string) (EncryptedField, error) {
	return c.EncryptBytes([]byte(plaintext))
}

// EncryptBytes encrypts raw bytes with a fresh random iv.
func (c *Codec) EncryptBytes(plaintext []byte) (EncryptedField, error) {
	if c.closed.Load() {
		return EncryptedField{}, fmt.Errorf("%w: %w", ErrEncryption, ErrCodecClosed)
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return EncryptedField{}, fmt.Errorf("%w: generating iv: %w", ErrEncryption, err)
	}

	payload, flag := maybeCompress(plaintext, c.config.compressionThreshold, c.config.compressionDisabled)
	sealed := c.aead.Seal(nil, nonce, payload, []byte{flag})

	return EncryptedField{
		Ciphertext: formatCiphertext(flag, sealed),
		IV:         hex.EncodeToString(nonce),
	}, nil
}

// Decrypt reverses Encrypt. Tampered data, a wrong key or a malformed field
// fail with ErrDecryption; garbage is never returned.
func (c *Codec) Decrypt(field EncryptedField) (string, error) {
	plaintext, err := c.DecryptBytes(field)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// DecryptBytes reverses EncryptBytes.
func (c *Codec) DecryptBytes(field EncryptedField) ([]byte, error) {
	if c.closed.Load() {
		return nil, fmt.Errorf("%w: %w", ErrDecryption, ErrCodecClosed)
	}

	flag, nonce, sealed, err := parseField(field)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryption, err)
	}

	payload, err := c.aead.Open(nil, nonce, sealed, []byte{flag})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryption, ErrAuthentication)
	}

	plaintext, err := decompress(payload, flag)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryption, err)
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}

// Close marks the codec unusable. Subsequent calls fail with ErrCodecClosed.
func (c *Codec) Close() {
	c.closed.Store(true)
}

// Encrypt encrypts plaintext with key.
// Prefer a long-lived Codec on hot paths; this builds one per call.
func Encrypt(plaintext string, key *DerivedKey) (EncryptedField, error) {
	c, err := New(key)
	if err != nil {
		return EncryptedField{}, err
	}
	return c.Encrypt(plaintext)
}

// Decrypt decrypts field with key.
func Decrypt(field EncryptedField, key *DerivedKey) (string, error) {
	c, err := New(key)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecryption, ErrNilKey)
	}
	return c.Decrypt(field)
}
