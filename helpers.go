package fieldcrypt

import (
	"encoding/json"
	"fmt"
)

// SealedField holds an encrypted value together with its digest, for fields
// that are displayed and searched (Y_encrypted, Y_iv, Y_hash).
type SealedField struct {
	EncryptedField
	Hash string `json:"hash"`
}

// EncryptSearchable encrypts s and computes a normalized digest.
// The original string is preserved in the ciphertext; only the digest is normalized.
//
// Example:
//
//	sealed, err := codec.EncryptSearchable(" abc-123 ", NormalizeAccessCode)
//	// sealed.Ciphertext decrypts to " abc-123 "
//	// sealed.Hash == Hash("ABC123")
func (c *Codec) EncryptSearchable(s string, norm Normalizer) (*SealedField, error) {
	field, err := c.Encrypt(s)
	if err != nil {
		return nil, err
	}
	return &SealedField{
		EncryptedField: field,
		Hash:           HashNormalized(s, norm),
	}, nil
}

// EncryptPtr encrypts a nullable string.
// Returns nil if s is nil (NULL preservation).
func (c *Codec) EncryptPtr(s *string) (*EncryptedField, error) {
	if s == nil {
		return nil, nil
	}
	field, err := c.Encrypt(*s)
	if err != nil {
		return nil, err
	}
	return &field, nil
}

// DecryptPtr decrypts a nullable column pair strictly.
// Returns nil, nil when ciphertext is nil; a nil iv with data is a format error.
func (c *Codec) DecryptPtr(ciphertext, iv *string) (*string, error) {
	if ciphertext == nil {
		return nil, nil
	}
	if iv == nil {
		return nil, fmt.Errorf("%w: %w: iv is missing", ErrDecryption, ErrInvalidFormat)
	}
	s, err := c.Decrypt(EncryptedField{Ciphertext: *ciphertext, IV: *iv})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// DecryptRequired decrypts a column pair that must not be NULL.
// A nil ciphertext fails with ErrWasNull.
func (c *Codec) DecryptRequired(ciphertext, iv *string) (string, error) {
	if ciphertext == nil {
		return "", fmt.Errorf("%w: %w", ErrDecryption, ErrWasNull)
	}
	s, err := c.DecryptPtr(ciphertext, iv)
	if err != nil {
		return "", err
	}
	return *s, nil
}

// Columns returns the pair as nullable column values, ready for an INSERT.
func (f *EncryptedField) Columns() (ciphertext, iv *string) {
	if f == nil {
		return nil, nil
	}
	c, i := f.Ciphertext, f.IV
	return &c, &i
}

// EncryptJSON encrypts a JSON-serializable value.
func EncryptJSON[T any](c *Codec, data T) (EncryptedField, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return EncryptedField{}, fmt.Errorf("%w: %w", ErrEncryption, err)
	}
	return c.EncryptBytes(jsonBytes)
}

// DecryptJSON decrypts and unmarshals JSON data.
func DecryptJSON[T any](c *Codec, field EncryptedField) (T, error) {
	var zero T

	plaintext, err := c.DecryptBytes(field)
	if err != nil {
		return zero, err
	}

	var result T
	if err := json.Unmarshal(plaintext, &result); err != nil {
		return zero, fmt.Errorf("%w: %w: %w", ErrDecryption, ErrInvalidFormat, err)
	}
	return result, nil
}
