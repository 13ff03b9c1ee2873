package fieldcrypt

import "fmt"

// Reseal re-encrypts a stored column pair with this codec.
// Use it to migrate seed placeholders to real ciphertext, one row at a time.
//
// Returns nil, nil if ciphertext is nil (NULL stays NULL).
// Returns ErrNotResealable if the value is neither a placeholder nor decryptable;
// raw stored text is never encrypted as if it were plaintext.
func (c *Codec) Reseal(ciphertext, iv *string) (*EncryptedField, error) {
	res := c.SafeDecode(ciphertext, iv)
	switch res.Kind {
	case DecodeNull:
		return nil, nil
	case DecodePlaceholder, DecodeDecrypted:
		field, err := c.Encrypt(res.Value)
		if err != nil {
			return nil, err
		}
		return &field, nil
	default:
		return nil, fmt.Errorf("%w: %w", ErrNotResealable, res.Err)
	}
}

// Rekey decrypts field with from and encrypts the plaintext with to.
// Use this when the operator secret rotates.
func Rekey(from, to *Codec, field EncryptedField) (EncryptedField, error) {
	plaintext, err := from.DecryptBytes(field)
	if err != nil {
		return EncryptedField{}, err
	}
	return to.EncryptBytes(plaintext)
}

// NeedsMigration reports whether a stored value is still a seed placeholder.
// Returns false for nil (NULL values don't need migration).
func NeedsMigration(ciphertext *string) bool {
	return ciphertext != nil && IsPlaceholder(*ciphertext)
}
