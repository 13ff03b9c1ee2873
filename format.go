package fieldcrypt

import (
	"encoding/hex"
	"fmt"
)

// Stored ciphertext format (before hex encoding):
// [flag:1][xchacha20poly1305(payload, aad=flag)]
//
// Flag byte values:
//   0x00 = no compression
//   0x01 = zstd compressed
//
// The flag is passed as additional data so flipping it fails authentication.
// The iv column holds the hex-encoded 24-byte nonce.

const (
	flagNoCompression byte = 0x00
	flagZstd          byte = 0x01

	nonceSize = 24
	tagSize   = 16
)

// EncryptedField is one encrypted value as it is stored: two sibling text
// columns, X_encrypted and X_iv.
type EncryptedField struct {
	Ciphertext string `json:"ciphertext"`
	IV         string `json:"iv"`
}

// formatCiphertext assembles and hex-encodes the stored ciphertext.
func formatCiphertext(flag byte, sealed []byte) string {
	raw := make([]byte, 0, 1+len(sealed))
	raw = append(raw, flag)
	raw = append(raw, sealed...)
	return hex.EncodeToString(raw)
}

// parseField decodes a stored field into flag, nonce and sealed payload.
func parseField(field EncryptedField) (flag byte, nonce []byte, sealed []byte, err error) {
	if !isLowerHex(field.IV) {
		err = fmt.Errorf("%w: iv is not lowercase hex", ErrInvalidFormat)
		return
	}
	nonce, err = hex.DecodeString(field.IV)
	if err != nil {
		err = fmt.Errorf("%w: iv is not hex", ErrInvalidFormat)
		return
	}
	if len(nonce) != nonceSize {
		err = fmt.Errorf("%w: iv must be %d bytes, got %d", ErrInvalidFormat, nonceSize, len(nonce))
		return
	}

	if !isLowerHex(field.Ciphertext) {
		err = fmt.Errorf("%w: ciphertext is not lowercase hex", ErrInvalidFormat)
		return
	}
	raw, err := hex.DecodeString(field.Ciphertext)
	if err != nil {
		err = fmt.Errorf("%w: ciphertext is not hex", ErrInvalidFormat)
		return
	}
	// Minimum size: flag(1) + tag(16); an empty plaintext seals to the tag alone.
	if len(raw) < 1+tagSize {
		err = fmt.Errorf("%w: ciphertext too short", ErrInvalidFormat)
		return
	}

	flag = raw[0]
	sealed = raw[1:]
	return
}

// isLowerHex reports whether s uses only the digits and letters that
// hex.EncodeToString emits.
func isLowerHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
