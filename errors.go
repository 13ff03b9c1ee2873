package fieldcrypt

import "errors"

// Error taxonomy. Every error returned by this package matches exactly one of
// these via errors.Is, plus a more specific detail sentinel below.
var (
	// ErrKeyDerivation indicates the operator secret could not be turned into a key.
	ErrKeyDerivation = errors.New("fieldcrypt: key derivation failed")

	// ErrEncryption indicates a write-path failure. Callers must abort the record write.
	ErrEncryption = errors.New("fieldcrypt: encryption failed")

	// ErrDecryption indicates a read-path failure (bad format, wrong key, tampering).
	ErrDecryption = errors.New("fieldcrypt: decryption failed")
)

var (
	// ErrEmptySecret indicates the operator secret was empty.
	ErrEmptySecret = errors.New("fieldcrypt: secret must not be empty")

	// ErrFallbackSecret indicates the built-in development secret was used outside development.
	ErrFallbackSecret = errors.New("fieldcrypt: fallback secret is not allowed outside development")

	// ErrNilKey indicates a nil or closed DerivedKey.
	ErrNilKey = errors.New("fieldcrypt: key is nil or closed")

	// ErrInvalidFormat indicates the stored ciphertext or iv is malformed.
	ErrInvalidFormat = errors.New("fieldcrypt: invalid ciphertext format")

	// ErrAuthentication indicates the AEAD tag did not verify (wrong key or tampered data).
	ErrAuthentication = errors.New("fieldcrypt: authentication failed")

	// ErrDecompressionFailed indicates zstd decompression failed.
	ErrDecompressionFailed = errors.New("fieldcrypt: decompression failed")

	// ErrUnsupportedCompression indicates an unknown compression flag.
	ErrUnsupportedCompression = errors.New("fieldcrypt: unsupported compression algorithm")

	// ErrCodecClosed indicates the codec was used after Close() was called.
	ErrCodecClosed = errors.New("fieldcrypt: codec is closed")

	// ErrWasNull indicates the stored value was NULL.
	ErrWasNull = errors.New("fieldcrypt: value was null")

	// ErrNotResealable indicates a stored value could be neither decrypted nor decoded
	// as a placeholder, so it cannot be re-encrypted.
	ErrNotResealable = errors.New("fieldcrypt: value cannot be resealed")
)

// IsKeyDerivationError reports whether err is a key derivation failure.
func IsKeyDerivationError(err error) bool {
	return errors.Is(err, ErrKeyDerivation)
}

// IsEncryptionError reports whether err is a write-path failure.
func IsEncryptionError(err error) bool {
	return errors.Is(err, ErrEncryption)
}

// IsDecryptionError reports whether err is a read-path failure.
func IsDecryptionError(err error) bool {
	return errors.Is(err, ErrDecryption)
}

// PublicMessage maps any error from this package to a message that is safe to
// show to end users. Cryptographic detail never leaves the process.
func PublicMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case IsDecryptionError(err), errors.Is(err, ErrWasNull):
		return "could not retrieve record"
	case IsEncryptionError(err):
		return "could not save record"
	case IsKeyDerivationError(err), errors.Is(err, ErrFallbackSecret):
		return "service is not configured"
	default:
		return "internal error"
	}
}
