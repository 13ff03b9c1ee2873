package fieldcrypt

import "fmt"

// DecodeKind tells callers which path SafeDecode took.
type DecodeKind int

const (
	// DecodeNull means no data was stored.
	DecodeNull DecodeKind = iota
	// DecodePlaceholder means the value was seed data, decoded without decryption.
	DecodePlaceholder
	// DecodeDecrypted means the value was real ciphertext and authenticated.
	DecodeDecrypted
	// DecodeRaw means decryption failed or the iv was missing; Value is the raw stored text.
	DecodeRaw
	// DecodeFailed means decryption failed under strict decoding; Value is empty.
	DecodeFailed
)

var decodeKindNames = map[DecodeKind]string{
	DecodeNull:        "null",
	DecodePlaceholder: "placeholder",
	DecodeDecrypted:   "decrypted",
	DecodeRaw:         "raw",
	DecodeFailed:      "failed",
}

func (k DecodeKind) String() string {
	if name, ok := decodeKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("DecodeKind(%d)", int(k))
}

// DecodeResult is the outcome of SafeDecode.
// Err is set only for DecodeRaw and DecodeFailed and always matches ErrDecryption.
type DecodeResult struct {
	Value string
	Kind  DecodeKind
	Err   error
}

// Ptr returns the value as a nullable string: nil for DecodeNull and DecodeFailed.
func (r DecodeResult) Ptr() *string {
	if r.Kind == DecodeNull || r.Kind == DecodeFailed {
		return nil
	}
	v := r.Value
	return &v
}

// Degraded reports whether the value did not come from a successful decryption
// or placeholder decode.
func (r DecodeResult) Degraded() bool {
	return r.Kind == DecodeRaw || r.Kind == DecodeFailed
}

// SafeDecode materializes a stored column pair for reading. It never returns
// an error; the decode path is reported in the result.
//
// Rules, first match wins:
//  1. ciphertext nil: DecodeNull.
//  2. ciphertext has PlaceholderPrefix: strip it, underscores become spaces.
//     No decryption is attempted, whatever iv holds.
//  3. iv present: decrypt; on success DecodeDecrypted.
//  4. otherwise, or if decryption failed: DecodeRaw with the stored text as is,
//     or DecodeFailed when the codec was built WithStrictDecode.
func (c *Codec) SafeDecode(ciphertext, iv *string) DecodeResult {
	if ciphertext == nil {
		return DecodeResult{Kind: DecodeNull}
	}
	if IsPlaceholder(*ciphertext) {
		return DecodeResult{Value: decodePlaceholder(*ciphertext), Kind: DecodePlaceholder}
	}

	var cause error
	if iv != nil && *iv != "" {
		plaintext, err := c.Decrypt(EncryptedField{Ciphertext: *ciphertext, IV: *iv})
		if err == nil {
			return DecodeResult{Value: plaintext, Kind: DecodeDecrypted}
		}
		cause = err
	} else {
		cause = fmt.Errorf("%w: %w: iv is missing", ErrDecryption, ErrInvalidFormat)
	}

	if c.config.strictDecode {
		c.config.logger.Warn().Err(cause).Str("decode", DecodeFailed.String()).Msg("rejected undecryptable field")
		return DecodeResult{Kind: DecodeFailed, Err: cause}
	}

	c.config.logger.Warn().Err(cause).Str("decode", DecodeRaw.String()).Msg("returning raw stored value for undecryptable field")
	return DecodeResult{Value: *ciphertext, Kind: DecodeRaw, Err: cause}
}

// SafeDecodeString is SafeDecode reduced to a nullable string.
func (c *Codec) SafeDecodeString(ciphertext, iv *string) *string {
	return c.SafeDecode(ciphertext, iv).Ptr()
}

// SafeDecode decodes a stored column pair with key using the default degrade behavior.
// A nil or closed key still lets NULL and placeholder values through; anything
// else comes back raw.
func SafeDecode(ciphertext, iv *string, key *DerivedKey) *string {
	if ciphertext == nil {
		return nil
	}
	if IsPlaceholder(*ciphertext) {
		v := decodePlaceholder(*ciphertext)
		return &v
	}
	c, err := New(key)
	if err != nil {
		v := *ciphertext
		return &v
	}
	return c.SafeDecodeString(ciphertext, iv)
}
