package fieldcrypt

import "strings"

// PlaceholderPrefix marks seed/demo values that were never encrypted.
const PlaceholderPrefix = "enc_"

// EncodePlaceholder produces the seed-data encoding of value: the prefix
// followed by value with spaces replaced by underscores.
// Only data seeding should call this; normal write paths use Codec.Encrypt.
func EncodePlaceholder(value string) string {
	return PlaceholderPrefix + strings.ReplaceAll(value, " ", "_")
}

// IsPlaceholder reports whether a stored value is a seed placeholder.
// Real ciphertext is lowercase hex and never contains '_', so it cannot match.
func IsPlaceholder(stored string) bool {
	return strings.HasPrefix(stored, PlaceholderPrefix)
}

// decodePlaceholder reverses EncodePlaceholder. Underscores that were in the
// original value come back as spaces; the encoding is lossy by construction.
func decodePlaceholder(stored string) string {
	return strings.ReplaceAll(strings.TrimPrefix(stored, PlaceholderPrefix), "_", " ")
}
