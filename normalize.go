package fieldcrypt

import (
	"strings"
	"unicode"
)

// Normalizer transforms input strings into a canonical form before hashing.
// This enables case-insensitive or format-agnostic searches.
//
// IMPORTANT: Use the SAME normalizer on both write and search.
// Mixing normalizers breaks lookups.
type Normalizer func(string) string

// NormalizeNone is an identity normalizer that returns the input unchanged.
var NormalizeNone Normalizer = func(s string) string {
	return s
}

// NormalizeTrim trims leading and trailing whitespace only. Preserves case.
var NormalizeTrim Normalizer = func(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeLower lowercases without trimming.
var NormalizeLower Normalizer = func(s string) string {
	return strings.ToLower(s)
}

// NormalizeEmail normalizes email addresses for case-insensitive lookup.
//
// Example: " Ana@Hospital.ORG " -> "ana@hospital.org"
var NormalizeEmail Normalizer = func(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizePhone keeps ASCII digits only.
//
// Example: "+34 (600) 123-456" -> "34600123456"
var NormalizePhone Normalizer = func(s string) string {
	var digits strings.Builder
	digits.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	return digits.String()
}

// NormalizeAccessCode canonicalizes lab result access codes as patients type them:
// trimmed, uppercased, with spaces and dashes removed.
//
// Example: " abc-123 " -> "ABC123"
var NormalizeAccessCode Normalizer = func(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "-", "").Replace(s)
}

// NormalizeIdentity keeps letters and digits of an identity document number, uppercased.
//
// Example: "12.345.678-k" -> "12345678K"
var NormalizeIdentity Normalizer = func(s string) string {
	var out strings.Builder
	out.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			out.WriteRune(unicode.ToUpper(r))
		}
	}
	return out.String()
}
