package fieldcrypt

import (
	"fmt"
)

// FallbackSecret is the well-known secret used when none is configured in
// development. It is public and offers no protection; ResolveSecret rejects
// it everywhere else.
const FallbackSecret = "hospital-dev-secret-change-me"

// EnvironmentDevelopment is the only environment that accepts FallbackSecret.
const EnvironmentDevelopment = "development"

// SecretProvider supplies the operator secret once at startup.
// Implement this interface to integrate with an external secrets manager.
type SecretProvider interface {
	// Secret returns the operator secret. An empty string means "not configured".
	Secret() (string, error)
}

// StaticSecretProvider is a simple in-memory implementation of SecretProvider.
// Useful for testing or for secrets already loaded into configuration.
type StaticSecretProvider struct {
	secret string
}

// NewStaticSecretProvider creates a StaticSecretProvider holding secret.
func NewStaticSecretProvider(secret string) *StaticSecretProvider {
	return &StaticSecretProvider{secret: secret}
}

// Secret implements SecretProvider.
func (p *StaticSecretProvider) Secret() (string, error) {
	return p.secret, nil
}

// ResolveSecret fetches the secret from p and applies the fallback policy:
// an unset secret becomes FallbackSecret in development and an error elsewhere,
// and FallbackSecret itself is refused outside development.
func ResolveSecret(p SecretProvider, environment string) (string, error) {
	secret, err := p.Secret()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrKeyDerivation, err)
	}

	dev := environment == EnvironmentDevelopment
	switch {
	case secret == "" && dev:
		return FallbackSecret, nil
	case secret == "":
		return "", fmt.Errorf("%w: %w", ErrKeyDerivation, ErrEmptySecret)
	case secret == FallbackSecret && !dev:
		return "", fmt.Errorf("%w: %w", ErrKeyDerivation, ErrFallbackSecret)
	}
	return secret, nil
}

// DeriveKeyFromProvider resolves the secret from p and derives a key from it.
func DeriveKeyFromProvider(p SecretProvider, environment string, salt []byte) (*DerivedKey, error) {
	secret, err := ResolveSecret(p, environment)
	if err != nil {
		return nil, err
	}
	if len(salt) == 0 {
		salt = DefaultSalt
	}
	return DeriveKeyWithSalt(secret, salt)
}
