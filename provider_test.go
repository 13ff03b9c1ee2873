package fieldcrypt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type failingProvider struct{}

func (failingProvider) Secret() (string, error) {
	return "", errors.New("secrets manager unreachable")
}

func TestStaticSecretProvider(t *testing.T) {
	p := NewStaticSecretProvider("s3cret")
	secret, err := p.Secret()
	require.NoError(t, err)
	require.Equal(t, "s3cret", secret)
}

func TestResolveSecret(t *testing.T) {
	tests := []struct {
		name        string
		secret      string
		environment string
		want        string
		wantErr     error
	}{
		{"configured in production", "s3cret", "production", "s3cret", nil},
		{"configured in development", "s3cret", EnvironmentDevelopment, "s3cret", nil},
		{"unset in development uses fallback", "", EnvironmentDevelopment, FallbackSecret, nil},
		{"unset in production", "", "production", "", ErrEmptySecret},
		{"unset with no environment", "", "", "", ErrEmptySecret},
		{"fallback literal in production", FallbackSecret, "production", "", ErrFallbackSecret},
		{"fallback literal in development", FallbackSecret, EnvironmentDevelopment, FallbackSecret, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveSecret(NewStaticSecretProvider(tt.secret), tt.environment)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestResolveSecret_ProviderError(t *testing.T) {
	_, err := ResolveSecret(failingProvider{}, EnvironmentDevelopment)
	require.ErrorIs(t, err, ErrKeyDerivation)
}

func TestDeriveKeyFromProvider(t *testing.T) {
	key, _ := testKeys(t)

	got, err := DeriveKeyFromProvider(NewStaticSecretProvider("s3cret"), "production", nil)
	require.NoError(t, err)
	require.True(t, key.Equal(got))

	_, err = DeriveKeyFromProvider(NewStaticSecretProvider(""), "production", nil)
	require.ErrorIs(t, err, ErrEmptySecret)
}
