package fieldcrypt

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()
	require.Equal(t, defaultCompressionThreshold, cfg.compressionThreshold)
	require.False(t, cfg.compressionDisabled)
	require.False(t, cfg.strictDecode)
}

func TestWithCompressionThreshold(t *testing.T) {
	cfg := defaultConfig()
	WithCompressionThreshold(64)(cfg)
	require.Equal(t, 64, cfg.compressionThreshold)

	WithCompressionThreshold(0)(cfg)
	require.Equal(t, 64, cfg.compressionThreshold, "non-positive values are ignored")
}

func TestWithCompressionDisabled(t *testing.T) {
	codec := testCodec(t, WithCompressionDisabled())

	field, err := codec.Encrypt(strings.Repeat("a", 4096))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(field.Ciphertext, "00"))
}

func TestWithCompressionThreshold_Applied(t *testing.T) {
	codec := testCodec(t, WithCompressionThreshold(32))

	field, err := codec.Encrypt(strings.Repeat("ab", 64))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(field.Ciphertext, "01"))

	plaintext, err := codec.Decrypt(field)
	require.NoError(t, err)
	require.Equal(t, strings.Repeat("ab", 64), plaintext)
}

func TestWithStrictDecode(t *testing.T) {
	cfg := defaultConfig()
	WithStrictDecode()(cfg)
	require.True(t, cfg.strictDecode)
}

func TestWithLogger(t *testing.T) {
	cfg := defaultConfig()
	logger := zerolog.New(nil).With().Str("component", "fieldcrypt").Logger()
	WithLogger(logger)(cfg)
	require.Equal(t, logger, cfg.logger)
}
