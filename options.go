package fieldcrypt

import "github.com/rs/zerolog"

// Option is a functional option for configuring a Codec.
type Option func(*config)

// config holds codec configuration options.
type config struct {
	compressionThreshold int
	compressionDisabled  bool
	strictDecode         bool
	logger               zerolog.Logger
}

// defaultConfig returns the default configuration.
func defaultConfig() *config {
	return &config{
		compressionThreshold: defaultCompressionThreshold,
		logger:               zerolog.Nop(),
	}
}

// WithCompressionThreshold sets the minimum size in bytes before compression is attempted.
// Default is 1024 (1KB). Values below 1 are ignored.
func WithCompressionThreshold(bytes int) Option {
	return func(c *config) {
		if bytes > 0 {
			c.compressionThreshold = bytes
		}
	}
}

// WithCompressionDisabled disables compression entirely.
func WithCompressionDisabled() Option {
	return func(c *config) {
		c.compressionDisabled = true
	}
}

// WithStrictDecode makes SafeDecode report DecodeFailed with an empty value
// instead of handing back the raw stored text when decryption fails.
// Placeholder and NULL handling are unchanged.
func WithStrictDecode() Option {
	return func(c *config) {
		c.strictDecode = true
	}
}

// WithLogger sets the logger used to report degraded reads.
// Log entries carry the failure cause, never plaintext or key material.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}
