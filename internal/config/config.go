// Package config loads the fieldcrypt runtime configuration from an optional
// YAML file, an optional .env file and FIELDCRYPT_* environment variables.
// Environment variables win over the file.
package config

import (
	"github.com/rs/zerolog"

	"github.com/ai8future/fieldcrypt"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "FIELDCRYPT_"

// Defaults applied after loading.
const (
	DefaultEnvironment = "production"
	DefaultLogLevel    = "info"
	DefaultDriver      = DriverSQLite
	DefaultDSN         = "fieldcrypt.db"
)

// Supported database drivers.
const (
	DriverSQLite = "sqlite3"
	DriverPgx    = "pgx"
)

// Config is the top-level configuration container.
type Config struct {
	// Environment selects the secret policy; only "development" accepts the fallback secret.
	// Env: FIELDCRYPT_ENV
	Environment string `yaml:"environment" env:"ENV"`

	// LogLevel is a zerolog level name.
	// Env: FIELDCRYPT_LOG_LEVEL
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`

	Crypto Crypto `yaml:"crypto" envPrefix:"CRYPTO_"`
	DB     DB     `yaml:"db" envPrefix:"DB_"`
}

// Crypto holds the field encryption settings.
type Crypto struct {
	// Secret is the operator secret. Env: FIELDCRYPT_CRYPTO_SECRET
	Secret string `yaml:"secret" env:"SECRET"`

	// Salt overrides fieldcrypt.DefaultSalt. Changing it invalidates stored data.
	// Env: FIELDCRYPT_CRYPTO_SALT
	Salt string `yaml:"salt" env:"SALT"`

	// StrictDecode rejects undecryptable values instead of returning them raw.
	// Env: FIELDCRYPT_CRYPTO_STRICT_DECODE
	// Nil means unset, so an explicit false from the environment still wins over the file.
	StrictDecode *bool `yaml:"strict_decode" env:"STRICT_DECODE"`

	// CompressionThreshold is the plaintext size in bytes from which zstd is tried.
	// Env: FIELDCRYPT_CRYPTO_COMPRESSION_THRESHOLD
	CompressionThreshold int `yaml:"compression_threshold" env:"COMPRESSION_THRESHOLD"`
}

// DB holds the reference store connection settings.
type DB struct {
	// Driver is "sqlite3" or "pgx". Env: FIELDCRYPT_DB_DRIVER
	Driver string `yaml:"driver" env:"DRIVER"`

	// DSN is the driver-specific data source name. Env: FIELDCRYPT_DB_DSN
	DSN string `yaml:"dsn" env:"DSN"`
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = DefaultEnvironment
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.DB.Driver == "" {
		c.DB.Driver = DefaultDriver
	}
	if c.DB.DSN == "" {
		c.DB.DSN = DefaultDSN
	}
}

// SecretProvider exposes the configured secret to fieldcrypt.ResolveSecret.
func (c *Config) SecretProvider() fieldcrypt.SecretProvider {
	return fieldcrypt.NewStaticSecretProvider(c.Crypto.Secret)
}

// DeriveKey resolves the secret under the configured environment and derives the key.
func (c *Config) DeriveKey() (*fieldcrypt.DerivedKey, error) {
	var salt []byte
	if c.Crypto.Salt != "" {
		salt = []byte(c.Crypto.Salt)
	}
	return fieldcrypt.DeriveKeyFromProvider(c.SecretProvider(), c.Environment, salt)
}

// CodecOptions translates the crypto settings into codec options.
func (c *Config) CodecOptions(logger zerolog.Logger) []fieldcrypt.Option {
	opts := []fieldcrypt.Option{fieldcrypt.WithLogger(logger)}
	if c.Crypto.StrictDecode != nil && *c.Crypto.StrictDecode {
		opts = append(opts, fieldcrypt.WithStrictDecode())
	}
	if c.Crypto.CompressionThreshold > 0 {
		opts = append(opts, fieldcrypt.WithCompressionThreshold(c.Crypto.CompressionThreshold))
	}
	return opts
}

// NewCodec validates the secret, derives the key and builds a codec from this
// configuration. The derived key is zeroed once the codec holds its own copy.
func (c *Config) NewCodec(logger zerolog.Logger) (*fieldcrypt.Codec, error) {
	if err := c.ValidateCrypto(); err != nil {
		return nil, err
	}
	key, err := c.DeriveKey()
	if err != nil {
		return nil, err
	}
	defer key.Close()
	return fieldcrypt.New(key, c.CodecOptions(logger)...)
}
