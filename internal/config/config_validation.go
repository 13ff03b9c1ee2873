package config

import (
	"fmt"

	"github.com/hengadev/errsx"
	"github.com/rs/zerolog"

	"github.com/ai8future/fieldcrypt"
)

var knownEnvironments = map[string]bool{
	fieldcrypt.EnvironmentDevelopment: true,
	"test":                            true,
	"staging":                         true,
	"production":                      true,
}

// Validate reports every configuration problem at once, keyed by setting.
// The secret is not checked here; commands that never touch a key, such as
// hashing, run without one. See ValidateCrypto.
func (c *Config) Validate() error {
	errs := errsx.Map{}

	if !knownEnvironments[c.Environment] {
		errs.Set("environment", fmt.Errorf("unknown environment %q", c.Environment))
	}

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs.Set("log_level", fmt.Errorf("unknown log level %q", c.LogLevel))
	}

	if c.Crypto.CompressionThreshold < 0 {
		errs.Set("crypto.compression_threshold", fmt.Errorf("must not be negative, got %d", c.Crypto.CompressionThreshold))
	}

	switch c.DB.Driver {
	case DriverSQLite, DriverPgx:
	default:
		errs.Set("db.driver", fmt.Errorf("unsupported driver %q, want %s or %s", c.DB.Driver, DriverSQLite, DriverPgx))
	}

	if c.DB.DSN == "" {
		errs.Set("db.dsn", "must not be empty")
	}

	return errs.AsError()
}

// ValidateCrypto checks the secret under the configured environment.
// It runs before any key is derived.
func (c *Config) ValidateCrypto() error {
	errs := errsx.Map{}

	if _, err := fieldcrypt.ResolveSecret(c.SecretProvider(), c.Environment); err != nil {
		errs.Set("crypto.secret", err)
	}

	return errs.AsError()
}
