package config

import (
	"errors"
	"fmt"
	"os"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load builds the configuration. yamlPath and dotEnvPath may be empty.
// A missing .env file is not an error; a missing YAML file that was asked for is.
//
// Precedence, highest first: process environment, .env file, YAML file, defaults.
// Sources are merged field by field and a zero value counts as unset, so an
// empty string or 0 from the environment cannot clear a value from the file.
// StrictDecode is a pointer so that an explicit false does override.
//
// The secret is not validated here; call ValidateCrypto (NewCodec does) before
// deriving a key.
func Load(yamlPath, dotEnvPath string) (*Config, error) {
	return newConfigBuilder().
		withDotEnv(dotEnvPath).
		withEnv().
		withYAML(yamlPath).
		build()
}

type configBuilder struct {
	configs []*Config
	err     error
}

func newConfigBuilder() *configBuilder {
	return &configBuilder{
		configs: make([]*Config, 0, 2),
	}
}

func (b *configBuilder) build() (*Config, error) {
	if b.err != nil {
		return nil, fmt.Errorf("error occurred during building config: %w", b.err)
	}

	cfg := new(Config)
	for _, c := range b.configs {
		// Without dereferencing, a set pointer from an earlier source is kept whole.
		if err := mergo.Merge(cfg, c, mergo.WithoutDereference); err != nil {
			return nil, fmt.Errorf("error merging configs: %w", err)
		}
	}
	cfg.applyDefaults()

	return cfg, cfg.Validate()
}

// withDotEnv loads a .env file into the process environment without
// overriding variables that are already set.
func (b *configBuilder) withDotEnv(path string) *configBuilder {
	if path == "" {
		return b
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return b
	}
	if err := godotenv.Load(path); err != nil {
		b.err = errors.Join(b.err, fmt.Errorf("error loading %s: %w", path, err))
	}
	return b
}

func (b *configBuilder) withEnv() *configBuilder {
	envCfg := &Config{}
	if err := env.ParseWithOptions(envCfg, env.Options{Prefix: EnvPrefix}); err != nil {
		b.err = errors.Join(b.err, fmt.Errorf("error getting env configs: %w", err))
		return b
	}

	b.configs = append(b.configs, envCfg)
	return b
}

func (b *configBuilder) withYAML(path string) *configBuilder {
	if path == "" {
		return b
	}

	data, err := os.ReadFile(path)
	if err != nil {
		b.err = errors.Join(b.err, fmt.Errorf("error reading config file: %w", err))
		return b
	}

	yamlCfg := &Config{}
	if err := yaml.Unmarshal(data, yamlCfg); err != nil {
		b.err = errors.Join(b.err, fmt.Errorf("error parsing config file %s: %w", path, err))
		return b
	}

	b.configs = append(b.configs, yamlCfg)
	return b
}
