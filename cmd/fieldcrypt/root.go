package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ai8future/fieldcrypt"
	"github.com/ai8future/fieldcrypt/internal/config"
	"github.com/ai8future/fieldcrypt/internal/logger"
	"github.com/ai8future/fieldcrypt/internal/store"
)

// app carries what every subcommand needs once the root pre-run has loaded it.
type app struct {
	configPath string
	dotEnvPath string

	cfg    *config.Config
	logger *logger.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "fieldcrypt",
		Short:        "Encrypt, decode and hash sensitive record fields",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&a.dotEnvPath, "env-file", ".env", "path to a .env file (ignored if missing)")

	root.AddCommand(
		newEncryptCmd(a),
		newDecryptCmd(a),
		newDecodeCmd(a),
		newHashCmd(),
		newPlaceholderCmd(),
		newCreateCmd(a),
		newGetCmd(a),
		newListCmd(a),
		newSeedCmd(a),
		newLookupCmd(a),
		newMigrateCmd(a),
	)

	return root
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath, a.dotEnvPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger.NewLogger("fieldcrypt", cfg.LogLevel).Component(cmd.Name())
	cmd.SetContext(a.logger.WithContext(cmd.Context()))

	a.logger.Debug().
		Str("environment", cfg.Environment).
		Str("db_driver", cfg.DB.Driver).
		Msg("configuration loaded")
	return nil
}

func (a *app) codec() (*fieldcrypt.Codec, error) {
	codec, err := a.cfg.NewCodec(a.logger.Logger)
	if err != nil {
		a.logger.Err(err).Str("func", "app.codec").Msg("failed to build codec")
		return nil, err
	}
	return codec, nil
}

// repository opens the store and returns the repository with a cleanup func.
func (a *app) repository(ctx context.Context) (*store.PatientRepository, func(), error) {
	codec, err := a.codec()
	if err != nil {
		return nil, nil, err
	}

	db, err := store.Open(ctx, a.cfg.DB, a.logger)
	if err != nil {
		codec.Close()
		return nil, nil, err
	}

	cleanup := func() {
		codec.Close()
		db.Close()
	}
	return store.NewPatientRepository(db, codec, a.logger), cleanup, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("error encoding output: %w", err)
	}
	return nil
}

// optionalFlag returns the flag value, or nil if the flag was not given.
func optionalFlag(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return nil
	}
	return &v
}
