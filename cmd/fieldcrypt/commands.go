package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ai8future/fieldcrypt"
	"github.com/ai8future/fieldcrypt/internal/store"
)

var normalizers = map[string]fieldcrypt.Normalizer{
	"none":        fieldcrypt.NormalizeNone,
	"trim":        fieldcrypt.NormalizeTrim,
	"lower":       fieldcrypt.NormalizeLower,
	"email":       fieldcrypt.NormalizeEmail,
	"phone":       fieldcrypt.NormalizePhone,
	"access-code": fieldcrypt.NormalizeAccessCode,
	"identity":    fieldcrypt.NormalizeIdentity,
}

func normalizerNames() string {
	names := make([]string, 0, len(normalizers))
	for name := range normalizers {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// valueArg returns the single positional argument, or all of stdin when none is given.
func valueArg(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("error reading stdin: %w", err)
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}

func newEncryptCmd(a *app) *cobra.Command {
	var searchable string

	cmd := &cobra.Command{
		Use:   "encrypt [value]",
		Short: "Encrypt a value and print the ciphertext/iv pair as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := valueArg(cmd, args)
			if err != nil {
				return err
			}
			codec, err := a.codec()
			if err != nil {
				return err
			}
			defer codec.Close()

			if searchable != "" {
				norm, ok := normalizers[searchable]
				if !ok {
					return fmt.Errorf("unknown normalizer %q, want one of: %s", searchable, normalizerNames())
				}
				sealed, err := codec.EncryptSearchable(value, norm)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), sealed)
			}

			field, err := codec.Encrypt(value)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), field)
		},
	}

	cmd.Flags().StringVar(&searchable, "searchable", "", "also print the digest, normalized with the named normalizer")
	return cmd
}

func newDecryptCmd(a *app) *cobra.Command {
	var ciphertext, iv string

	cmd := &cobra.Command{
		Use:   "decrypt",
		Short: "Strictly decrypt a ciphertext/iv pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := a.codec()
			if err != nil {
				return err
			}
			defer codec.Close()

			plaintext, err := codec.Decrypt(fieldcrypt.EncryptedField{Ciphertext: ciphertext, IV: iv})
			if err != nil {
				a.logger.Err(err).Str("func", "decrypt").Msg("decryption failed")
				return errors.New(fieldcrypt.PublicMessage(err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), plaintext)
			return nil
		},
	}

	cmd.Flags().StringVar(&ciphertext, "ciphertext", "", "stored ciphertext (hex)")
	cmd.Flags().StringVar(&iv, "iv", "", "stored iv (hex)")
	_ = cmd.MarkFlagRequired("ciphertext")
	_ = cmd.MarkFlagRequired("iv")
	return cmd
}

type decodeOutput struct {
	Value *string `json:"value"`
	Kind  string  `json:"kind"`
}

func newDecodeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode a stored column pair the way the read path does",
		Long: `Decode a stored column pair with placeholder and graceful degradation rules.
Omit --ciphertext for a NULL column and --iv for a missing iv.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := a.codec()
			if err != nil {
				return err
			}
			defer codec.Close()

			res := codec.SafeDecode(optionalFlag(cmd, "ciphertext"), optionalFlag(cmd, "iv"))
			return writeJSON(cmd.OutOrStdout(), decodeOutput{Value: res.Ptr(), Kind: res.Kind.String()})
		},
	}

	cmd.Flags().String("ciphertext", "", "stored ciphertext, placeholder or raw text")
	cmd.Flags().String("iv", "", "stored iv (hex)")
	return cmd
}

func newHashCmd() *cobra.Command {
	var normalize string

	cmd := &cobra.Command{
		Use:   "hash [value]",
		Short: "Print the lookup digest of a value",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := valueArg(cmd, args)
			if err != nil {
				return err
			}
			norm, ok := normalizers[normalize]
			if !ok {
				return fmt.Errorf("unknown normalizer %q, want one of: %s", normalize, normalizerNames())
			}
			fmt.Fprintln(cmd.OutOrStdout(), fieldcrypt.HashNormalized(value, norm))
			return nil
		},
	}

	cmd.Flags().StringVar(&normalize, "normalize", "none", "normalizer applied before hashing")
	return cmd
}

func newPlaceholderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "placeholder [value]",
		Short: "Encode a value in the seed placeholder format",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := valueArg(cmd, args)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), fieldcrypt.EncodePlaceholder(value))
			return nil
		},
	}
}

var patientFlags = []string{"name", "email", "phone", "access-code", "national-id"}

func newSeedCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert a patient in seed format (placeholders, no encryption)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, cleanup, err := a.repository(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			id, err := repo.SeedPlaceholder(cmd.Context(), patientInput(cmd))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id.String())
			return nil
		},
	}

	for _, name := range patientFlags {
		cmd.Flags().String(name, "", "patient "+strings.ReplaceAll(name, "-", " "))
	}
	return cmd
}

func patientInput(cmd *cobra.Command) store.PatientInput {
	return store.PatientInput{
		Name:       optionalFlag(cmd, "name"),
		Email:      optionalFlag(cmd, "email"),
		Phone:      optionalFlag(cmd, "phone"),
		AccessCode: optionalFlag(cmd, "access-code"),
		NationalID: optionalFlag(cmd, "national-id"),
	}
}

func newLookupCmd(a *app) *cobra.Command {
	var accessCode, nationalID string

	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Find patients by access code or national id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, cleanup, err := a.repository(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if accessCode != "" {
				p, err := repo.FindByAccessCode(cmd.Context(), accessCode)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), []store.Patient{*p})
			}

			patients, err := repo.FindByNationalID(cmd.Context(), nationalID)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), patients)
		},
	}

	cmd.Flags().StringVar(&accessCode, "access-code", "", "lab result access code")
	cmd.Flags().StringVar(&nationalID, "national-id", "", "national identity document number")
	cmd.MarkFlagsOneRequired("access-code", "national-id")
	cmd.MarkFlagsMutuallyExclusive("access-code", "national-id")
	return cmd
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and re-encrypt seed placeholders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, cleanup, err := a.repository(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			n, err := repo.MigratePlaceholders(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %d rows\n", n)
			return nil
		},
	}
}

func newCreateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Encrypt and insert a patient",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, cleanup, err := a.repository(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			p, err := repo.Create(cmd.Context(), patientInput(cmd))
			if err != nil {
				return errors.New(fieldcrypt.PublicMessage(err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), p.ID.String())
			return nil
		},
	}

	for _, name := range patientFlags {
		cmd.Flags().String(name, "", "patient "+strings.ReplaceAll(name, "-", " "))
	}
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print a decoded patient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid patient id: %w", err)
			}

			repo, cleanup, err := a.repository(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			p, err := repo.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), p)
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	var limit, offset uint64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List decoded patients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, cleanup, err := a.repository(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			patients, err := repo.List(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), patients)
		},
	}

	cmd.Flags().Uint64Var(&limit, "limit", 50, "maximum rows, 0 for all")
	cmd.Flags().Uint64Var(&offset, "offset", 0, "rows to skip")
	return cmd
}
