package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/practice-auth/internal/app"
	"github.com/spec-kit/practice-auth/internal/config"
	"github.com/spec-kit/practice-auth/internal/observability"
	apperrors "github.com/spec-kit/practice-auth/pkg/util"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "staffctl",
		Short:         "Maintenance commands for the staff auth service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(
		newMigratePasswordsCommand(),
		newVerifyTokenCommand(),
		newAdminCheckCommand(),
		newSeedStaffCommand(),
		newAuditCommand(),
	)
	return rootCmd
}

// withContainer loads configuration from the environment and runs fn over
// the wired services.
func withContainer(cmd *cobra.Command, fn func(ctx context.Context, c *app.Container) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("initialize", zap.Error(err))
		return err
	}
	defer c.Close()
	return fn(ctx, c)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newMigratePasswordsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-passwords",
		Args:  cobra.NoArgs,
		Short: "Rewrite every legacy credential as a salted hash",
		Long: `Scans the staff directory and rewrites credentials that have no salt or a
hash shorter than AUTH_LEGACY_HASH_MIN_LENGTH, treating the stored value as the
plaintext password. Only one run may be active at a time.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
				report, err := c.Credentials.BulkMigrate(ctx)
				if report != nil {
					if werr := writeJSON(cmd.OutOrStdout(), report); werr != nil {
						return werr
					}
				}
				if err != nil {
					if de := apperrors.ToDomainError(err); de.Code == apperrors.CodeMigrationFailure {
						return fmt.Errorf("%s: %v", de.Message, de.Details["employee_ids"])
					}
					return err
				}
				return nil
			})
		},
	}
}

func newVerifyTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-token <token>",
		Args:  cobra.ExactArgs(1),
		Short: "Verify an access token and print its claims",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, func(_ context.Context, c *app.Container) error {
				claims, err := c.Tokens.Verify(args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), claims)
			})
		},
	}
}

func newAdminCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "admin-check <employee-id>",
		Args:  cobra.ExactArgs(1),
		Short: "Report whether a staff member has admin rights",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), c.Auth.IsUserAdmin(ctx, args[0]))
				return err
			})
		},
	}
}

func newSeedStaffCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed-staff",
		Args:  cobra.NoArgs,
		Short: "Create staff members from a JSON seed file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
				created, err := app.SeedFromFile(ctx, c.Directory, file, c.Logger)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "created %d staff members\n", created)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to the seed file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newAuditCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "audit <employee-id>",
		Args:  cobra.ExactArgs(1),
		Short: "Print the newest auth audit entries for a staff member",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
				entries, err := c.Audit.History(ctx, args[0], limit)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), entries)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum number of entries")
	return cmd
}
