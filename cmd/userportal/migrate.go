// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UserPortal Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/userportal/userportal/internal/config"
	"github.com/userportal/userportal/internal/store"
)

// Migrator wraps the methods used by the migrate subcommands.
type Migrator interface {
	Up() error
	Down() error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	PendingMigrations() ([]uint, error)
	Close() error
}

// newMigrator is replaced in tests.
var newMigrator = func(url string) (Migrator, error) {
	return store.NewMigrator(url)
}

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long: `Manage the users schema in the PostgreSQL database.
The database URL is read from --database.url, the config file or DATABASE_URL.`,
	}

	config.AddDatabaseFlags(cmd.PersistentFlags())

	cmd.AddCommand(newMigrateUpCmd())
	cmd.AddCommand(newMigrateDownCmd())
	cmd.AddCommand(newMigrateVersionCmd())
	cmd.AddCommand(newMigrateStatusCmd())
	cmd.AddCommand(newMigrateForceCmd())

	return cmd
}

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m Migrator) error {
				cmd.Println("Running migrations...")
				if err := m.Up(); err != nil {
					return oops.With("operation", "run migrations").Wrap(err)
				}
				cmd.Println("Migrations completed successfully")
				return nil
			})
		},
	}
}

func newMigrateDownCmd() *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations (drops the users table)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirmed {
				return oops.Code("CONFIRMATION_REQUIRED").
					Errorf("migrate down deletes every user; rerun with --yes to continue")
			}
			return withMigrator(cmd, func(m Migrator) error {
				cmd.Println("Rolling back migrations...")
				if err := m.Down(); err != nil {
					return oops.With("operation", "roll back migrations").Wrap(err)
				}
				cmd.Println("Rollback completed successfully")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm the rollback")
	return cmd
}

func newMigrateVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m Migrator) error {
				version, dirty, err := m.Version()
				if err != nil {
					return oops.With("operation", "read version").Wrap(err)
				}
				if dirty {
					cmd.Printf("Version: %d (dirty)\n", version)
					return nil
				}
				cmd.Printf("Version: %d\n", version)
				return nil
			})
		},
	}
}

func newMigrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m Migrator) error {
				pending, err := m.PendingMigrations()
				if err != nil {
					return oops.With("operation", "list pending migrations").Wrap(err)
				}
				if len(pending) == 0 {
					cmd.Println("Schema is up to date")
					return nil
				}
				versions := make([]string, len(pending))
				for i, v := range pending {
					versions[i] = fmt.Sprintf("%06d", v)
				}
				cmd.Printf("Pending migrations: %s\n", strings.Join(versions, ", "))
				return nil
			})
		},
	}
}

func newMigrateForceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "force VERSION",
		Short: "Set the schema version without running migrations",
		Long: `Set the recorded schema version without running migrations.
Use only to clear a dirty state after repairing the database by hand.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			return withMigrator(cmd, func(m Migrator) error {
				if err := m.Force(version); err != nil {
					return oops.With("operation", "force version").Wrap(err)
				}
				cmd.Printf("Forced version %d\n", version)
				return nil
			})
		},
	}
}

// parseForceVersion parses the leading integer of s.
func parseForceVersion(s string) (int, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, oops.Code("INVALID_VERSION").Errorf("version is required")
	}
	var version int
	if _, err := fmt.Sscanf(trimmed, "%d", &version); err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Wrap(err)
	}
	return version, nil
}

// getDatabaseURL resolves the database URL from flags, the config file and
// the environment.
func getDatabaseURL(cmd *cobra.Command) (string, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return "", err //nolint:wrapcheck // config.Load returns coded errors
	}
	if cfg.Database.URL == "" {
		return "", oops.Code("CONFIG_INVALID").
			With("key", config.KeyDatabaseURL).
			Errorf("database URL is required (--%s or %s)", config.KeyDatabaseURL, config.DatabaseURLEnv)
	}
	return cfg.Database.URL, nil
}

func withMigrator(cmd *cobra.Command, fn func(Migrator) error) error {
	url, err := getDatabaseURL(cmd)
	if err != nil {
		return err
	}

	m, err := newMigrator(url)
	if err != nil {
		return oops.With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			cmd.PrintErrln("warning: failed to close migrator:", closeErr)
		}
	}()

	return fn(m)
}
