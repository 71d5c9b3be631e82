// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UserPortal Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the UserPortal CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "userportal",
		Short: "UserPortal - account registration and login server",
		Long: `UserPortal serves user registration, login, logout and profile
editing over HTTP, backed by PostgreSQL or an in-memory store.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
