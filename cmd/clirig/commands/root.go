// SPDX-License-Identifier: AGPL-3.0-or-later

/*
clirig - a tag-driven harness for behaviour-driven tests of command-line tools.
It runs Gherkin scenarios against a CLI under test, selects recorded cassettes from scenario tags, and asserts on what the CLI printed.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bartekus/clirig/cmd/clirig/internal/clierr"
	"github.com/bartekus/clirig/internal/config"
)

// NewRootCmd constructs the clirig root Cobra command.
func NewRootCmd() *cobra.Command {
	version := os.Getenv("CLIRIG_VERSION")
	if version == "" {
		version = "0.0.0-dev"
	}

	cmd := &cobra.Command{
		Use:           "clirig",
		Short:         "clirig - BDD harness for command-line tools",
		Long:          "clirig runs Gherkin feature files against a CLI under test with cassette-backed replay.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
	cmd.PersistentFlags().String("config", config.DefaultPath, "path to the clirig config file")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of clirig",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "clirig version %s\n", version)
		},
	})

	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewListCommand())
	cmd.AddCommand(NewCassetteCommand())

	return cmd
}

// newLogger writes to the command's stderr; --verbose enables debug records.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// loadConfig reads the file named by --config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, clierr.Wrap(clierr.ExitConfig, "reading --config flag", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, clierr.Wrap(clierr.ExitConfig, "loading config", err)
	}
	return cfg, nil
}
