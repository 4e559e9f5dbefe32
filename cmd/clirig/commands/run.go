// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bartekus/clirig/cmd/clirig/internal/clierr"
	"github.com/bartekus/clirig/internal/command"
	"github.com/bartekus/clirig/internal/config"
	"github.com/bartekus/clirig/internal/discover"
	"github.com/bartekus/clirig/internal/harness"
	"github.com/bartekus/clirig/internal/runner"
)

type runFlags struct {
	json            bool
	stateDir        string
	tags            string
	format          string
	timeout         time.Duration
	requireCassette bool
	strict          bool
	stopOnFailure   bool
}

// NewRunCommand returns the `clirig run` command and its state subcommands.
func NewRunCommand() *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run [paths...]",
		Short: "Run feature files against the CLI under test",
		Long: `Run Gherkin scenarios against the CLI under test.
Paths default to suite.paths from the config file. State of the last run is
kept in the state directory so failures can be resumed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, cfg, err := setupRunner(cmd, &f)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args = cfg.Suite.Paths
			}
			files, err := discover.Features(args)
			if err != nil {
				return clierr.Wrap(clierr.ExitConfig, "finding features", err)
			}
			if len(files) == 0 {
				return clierr.Newf(clierr.ExitConfig, "no feature files found in %v", args)
			}
			return suiteError(r.Run(cmd.Context(), files))
		},
	}

	cmd.PersistentFlags().BoolVar(&f.json, "json", false, "Output results in JSON")
	cmd.PersistentFlags().StringVar(&f.stateDir, "state-dir", "", "Directory to store run state (default suite.state_dir)")
	cmd.PersistentFlags().StringVar(&f.tags, "tags", "", "Tag expression selecting scenarios, e.g. \"@smoke && ~@wip\"")
	cmd.PersistentFlags().StringVar(&f.format, "format", "", "Formatter: pretty, progress, cucumber, junit or events")
	cmd.PersistentFlags().DurationVar(&f.timeout, "timeout", 0, "Per-command timeout (default cli.timeout)")
	cmd.PersistentFlags().BoolVar(&f.requireCassette, "require-cassette", false, "Fail commands in scenarios without a vcr tag")
	cmd.PersistentFlags().BoolVar(&f.strict, "strict", false, "Fail on undefined or pending steps")
	cmd.PersistentFlags().BoolVar(&f.stopOnFailure, "stop-on-failure", false, "Stop after the first failing scenario")

	cmd.AddCommand(newRunResumeCommand(&f))
	cmd.AddCommand(newRunReportCommand(&f))
	cmd.AddCommand(newRunResetCommand(&f))

	return cmd
}

func newRunResumeCommand(f *runFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Rerun the feature files that failed last time",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := setupRunner(cmd, f)
			if err != nil {
				return err
			}
			return suiteError(r.Resume(cmd.Context()))
		},
	}
}

func newRunResetCommand(f *runFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear run state",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := resolveStateStore(cmd, f)
			if err != nil {
				return err
			}
			return store.Reset()
		},
	}
}

func newRunReportCommand(f *runFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Show last run status",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := resolveStateStore(cmd, f)
			if err != nil {
				return err
			}
			last, err := store.ReadLastRun()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if f.json {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(last)
			}

			if last == nil {
				_, _ = fmt.Fprintln(out, "No run state found.")
				return nil
			}

			_, _ = fmt.Fprintf(out, "Run: %s\n", last.ID)
			_, _ = fmt.Fprintf(out, "Status: %s\n", last.Status)
			_, _ = fmt.Fprintf(out, "Scenarios: %d\n", len(last.Scenarios))
			if len(last.Failed) > 0 {
				_, _ = fmt.Fprintln(out, "Failed:")
				for _, name := range last.Failed {
					_, _ = fmt.Fprintf(out, "  - %s\n", name)
				}
			} else {
				_, _ = fmt.Fprintln(out, "All passed.")
			}
			return nil
		},
	}
}

func resolveStateStore(cmd *cobra.Command, f *runFlags) (*runner.StateStore, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return runner.NewStateStore(stateDir(cfg, f)), nil
}

// stateDir prefers --state-dir over suite.state_dir.
func stateDir(cfg *config.Config, f *runFlags) string {
	if f.stateDir != "" {
		return f.stateDir
	}
	return cfg.Suite.StateDir
}

func setupRunner(cmd *cobra.Command, f *runFlags) (*runner.Runner, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("timeout") {
		cfg.CLI.Timeout = f.timeout
	}
	if flags.Changed("require-cassette") {
		cfg.CLI.RequireCassette = f.requireCassette
	}
	if flags.Changed("tags") {
		cfg.Suite.Tags = f.tags
	}
	if flags.Changed("format") {
		cfg.Suite.Format = f.format
	}
	if flags.Changed("strict") {
		cfg.Suite.Strict = f.strict
	}
	if flags.Changed("stop-on-failure") {
		cfg.Suite.StopOnFailure = f.stopOnFailure
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, clierr.Wrap(clierr.ExitConfig, "invalid flags", err)
	}

	h := harness.New(harness.Options{
		Connection: cfg.ConnectionInfo(),
		Builder:    command.NewBuilder(cfg),
		Executor: &command.ShellExecutor{
			Shell:          cfg.CLI.Shell,
			SeparateStderr: cfg.CLI.SeparateStderr,
		},
		Timeout:         cfg.CLI.Timeout,
		RequireCassette: cfg.CLI.RequireCassette,
		Logger:          newLogger(cmd),
	})

	store := runner.NewStateStore(stateDir(cfg, f))
	r := runner.NewRunner(h, store, runner.Options{
		Tags:          cfg.Suite.Tags,
		Format:        cfg.Suite.Format,
		Strict:        cfg.Suite.Strict,
		StopOnFailure: cfg.Suite.StopOnFailure,
		Output:        cmd.OutOrStdout(),
	})
	return r, cfg, nil
}

func suiteError(err error) error {
	if err == nil {
		return nil
	}
	return clierr.Wrap(clierr.ExitFailure, "run failed", err)
}
