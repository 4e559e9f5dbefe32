// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bartekus/clirig/cmd/clirig/internal/clierr"
	"github.com/bartekus/clirig/internal/discover"
)

// NewListCommand returns the `clirig list` command.
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list [paths...]",
		Short: "List the feature files a run would execute",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				args = cfg.Suite.Paths
			}

			files, err := discover.Features(args)
			if err != nil {
				return clierr.Wrap(clierr.ExitConfig, "finding features", err)
			}
			for _, f := range files {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}
}
