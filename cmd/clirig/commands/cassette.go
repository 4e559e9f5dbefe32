// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bartekus/clirig/cmd/clirig/internal/clierr"
	"github.com/bartekus/clirig/internal/tags"
)

// NewCassetteCommand returns the `clirig cassette` command.
func NewCassetteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cassette <tag>...",
		Short: "Print the cassette a scenario with these tags replays",
		Long: `Print the cassette name derived from scenario tags.
Tags may be given as Gherkin tags ("@vcr:site_info") or in the
"<namespace> <value>" form ("vcr site_info"). Exits with status 2 when no
vcr tag is present.`,
		Example: `  clirig cassette @smoke @vcr:site_info`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, ok := tags.Cassette(tags.Extract(tags.NormalizeAll(args)))
			if !ok {
				return clierr.Newf(clierr.ExitConfig, "no %s tag in %v", tags.CassetteNamespace, args)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		},
	}
}
