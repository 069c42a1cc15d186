package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexhive/juris-cli/internal/domain"
)

func newCasesCmd(app *app) *cobra.Command {
	var profileName string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "cases <number>...",
		Short: "Fetch several cases at once",
		Long:  "Fetches many cases in one go: cached cases are answered locally, the rest through the portal's batch search when available. One bad number fails its own entry only.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithCore(cmd, app, profileName, func(ctx context.Context, c *core) error {
				results := c.service.Cases(ctx, args)
				if asJSON {
					return writeJSON(cmd, results)
				}
				writeCaseResults(cmd, results)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&profileName, "profile", "", "Profile name (default: active profile)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func writeCaseResults(cmd *cobra.Command, results []domain.CaseFetchResult) {
	out := cmd.OutOrStdout()
	failed := 0

	for _, result := range results {
		if result.Err != nil {
			failed++
			fmt.Fprintf(out, "FAIL  %s: %v\n", result.Number.Formatted(), result.Err)
			continue
		}
		fmt.Fprintf(out, "ok    %s  %s (%d documents)\n",
			result.Number.Formatted(),
			orNA(result.Case.Cover.Court),
			result.Case.DocumentCount(),
		)
	}

	fmt.Fprintf(out, "%d fetched, %d failed\n", len(results)-failed, failed)
}
