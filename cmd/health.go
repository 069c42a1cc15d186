package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	healthadapter "github.com/lexhive/juris-cli/internal/adapters/render/health"
)

func newHealthCmd(app *app) *cobra.Command {
	var profileName string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Show the remote access layer's health report",
		Long:  "Derives a health report from the portal client's counters: success and error rates, concurrency budget state, cache hit rate and any raised alerts. Counters are per process, so this reflects the current invocation only.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithCore(cmd, app, profileName, func(_ context.Context, c *core) error {
				report := c.client.Metrics()
				if asJSON {
					return writeJSON(cmd, report)
				}

				rendered, err := healthadapter.Render(report)
				if err != nil {
					return fmt.Errorf("render health report: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&profileName, "profile", "", "Profile name (default: active profile)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}
