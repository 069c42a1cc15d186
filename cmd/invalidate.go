package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexhive/juris-cli/internal/domain"
)

func newInvalidateCmd(app *app) *cobra.Command {
	var profileName string

	cmd := &cobra.Command{
		Use:   "invalidate <number>",
		Short: "Drop all cached entries for a case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithCore(cmd, app, profileName, func(ctx context.Context, c *core) error {
				if err := c.service.Invalidate(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "invalidated %s\n", domain.NormalizeCaseNumber(args[0]).Formatted())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&profileName, "profile", "", "Profile name (default: active profile)")

	return cmd
}
