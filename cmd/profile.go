package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexhive/juris-cli/internal/domain"
)

func newProfileCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage deployment profiles",
		Long:  "A profile names one records-portal deployment: its base URL, the bearer credential and where downloads land. The active profile is used when no --profile flag is given.",
	}

	cmd.AddCommand(
		newProfileAddCmd(app),
		newProfileListCmd(app),
		newProfileUseCmd(app),
	)

	return cmd
}

func newProfileAddCmd(app *app) *cobra.Command {
	var baseURL string
	var credential string
	var downloadDir string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add or update a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile := domain.Profile{
				Name:        args[0],
				BaseURL:     baseURL,
				Credential:  credential,
				DownloadDir: downloadDir,
			}
			if err := app.profiles.Save(cmd.Context(), profile); err != nil {
				return fmt.Errorf("save profile: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "profile %q saved\n", profile.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "Portal base URL")
	cmd.Flags().StringVar(&credential, "credential", "", "Bearer credential for the portal")
	cmd.Flags().StringVar(&downloadDir, "download-dir", "", "Directory for downloaded documents")
	_ = cmd.MarkFlagRequired("base-url")
	_ = cmd.MarkFlagRequired("credential")

	return cmd
}

func newProfileListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profiles, err := app.profiles.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list profiles: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(profiles) == 0 {
				fmt.Fprintln(out, "no profiles configured")
				return nil
			}

			active, _ := app.profiles.Active(cmd.Context())
			for _, profile := range profiles {
				marker := " "
				if profile.Name == active.Name {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s  %s\n", marker, profile.Name, profile.BaseURL)
			}
			return nil
		},
	}
}

func newProfileUseCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "use <name>",
		Short: "Select the active profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.profiles.SetActive(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("set active profile: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "active profile is now %q\n", args[0])
			return nil
		},
	}
}
