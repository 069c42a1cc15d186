package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "juris",
		Short:         "juris: fetch judicial case records and documents from the records portal",
		Long:          "juris talks to a judicial-records portal through a resilient access layer: bounded concurrency, adaptive retry backoff, session-cookie downloads and a deduplicating TTL cache. Configure deployments with `juris profile`.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newProfileCmd(app),
		newCaseCmd(app),
		newCasesCmd(app),
		newDownloadCmd(app),
		newInvalidateCmd(app),
		newHealthCmd(app),
	)

	return rootCmd
}
