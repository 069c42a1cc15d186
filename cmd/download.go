package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexhive/juris-cli/internal/domain"
)

func newDownloadCmd(app *app) *cobra.Command {
	var profileName string
	var asJSON bool
	var documentID string

	cmd := &cobra.Command{
		Use:   "download <number>",
		Short: "Download a case's documents",
		Long:  "Downloads the documents of a case into the profile's download directory. All documents run concurrently under the download budget; a failing document never stops the others.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithCore(cmd, app, profileName, func(ctx context.Context, c *core) error {
				docs, err := c.service.Documents(ctx, args[0], false)
				if err != nil {
					return err
				}
				if documentID != "" {
					docs = filterByID(docs, documentID)
					if len(docs) == 0 {
						return fmt.Errorf("case has no document %q", documentID)
					}
				}
				if len(docs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no documents to download")
					return nil
				}

				var outcomes []domain.DownloadOutcome
				fetch := func(ctx context.Context) error {
					outcomes = c.client.DownloadDocuments(ctx, docs)
					return nil
				}

				if asJSON {
					if err := fetch(ctx); err != nil {
						return err
					}
					return writeJSON(cmd, outcomes)
				}

				label := fmt.Sprintf("Downloading %d documents...", len(docs))
				if err := runFetchSpinner(ctx, cmd.ErrOrStderr(), label, fetch); err != nil {
					return err
				}
				writeDownloadOutcomes(cmd, outcomes)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&profileName, "profile", "", "Profile name (default: active profile)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	cmd.Flags().StringVar(&documentID, "document", "", "Download only the document with this ID")

	return cmd
}

func filterByID(docs []domain.Document, id string) []domain.Document {
	for _, doc := range docs {
		if doc.ID == id {
			return []domain.Document{doc}
		}
	}
	return nil
}

func writeDownloadOutcomes(cmd *cobra.Command, outcomes []domain.DownloadOutcome) {
	out := cmd.OutOrStdout()
	failed := 0

	for _, outcome := range outcomes {
		if outcome.Err != nil {
			failed++
			fmt.Fprintf(out, "FAIL  %s: %v\n", outcome.Document.Title, outcome.Err)
			continue
		}
		fmt.Fprintf(out, "ok    %s (%d bytes) -> %s\n",
			outcome.Document.Title,
			outcome.Result.Bytes,
			outcome.Result.Path,
		)
	}

	fmt.Fprintf(out, "%d downloaded, %d failed\n", len(outcomes)-failed, failed)
}
