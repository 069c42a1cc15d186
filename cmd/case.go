package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lexhive/juris-cli/internal/domain"
)

func newCaseCmd(app *app) *cobra.Command {
	var profileName string
	var asJSON bool
	var refresh bool

	cmd := &cobra.Command{
		Use:   "case",
		Short: "Fetch one case from the records portal",
	}

	cmd.PersistentFlags().StringVar(&profileName, "profile", "", "Profile name (default: active profile)")
	cmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Render JSON output")
	cmd.PersistentFlags().BoolVar(&refresh, "refresh", false, "Bypass the cache and refetch")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "cover <number>",
			Short: "Fetch the case cover sheet",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runWithCore(cmd, app, profileName, func(ctx context.Context, c *core) error {
					cover, err := c.service.Cover(ctx, args[0], refresh)
					if err != nil {
						return err
					}
					if asJSON {
						return writeJSON(cmd, cover)
					}
					writeCover(cmd, cover)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "full <number>",
			Short: "Fetch the full case with stages and documents",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runWithCore(cmd, app, profileName, func(ctx context.Context, c *core) error {
					record, err := c.service.Case(ctx, args[0], refresh)
					if err != nil {
						return err
					}
					if asJSON {
						return writeJSON(cmd, record)
					}
					writeCase(cmd, record)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "docs <number>",
			Short: "List the documents attached to a case",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runWithCore(cmd, app, profileName, func(ctx context.Context, c *core) error {
					docs, err := c.service.Documents(ctx, args[0], refresh)
					if err != nil {
						return err
					}
					if asJSON {
						return writeJSON(cmd, docs)
					}
					writeDocuments(cmd, docs)
					return nil
				})
			},
		},
	)

	return cmd
}

// runWithCore wires the access stack for the resolved profile, runs fn and
// tears the stack down again. CLI invocations are one-shot, so the core
// lives exactly as long as the command.
func runWithCore(cmd *cobra.Command, app *app, profileName string, fn func(context.Context, *core) error) error {
	ctx := cmd.Context()

	profile, err := app.resolveProfile(ctx, profileName)
	if err != nil {
		return err
	}

	c, err := app.buildCore(profile)
	if err != nil {
		return err
	}
	defer c.Close()

	return fn(ctx, c)
}

func writeJSON(cmd *cobra.Command, value any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func writeCover(cmd *cobra.Command, cover domain.CaseCover) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "case %s\n", cover.Number.Formatted())
	fmt.Fprintf(out, "  court:     %s\n", orNA(cover.Court))
	fmt.Fprintf(out, "  class:     %s\n", orNA(cover.Class))
	fmt.Fprintf(out, "  subject:   %s\n", orNA(cover.Subject))
	fmt.Fprintf(out, "  judge:     %s\n", orNA(cover.Judge))
	fmt.Fprintf(out, "  claimant:  %s\n", orNA(cover.Claimant))
	fmt.Fprintf(out, "  defendant: %s\n", orNA(cover.Defendant))
	if !cover.FiledAt.IsZero() {
		fmt.Fprintf(out, "  filed:     %s\n", cover.FiledAt.Format("2006-01-02"))
	}
}

func writeCase(cmd *cobra.Command, record domain.Case) {
	writeCover(cmd, record.Cover)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "  stages:    %d\n", len(record.Stages))
	if stage, ok := record.CurrentStage(); ok {
		fmt.Fprintf(out, "  current:   %s\n", stage.Name)
	}
	fmt.Fprintf(out, "  documents: %d\n", record.DocumentCount())
}

func writeDocuments(cmd *cobra.Command, docs []domain.Document) {
	out := cmd.OutOrStdout()
	if len(docs) == 0 {
		fmt.Fprintln(out, "no documents")
		return
	}

	for _, doc := range docs {
		issued := ""
		if !doc.IssuedAt.IsZero() {
			issued = " (" + doc.IssuedAt.Format(time.DateOnly) + ")"
		}
		fmt.Fprintf(out, "%s  %s%s\n", doc.ID, doc.Title, issued)
	}
}

func orNA(value string) string {
	if value == "" {
		return "n/a"
	}
	return value
}
