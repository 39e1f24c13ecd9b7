package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/threadscrape/internal/model"
	"github.com/nao1215/threadscrape/internal/report"
)

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <run-id>",
		Short: "Export the records of an archived run",
		Long: `Export writes the records of an archived run, either as the same JSON lines
the crawl produced or as a Markdown report.

The run ID may be shortened to any unique prefix.

Examples:
  # Re-create the JSONL output of a run
  threadscrape export 3f2a9c1e

  # Markdown report written to a file
  threadscrape export 3f2a9c1e --markdown -o report.md`,
		Args: cobra.ExactArgs(1),
		RunE: runExportCmd,
	}

	cmd.Flags().BoolP("markdown", "m", false, "Output a Markdown report instead of JSON lines")
	cmd.Flags().StringP("output", "o", "", "Write to this file instead of standard output")
	addDBDirFlag(cmd)

	return cmd
}

func runExportCmd(cmd *cobra.Command, args []string) error {
	markdown, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	archive, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer archive.Close()

	ctx := context.Background()
	run, err := archive.GetRun(ctx, args[0])
	if err != nil {
		return err
	}
	records, err := archive.LoadRecords(ctx, run.ID)
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if outputPath != "" {
		f, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	return exportRun(ctx, out, run, records, markdown)
}

// exportRun writes records of run to out.
func exportRun(ctx context.Context, out io.Writer, run model.CrawlRun, records []model.Record, markdown bool) error {
	if markdown {
		_, err := report.NewMarkdownWriter(out).Write(run, records)
		return err
	}
	return report.NewJSONLEmitter(out).WriteNodes(ctx, model.Nodes(records))
}
