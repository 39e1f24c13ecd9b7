package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/threadscrape/internal/report"
)

// defaultHistoryLimit is the number of runs listed without --limit.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived crawl runs",
		Long: `History lists the crawl runs stored with 'threadscrape crawl --archive',
newest first.

Examples:
  # List the latest runs
  threadscrape history

  # Only runs of one listing, with URLs and errors
  threadscrape history --url "https://forum.example.com/thread?id=7" -v

  # Machine readable output
  threadscrape history --json`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().String("url", "", "Only list runs of this pagination URL")
	cmd.Flags().IntP("limit", "n", defaultHistoryLimit, "Maximum number of runs to list (0 for all)")
	cmd.Flags().BoolP("json", "j", false, "Output runs as JSON")
	addDBDirFlag(cmd)

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	url, err := cmd.Flags().GetString("url")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	archive, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer archive.Close()

	runs, err := archive.ListRuns(context.Background(), url, limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if runs == nil {
			return enc.Encode([]any{})
		}
		return enc.Encode(runs)
	}

	if _, err := report.NewSimpleWriter(out, report.WithVerbose(getVerboseFlag(cmd))).WriteRuns(runs); err != nil {
		return err
	}
	if len(runs) > 0 {
		fmt.Fprintln(out, "\nUse 'threadscrape export <run-id>' to get the records of a run.")
	}
	return nil
}
