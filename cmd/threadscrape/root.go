package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for threadscrape.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "threadscrape",
		Short: "Collect threaded comments from paginated listings",
		Long: `threadscrape crawls a paginated comment listing page by page in a headless
browser and writes every top-level comment, with its nested replies, as one
JSON line.

A comment that shows up on more than one page is written once, on the page
where it was first seen. Comments that cannot be parsed are skipped.

Crawls can optionally be archived in a local SQLite database and later
listed, exported, or compared.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
