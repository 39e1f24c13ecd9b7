package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/threadscrape/internal/config"
	"github.com/nao1215/threadscrape/internal/database"
)

// addDBDirFlag registers --db-dir on commands that read the archive.
func addDBDirFlag(cmd *cobra.Command) {
	cmd.Flags().String("db-dir", "",
		"Archive directory (default: XDG data directory)")
}

// archiveDir resolves the archive directory from --db-dir, the
// environment, or the XDG default.
func archiveDir(cmd *cobra.Command) (string, error) {
	if err := config.LoadDotEnv(); err != nil {
		return "", fmt.Errorf("failed to load .env: %w", err)
	}
	cfg := config.NewConfig()
	cfg.ApplyEnv()

	if cmd.Flags().Changed("db-dir") {
		dir, err := cmd.Flags().GetString("db-dir")
		if err != nil {
			return "", err
		}
		cfg.DBDir = dir
	}
	if cfg.DBDir == "" {
		return "", config.ErrNoDBDir
	}
	return cfg.DBDir, nil
}

// openArchive opens an existing archive for reading.
func openArchive(cmd *cobra.Command) (*database.Archive, error) {
	dir, err := archiveDir(cmd)
	if err != nil {
		return nil, err
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	a, err := database.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	return a, nil
}
