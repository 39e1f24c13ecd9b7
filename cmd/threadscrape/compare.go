package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/threadscrape/internal/database"
	"github.com/nao1215/threadscrape/internal/model"
	"github.com/nao1215/threadscrape/internal/report"
)

// errTooFewRuns is returned when --url has fewer than two completed runs.
var errTooFewRuns = errors.New("need two completed runs to compare")

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [<old> <new>]",
		Short: "Compare the records of two crawls",
		Long: `Compare shows which records appeared or disappeared between two crawls of
the same listing. A record whose content, votes, or replies changed shows up
as one removed and one added line.

Each side is either a JSONL file written by 'threadscrape crawl' or the ID
(or unique ID prefix) of an archived run. With --url and no arguments the
two most recent completed runs of that URL are compared.

Examples:
  # Compare two output files
  threadscrape compare monday.jsonl tuesday.jsonl

  # Compare two archived runs
  threadscrape compare 3f2a9c1e 8b0d7e44

  # Compare the latest two runs of a listing
  threadscrape compare --url "https://forum.example.com/thread?id=7"

  # Only print counts, as JSON
  threadscrape compare --json monday.jsonl tuesday.jsonl`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("accepts 0 or 2 arg(s), received %d", len(args))
			}
			return nil
		},
		RunE: runCompareCmd,
	}

	cmd.Flags().String("url", "", "Compare the two most recent completed runs of this URL")
	cmd.Flags().BoolP("json", "j", false, "Output the counts as JSON")
	addDBDirFlag(cmd)

	return cmd
}

// compareResult is the JSON form of a comparison.
type compareResult struct {
	Old       string `json:"old"`
	New       string `json:"new"`
	Added     int    `json:"added"`
	Removed   int    `json:"removed"`
	Unchanged int    `json:"unchanged"`
	Equal     bool   `json:"equal"`
}

func runCompareCmd(cmd *cobra.Command, args []string) error {
	url, err := cmd.Flags().GetString("url")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	if len(args) == 0 && url == "" {
		return errors.New("specify two runs or files to compare, or --url")
	}

	ctx := context.Background()
	src := &recordSource{cmd: cmd}
	defer src.close()

	oldName, newName := "", ""
	if len(args) == 2 {
		oldName, newName = args[0], args[1]
	} else {
		if oldName, newName, err = src.latestPair(ctx, url); err != nil {
			return err
		}
	}

	var older, newer []model.CommentNode
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		older, err = src.load(gctx, oldName)
		return err
	})
	g.Go(func() (err error) {
		newer, err = src.load(gctx, newName)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	d, err := report.DiffRecords(older, newer)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(compareResult{
			Old:       oldName,
			New:       newName,
			Added:     d.Added,
			Removed:   d.Removed,
			Unchanged: d.Unchanged,
			Equal:     d.Equal(),
		})
	}

	fmt.Fprintf(out, "Comparing %s -> %s\n\n", oldName, newName)
	return report.WriteDiff(out, d)
}

// recordSource loads records from JSONL files or the archive, opening
// the archive only when a run ID is used.
type recordSource struct {
	cmd *cobra.Command

	mu      sync.Mutex
	archive *database.Archive
}

func (s *recordSource) open() (*database.Archive, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.archive != nil {
		return s.archive, nil
	}
	a, err := openArchive(s.cmd)
	if err != nil {
		return nil, err
	}
	s.archive = a
	return a, nil
}

func (s *recordSource) close() {
	if s.archive != nil {
		_ = s.archive.Close()
	}
}

// load returns the records named by ref: an existing file path, or else
// an archived run ID.
func (s *recordSource) load(ctx context.Context, ref string) ([]model.CommentNode, error) {
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		return loadJSONLFile(ref)
	}
	if strings.HasSuffix(ref, ".jsonl") {
		return nil, fmt.Errorf("file not found: %s", ref)
	}

	a, err := s.open()
	if err != nil {
		return nil, err
	}
	run, err := a.GetRun(ctx, ref)
	if err != nil {
		return nil, err
	}
	records, err := a.LoadRecords(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	return model.Nodes(records), nil
}

// latestPair returns the IDs of the two latest completed runs of url,
// older first.
func (s *recordSource) latestPair(ctx context.Context, url string) (string, string, error) {
	a, err := s.open()
	if err != nil {
		return "", "", err
	}
	runs, err := a.LatestRuns(ctx, url)
	if err != nil {
		return "", "", err
	}
	if len(runs) < 2 {
		return "", "", fmt.Errorf("%w: found %d for %s", errTooFewRuns, len(runs), url)
	}
	return runs[1].ID, runs[0].ID, nil
}

func loadJSONLFile(path string) ([]model.CommentNode, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided input path is intentional
	if err != nil {
		return nil, err
	}
	defer f.Close()

	nodes, err := report.ReadJSONL(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return nodes, nil
}
