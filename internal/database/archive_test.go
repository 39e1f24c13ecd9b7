package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/threadscrape/internal/model"
)

// setupTestArchive creates a temporary archive for testing.
func setupTestArchive(t *testing.T) *Archive {
	t.Helper()

	a, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func sampleNode(user string, votes int) model.CommentNode {
	return model.CommentNode{
		Identity: "id-" + user,
		User:     user,
		Content:  "<i>hello</i> from " + user,
		Votes:    model.VoteCount(votes),
		Date:     model.StringPtr("2024-03-01T10:00:00Z"),
		Responses: []model.CommentNode{
			{Identity: "id-reply", User: "bob", Content: "reply", Votes: model.NoVotes()},
		},
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		a, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open archive: %v", err)
		}
		defer a.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if a.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("unexpected path %q", a.Path())
		}
	})

	t.Run("CreateIfNotExists=false fails for missing database", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "missing"), Options{CreateIfNotExists: false})
		if err == nil {
			t.Error("expected error for missing archive")
		}
	})

	t.Run("reopening keeps data", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		a, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open archive: %v", err)
		}
		run, err := a.StartRun(context.Background(), "https://forum.test/t?id=1")
		if err != nil {
			t.Fatalf("failed to start run: %v", err)
		}
		_ = a.Close()

		b, err := Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen archive: %v", err)
		}
		defer b.Close()

		if _, err := b.GetRun(context.Background(), run.ID); err != nil {
			t.Errorf("expected run after reopening: %v", err)
		}
	})
}

func TestRunLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := setupTestArchive(t)

	run, err := a.StartRun(ctx, "https://forum.test/t?id=1")
	if err != nil {
		t.Fatalf("failed to start run: %v", err)
	}

	t.Run("new run is running", func(t *testing.T) {
		got, err := a.GetRun(ctx, run.ID)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.Status != model.RunStatusRunning {
			t.Errorf("expected running, got %s", got.Status)
		}
		if !got.FinishedAt.IsZero() {
			t.Errorf("expected no finish time, got %v", got.FinishedAt)
		}
		if got.StartedAt.Sub(run.StartedAt).Abs() > time.Microsecond {
			t.Errorf("expected start %v, got %v", run.StartedAt, got.StartedAt)
		}
	})

	t.Run("finish stores counters", func(t *testing.T) {
		run.Status = model.RunStatusFailed
		run.Range = model.PageRange{First: 2, Last: 4}
		run.Pages = 1
		run.Records = 2
		run.Duplicates = 3
		run.Failures = 1
		run.Error = "page 3: render timeout"

		if err := a.FinishRun(ctx, run); err != nil {
			t.Fatalf("failed to finish run: %v", err)
		}

		got, err := a.GetRun(ctx, run.ID)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.Status != model.RunStatusFailed || got.Range != run.Range || got.Records != 2 ||
			got.Duplicates != 3 || got.Failures != 1 || got.Error != run.Error {
			t.Errorf("unexpected run %+v", got)
		}
		if got.FinishedAt.IsZero() {
			t.Error("expected finish time to be set")
		}
	})

	t.Run("short ID prefix resolves", func(t *testing.T) {
		got, err := a.GetRun(ctx, run.ID[:8])
		if err != nil {
			t.Fatalf("failed to get run by prefix: %v", err)
		}
		if got.ID != run.ID {
			t.Errorf("expected %s, got %s", run.ID, got.ID)
		}
	})

	t.Run("unknown ID", func(t *testing.T) {
		_, err := a.GetRun(ctx, "does-not-exist")
		if !errors.Is(err, ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("finishing an unknown run fails", func(t *testing.T) {
		err := a.FinishRun(ctx, model.CrawlRun{ID: "nope", Status: model.RunStatusCompleted})
		if !errors.Is(err, ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})
}

func TestRecorder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := setupTestArchive(t)

	run, err := a.StartRun(ctx, "https://forum.test/t?id=1")
	if err != nil {
		t.Fatalf("failed to start run: %v", err)
	}

	rec := a.Recorder(run.ID)
	for i, n := range []model.CommentNode{sampleNode("alice", 3), sampleNode("carol", 0)} {
		if err := rec.Emit(ctx, i+2, n); err != nil {
			t.Fatalf("failed to emit: %v", err)
		}
	}

	records, err := a.LoadRecords(ctx, run.ID)
	if err != nil {
		t.Fatalf("failed to load records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.Seq != 0 || first.Page != 2 || first.Identity != "id-alice" {
		t.Errorf("unexpected first record metadata %+v", first)
	}
	if first.Node.Content != "<i>hello</i> from alice" {
		t.Errorf("expected content to survive, got %q", first.Node.Content)
	}
	if first.Node.Votes.String() != "3" {
		t.Errorf("expected 3 votes, got %q", first.Node.Votes)
	}
	if len(first.Node.Responses) != 1 || first.Node.Responses[0].Votes.Present() {
		t.Errorf("expected one reply with absent votes, got %+v", first.Node.Responses)
	}
	if records[1].Seq != 1 || records[1].Page != 3 {
		t.Errorf("unexpected second record metadata %+v", records[1])
	}
}

func TestListRuns(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a := setupTestArchive(t)

	var ids []string
	for _, u := range []string{"https://a.test/t", "https://b.test/t", "https://a.test/t"} {
		run, err := a.StartRun(ctx, u)
		if err != nil {
			t.Fatalf("failed to start run: %v", err)
		}
		run.Status = model.RunStatusCompleted
		if err := a.FinishRun(ctx, run); err != nil {
			t.Fatalf("failed to finish run: %v", err)
		}
		ids = append(ids, run.ID)
	}

	t.Run("newest first", func(t *testing.T) {
		runs, err := a.ListRuns(ctx, "", 0)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 3 || runs[0].ID != ids[2] || runs[2].ID != ids[0] {
			t.Errorf("unexpected order: %v", runs)
		}
	})

	t.Run("filtered by URL", func(t *testing.T) {
		runs, err := a.ListRuns(ctx, "https://a.test/t", 0)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 2 {
			t.Errorf("expected 2 runs, got %d", len(runs))
		}
	})

	t.Run("limited", func(t *testing.T) {
		runs, err := a.ListRuns(ctx, "", 1)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 1 {
			t.Errorf("expected 1 run, got %d", len(runs))
		}
	})

	t.Run("latest completed pair", func(t *testing.T) {
		runs, err := a.LatestRuns(ctx, "https://a.test/t")
		if err != nil {
			t.Fatalf("failed to get latest runs: %v", err)
		}
		if len(runs) != 2 || runs[0].ID != ids[2] || runs[1].ID != ids[0] {
			t.Errorf("unexpected latest runs: %v", runs)
		}
	})
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  time.Time
	}{
		{"2024-03-01T10:00:00.000000000Z", time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"2024-03-01 10:00:00", time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"2024-03-01T10:00:00Z", time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"not a time", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			if got := parseTimestamp(tt.input); !got.Equal(tt.want) {
				t.Errorf("parseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
