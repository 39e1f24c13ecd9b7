package database

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/threadscrape/internal/model"
)

// FileName is the archive database file inside the data directory.
const FileName = "threadscrape.db"

var (
	// ErrRunNotFound is returned when no run matches the given ID.
	ErrRunNotFound = errors.New("crawl run not found")

	// ErrAmbiguousRunID is returned when an ID prefix matches several runs.
	ErrAmbiguousRunID = errors.New("run ID prefix matches more than one run")
)

// Archive stores crawl runs and the records they emitted in SQLite.
type Archive struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Archive behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the archive in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*Archive, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("archive not found at %s (run a crawl with --archive first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file.
	mode := "rw"
	if opts.CreateIfNotExists {
		mode = "rwc"
	}
	dsn := dbPath + "?mode=" + mode + "&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	a := &Archive{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := a.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return a, nil
}

// Path returns the database file path.
func (a *Archive) Path() string {
	return a.dbPath
}

// Close closes the database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (a *Archive) createTables() error {
	schema := `
	-- One row per crawl invocation
	CREATE TABLE IF NOT EXISTS crawl_runs (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		status TEXT NOT NULL,
		first_page INTEGER NOT NULL DEFAULT 0,
		last_page INTEGER NOT NULL DEFAULT 0,
		pages INTEGER NOT NULL DEFAULT 0,
		records INTEGER NOT NULL DEFAULT 0,
		duplicates INTEGER NOT NULL DEFAULT 0,
		failures INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_runs_url ON crawl_runs(url);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON crawl_runs(started_at);

	-- Top-level comment trees in emission order
	CREATE TABLE IF NOT EXISTS comments (
		run_id TEXT NOT NULL REFERENCES crawl_runs(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		page INTEGER NOT NULL,
		identity TEXT NOT NULL,
		record_json TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	);
	`

	_, err := a.db.ExecContext(context.Background(), schema)
	return err
}

// StartRun creates a running crawl for url with a fresh ID.
func (a *Archive) StartRun(ctx context.Context, url string) (model.CrawlRun, error) {
	run := model.CrawlRun{
		ID:        uuid.NewString(),
		URL:       url,
		StartedAt: time.Now().UTC(),
		Status:    model.RunStatusRunning,
	}

	query := `
	INSERT INTO crawl_runs (id, url, started_at, status)
	VALUES (?, ?, ?, ?)
	`
	if _, err := a.db.ExecContext(ctx, query, run.ID, run.URL, formatTimestamp(run.StartedAt), run.Status.String()); err != nil {
		return model.CrawlRun{}, fmt.Errorf("failed to start run: %w", err)
	}
	return run, nil
}

// FinishRun stores the final state of run. A zero FinishedAt is set to now.
func (a *Archive) FinishRun(ctx context.Context, run model.CrawlRun) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}

	query := `
	UPDATE crawl_runs
	SET finished_at = ?, status = ?, first_page = ?, last_page = ?,
		pages = ?, records = ?, duplicates = ?, failures = ?, error = ?
	WHERE id = ?
	`
	res, err := a.db.ExecContext(ctx, query,
		formatTimestamp(run.FinishedAt),
		run.Status.String(),
		run.Range.First,
		run.Range.Last,
		run.Pages,
		run.Records,
		run.Duplicates,
		run.Failures,
		run.Error,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, run.ID)
	}
	return nil
}

// RecordComment stores one top-level comment tree of runID.
func (a *Archive) RecordComment(ctx context.Context, runID string, rec model.Record) error {
	data, err := marshalNode(rec.Node)
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}

	query := `
	INSERT INTO comments (run_id, seq, page, identity, record_json)
	VALUES (?, ?, ?, ?, ?)
	`
	if _, err := a.db.ExecContext(ctx, query, runID, rec.Seq, rec.Page, rec.Identity, data); err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

// LoadRecords returns the records of runID in emission order.
func (a *Archive) LoadRecords(ctx context.Context, runID string) ([]model.Record, error) {
	query := `
	SELECT seq, page, identity, record_json
	FROM comments
	WHERE run_id = ?
	ORDER BY seq
	`

	rows, err := a.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		var rec model.Record
		var data string
		if err := rows.Scan(&rec.Seq, &rec.Page, &rec.Identity, &data); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &rec.Node); err != nil {
			return nil, fmt.Errorf("failed to parse record %d: %w", rec.Seq, err)
		}
		rec.Node.Identity = rec.Identity
		records = append(records, rec)
	}

	return records, rows.Err()
}

const runColumns = `id, url, started_at, finished_at, status, first_page, last_page,
	pages, records, duplicates, failures, error`

// GetRun returns the run with the given ID. A unique ID prefix is accepted
// too, so the short form printed by the history listing works.
func (a *Archive) GetRun(ctx context.Context, id string) (model.CrawlRun, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.CrawlRun{}, fmt.Errorf("%w: empty ID", ErrRunNotFound)
	}

	row := a.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM crawl_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == nil {
		return run, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.CrawlRun{}, fmt.Errorf("failed to query run: %w", err)
	}

	rows, err := a.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM crawl_runs WHERE substr(id, 1, ?) = ? LIMIT 2`, len(id), id)
	if err != nil {
		return model.CrawlRun{}, fmt.Errorf("failed to query run: %w", err)
	}
	defer rows.Close()

	var matches []model.CrawlRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return model.CrawlRun{}, fmt.Errorf("failed to scan run: %w", err)
		}
		matches = append(matches, r)
	}
	if err := rows.Err(); err != nil {
		return model.CrawlRun{}, err
	}

	switch len(matches) {
	case 0:
		return model.CrawlRun{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 1:
		return matches[0], nil
	default:
		return model.CrawlRun{}, fmt.Errorf("%w: %s", ErrAmbiguousRunID, id)
	}
}

// ListRuns returns runs newest first. An empty url lists every run and a
// limit of zero or less means no limit.
func (a *Archive) ListRuns(ctx context.Context, url string, limit int) ([]model.CrawlRun, error) {
	query := `SELECT ` + runColumns + ` FROM crawl_runs`
	var args []any
	if url != "" {
		query += ` WHERE url = ?`
		args = append(args, url)
	}
	query += ` ORDER BY started_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []model.CrawlRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LatestRuns returns the two most recent completed runs for url, newest
// first. Fewer are returned when the archive does not hold two.
func (a *Archive) LatestRuns(ctx context.Context, url string) ([]model.CrawlRun, error) {
	runs, err := a.ListRuns(ctx, url, 0)
	if err != nil {
		return nil, err
	}

	var out []model.CrawlRun
	for _, r := range runs {
		if r.Status == model.RunStatusCompleted {
			out = append(out, r)
		}
		if len(out) == 2 {
			break
		}
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (model.CrawlRun, error) {
	var run model.CrawlRun
	var started, status string
	var finished sql.NullString

	err := row.Scan(
		&run.ID,
		&run.URL,
		&started,
		&finished,
		&status,
		&run.Range.First,
		&run.Range.Last,
		&run.Pages,
		&run.Records,
		&run.Duplicates,
		&run.Failures,
		&run.Error,
	)
	if err != nil {
		return model.CrawlRun{}, err
	}

	run.StartedAt = parseTimestamp(started)
	if finished.Valid {
		run.FinishedAt = parseTimestamp(finished.String)
	}
	run.Status = model.RunStatus(status)
	return run, nil
}

// Recorder archives records of one run as they are emitted.
type Recorder struct {
	archive *Archive
	runID   string

	mu  sync.Mutex
	seq int
}

// Recorder returns an emitter that stores records under runID.
func (a *Archive) Recorder(runID string) *Recorder {
	return &Recorder{archive: a, runID: runID}
}

// Emit stores node as the next record of the run.
func (r *Recorder) Emit(ctx context.Context, page int, node model.CommentNode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := model.Record{Seq: r.seq, Page: page, Identity: node.Identity, Node: node}
	if err := r.archive.RecordComment(ctx, r.runID, rec); err != nil {
		return err
	}
	r.seq++
	return nil
}

// marshalNode encodes a node without HTML escaping.
func marshalNode(n model.CommentNode) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(n); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// timestampLayout is fixed width so stored timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTimestamp is the storage format for timestamps.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timestampLayout,           // What formatTimestamp writes
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	time.RFC3339,              // Full RFC3339 format
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
