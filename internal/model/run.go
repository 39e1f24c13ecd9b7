package model

import "time"

// RunStatus is the lifecycle state of an archived crawl.
type RunStatus string

const (
	// RunStatusRunning marks a crawl that has started but not finished.
	// A run left in this state was interrupted before it could be closed.
	RunStatusRunning RunStatus = "running"

	// RunStatusCompleted marks a crawl that visited every page in its range.
	RunStatusCompleted RunStatus = "completed"

	// RunStatusFailed marks a crawl aborted by a fatal error. Records
	// emitted before the failure are kept.
	RunStatusFailed RunStatus = "failed"
)

// String returns the status as stored in the archive.
func (s RunStatus) String() string {
	return string(s)
}

// CrawlRun describes one crawl stored in the archive.
type CrawlRun struct {
	// ID is a random UUID assigned when the run starts.
	ID string `json:"id"`

	// URL is the pagination base URL given on the command line.
	URL string `json:"url"`

	// StartedAt is when the run was created.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is zero while the run is still in progress.
	FinishedAt time.Time `json:"finished_at,omitzero"`

	Status RunStatus `json:"status"`

	// Range is the page range resolved at the start of the crawl.
	Range PageRange `json:"range"`

	// Pages is the number of pages fully processed.
	Pages int `json:"pages"`

	// Records is the number of top-level comment records emitted.
	Records int `json:"records"`

	// Duplicates counts comments skipped because their identity was seen.
	Duplicates int `json:"duplicates"`

	// Failures counts comments dropped because they could not be parsed.
	Failures int `json:"failures"`

	// Error is the fatal error message of a failed run.
	Error string `json:"error,omitempty"`
}

// Duration returns how long the run took, or zero if it has not finished.
func (r CrawlRun) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
