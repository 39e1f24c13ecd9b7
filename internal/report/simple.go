package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/threadscrape/internal/model"
)

// SimpleWriter outputs plain text run summaries for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose adds the URL and error columns to run listings.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// WriteRun outputs a summary of one run.
func (w *SimpleWriter) WriteRun(run model.CrawlRun) (int, error) {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", 60) + "\n")
	sb.WriteString("CRAWL SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 60) + "\n")
	if run.ID != "" {
		fmt.Fprintf(&sb, "Run:         %s\n", run.ID)
	}
	fmt.Fprintf(&sb, "URL:         %s\n", run.URL)
	fmt.Fprintf(&sb, "Status:      %s\n", run.Status)
	fmt.Fprintf(&sb, "Page range:  %s\n", run.Range)
	fmt.Fprintf(&sb, "Pages:       %d\n", run.Pages)
	fmt.Fprintf(&sb, "Threads:     %d\n", run.Records)
	fmt.Fprintf(&sb, "Duplicates:  %d\n", run.Duplicates)
	fmt.Fprintf(&sb, "Failures:    %d\n", run.Failures)
	if d := run.Duration(); d > 0 {
		fmt.Fprintf(&sb, "Duration:    %s\n", d.Round(time.Second))
	}
	if run.Error != "" {
		fmt.Fprintf(&sb, "Error:       %s\n", run.Error)
	}

	return io.WriteString(w.output, sb.String())
}

// WriteRuns outputs a table of runs, newest first as given.
func (w *SimpleWriter) WriteRuns(runs []model.CrawlRun) (int, error) {
	var sb strings.Builder

	if len(runs) == 0 {
		sb.WriteString("No crawl runs found in the archive.\n")
		return io.WriteString(w.output, sb.String())
	}

	fmt.Fprintf(&sb, "Crawl runs (%d):\n\n", len(runs))
	fmt.Fprintf(&sb, "  %-36s  %-19s  %-9s  %7s  %6s\n", "ID", "Started", "Status", "Threads", "Pages")
	sb.WriteString("  " + strings.Repeat("-", 85) + "\n")
	for _, r := range runs {
		fmt.Fprintf(&sb, "  %-36s  %-19s  %-9s  %7d  %6d\n",
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.Status,
			r.Records,
			r.Pages,
		)
		if w.verbose {
			fmt.Fprintf(&sb, "      %s\n", r.URL)
			if r.Error != "" {
				fmt.Fprintf(&sb, "      error: %s\n", r.Error)
			}
		}
	}

	return io.WriteString(w.output, sb.String())
}
