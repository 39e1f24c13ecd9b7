package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/nao1215/threadscrape/internal/model"
)

// label prefixes the progress text.
const label = "Collecting comments"

// Spinner reports crawl progress as "Collecting comments [3/9] 42 threads".
// It implements the crawler's Observer interface.
type Spinner struct {
	mu      sync.Mutex
	s       *spinner.Spinner
	pages   model.PageRange
	done    int
	records int
	started bool
}

// NewSpinner creates a Spinner that draws on w, usually os.Stderr.
// Nothing is drawn unless w is an *os.File attached to a terminal.
func NewSpinner(w io.Writer) *Spinner {
	var s *spinner.Spinner
	if f, ok := w.(*os.File); ok {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriterFile(f))
	} else {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
		s.Disable()
	}
	s.Suffix = " " + label
	return &Spinner{s: s}
}

// BoundsResolved starts the spinner once the number of pages is known.
func (p *Spinner) BoundsResolved(r model.PageRange) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pages = r
	p.refresh()
	if !p.started {
		p.s.Start()
		p.started = true
	}
}

// PageStarted is a no-op; progress moves when a page is done.
func (p *Spinner) PageStarted(int, string) {}

// RecordEmitted counts a written thread.
func (p *Spinner) RecordEmitted(int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.records++
	p.refresh()
}

// PageDone advances the page counter.
func (p *Spinner) PageDone(int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	p.refresh()
}

// DuplicateSkipped is a no-op.
func (p *Spinner) DuplicateSkipped(string) {}

// NodeFailed is a no-op.
func (p *Spinner) NodeFailed(string, error) {}

// Stop removes the spinner from the terminal.
func (p *Spinner) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		p.s.Stop()
		p.started = false
	}
}

// Text returns the current progress text.
func (p *Spinner) Text() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.s.Suffix
}

// refresh must be called with mu held.
func (p *Spinner) refresh() {
	suffix := fmt.Sprintf(" %s [%d/%d] %d threads", label, p.done, p.pages.Len(), p.records)
	p.s.Lock()
	p.s.Suffix = suffix
	p.s.Unlock()
}
