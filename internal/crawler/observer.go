package crawler

import "github.com/nao1215/threadscrape/internal/model"

// Observer receives crawl progress notifications. Implementations must be
// cheap: they run inline on the crawl loop.
//
// Node failures and duplicates are reported here and nowhere else; the
// crawler itself does not log them.
type Observer interface {
	// BoundsResolved is called once with the page range to visit.
	BoundsResolved(r model.PageRange)

	// PageStarted is called before navigating to a page.
	PageStarted(page int, url string)

	// RecordEmitted is called after each top-level record is written.
	RecordEmitted(page int)

	// PageDone is called after every record of a page was emitted.
	PageDone(page int, records int)

	// DuplicateSkipped is called for a comment whose identity was seen.
	DuplicateSkipped(identity string)

	// NodeFailed is called for a comment dropped because of err.
	NodeFailed(identity string, err error)
}

// NopObserver ignores every notification. Embed it to implement only the
// methods you need.
type NopObserver struct{}

func (NopObserver) BoundsResolved(model.PageRange) {}
func (NopObserver) PageStarted(int, string)        {}
func (NopObserver) RecordEmitted(int)              {}
func (NopObserver) PageDone(int, int)              {}
func (NopObserver) DuplicateSkipped(string)        {}
func (NopObserver) NodeFailed(string, error)       {}

// Observers fans notifications out to several observers in order.
// Nil entries are skipped.
func Observers(obs ...Observer) Observer {
	out := make(multiObserver, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

type multiObserver []Observer

func (m multiObserver) BoundsResolved(r model.PageRange) {
	for _, o := range m {
		o.BoundsResolved(r)
	}
}

func (m multiObserver) PageStarted(page int, url string) {
	for _, o := range m {
		o.PageStarted(page, url)
	}
}

func (m multiObserver) RecordEmitted(page int) {
	for _, o := range m {
		o.RecordEmitted(page)
	}
}

func (m multiObserver) PageDone(page int, records int) {
	for _, o := range m {
		o.PageDone(page, records)
	}
}

func (m multiObserver) DuplicateSkipped(identity string) {
	for _, o := range m {
		o.DuplicateSkipped(identity)
	}
}

func (m multiObserver) NodeFailed(identity string, err error) {
	for _, o := range m {
		o.NodeFailed(identity, err)
	}
}

// summaryObserver tallies a Summary and forwards to next.
type summaryObserver struct {
	summary *Summary
	next    Observer
}

func (s *summaryObserver) BoundsResolved(r model.PageRange) {
	s.summary.Range = r
	s.next.BoundsResolved(r)
}

func (s *summaryObserver) PageStarted(page int, url string) {
	s.next.PageStarted(page, url)
}

func (s *summaryObserver) RecordEmitted(page int) {
	s.summary.Records++
	s.next.RecordEmitted(page)
}

func (s *summaryObserver) PageDone(page int, records int) {
	s.summary.Pages++
	s.next.PageDone(page, records)
}

func (s *summaryObserver) DuplicateSkipped(identity string) {
	s.summary.Duplicates++
	s.next.DuplicateSkipped(identity)
}

func (s *summaryObserver) NodeFailed(identity string, err error) {
	s.summary.Failures++
	s.next.NodeFailed(identity, err)
}
