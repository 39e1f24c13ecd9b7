package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/threadscrape/internal/model"
)

// Default crawl settings.
const (
	// DefaultMaxWait is the upper bound of the random pause between pages.
	DefaultMaxWait = 30 * time.Second

	// DefaultRenderTimeout bounds the wait for the comment container.
	DefaultRenderTimeout = 10 * time.Second

	// DefaultPageParam is the query parameter carrying the page index.
	DefaultPageParam = "page"
)

// Browser is the page-rendering collaborator. Open navigates the session,
// WaitUntilPresent blocks until an element matching selector exists or
// timeout elapses, and Document snapshots the rendered DOM.
type Browser interface {
	Open(ctx context.Context, url string) error
	WaitUntilPresent(ctx context.Context, selector string, timeout time.Duration) error
	Document(ctx context.Context) (*goquery.Document, error)
}

// Emitter receives top-level comment trees in discovery order.
// An Emit error aborts the crawl.
type Emitter interface {
	Emit(ctx context.Context, page int, node model.CommentNode) error
}

// Summary describes a finished or aborted crawl.
type Summary struct {
	Range      model.PageRange
	Pages      int
	Records    int
	Duplicates int
	Failures   int
}

// Crawler walks every page of a paginated comment listing and emits each
// top-level comment tree as soon as its page is extracted.
//
// Pages are fetched strictly one after another. Between two pages the
// crawler pauses for a random duration in [0, maxWait) to spread load on
// the upstream server.
type Crawler struct {
	browser       Browser
	emitter       Emitter
	selectors     model.Selectors
	maxWait       time.Duration
	renderTimeout time.Duration
	pageParam     string
	observer      Observer
	random        func() float64
	sleep         func(ctx context.Context, d time.Duration) error
	logger        *slog.Logger
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithSelectors sets the DOM selectors. The zero value keeps the defaults.
func WithSelectors(sel model.Selectors) Option {
	return func(c *Crawler) {
		c.selectors = model.DefaultSelectors().Merge(sel)
	}
}

// WithMaxWait sets the upper bound of the pause between pages.
// Zero disables the pause.
func WithMaxWait(d time.Duration) Option {
	return func(c *Crawler) {
		c.maxWait = d
	}
}

// WithRenderTimeout sets how long to wait for the comment container.
func WithRenderTimeout(d time.Duration) Option {
	return func(c *Crawler) {
		c.renderTimeout = d
	}
}

// WithPageParam sets the query parameter carrying the page index.
func WithPageParam(name string) Option {
	return func(c *Crawler) {
		c.pageParam = name
	}
}

// WithObserver registers an observer for progress and per-node outcomes.
func WithObserver(o Observer) Option {
	return func(c *Crawler) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithRandom replaces the source of the pause jitter. fn must return
// values in [0, 1).
func WithRandom(fn func() float64) Option {
	return func(c *Crawler) {
		c.random = fn
	}
}

// WithSleepFunc replaces the pause implementation.
func WithSleepFunc(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Crawler) {
		c.sleep = fn
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = l
	}
}

// New creates a Crawler that renders pages with b and writes records to e.
func New(b Browser, e Emitter, opts ...Option) *Crawler {
	c := &Crawler{
		browser:       b,
		emitter:       e,
		selectors:     model.DefaultSelectors(),
		maxWait:       DefaultMaxWait,
		renderTimeout: DefaultRenderTimeout,
		pageParam:     DefaultPageParam,
		observer:      NopObserver{},
		random:        rand.Float64,
		sleep:         sleepContext,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Run crawls the listing at baseURL.
//
// It resolves the page range from the listing itself, then visits every
// page in ascending order. A navigation error, a render timeout, an
// unreadable page range or an emitter error aborts the crawl; records
// emitted before that are not taken back. Comments that fail to parse are
// dropped without aborting anything.
//
// The returned Summary is filled in as far as the crawl got.
func (c *Crawler) Run(ctx context.Context, baseURL string) (Summary, error) {
	var summary Summary
	stats := &summaryObserver{summary: &summary, next: c.observer}
	parser := NewParser(c.selectors, stats)

	pages, err := c.resolveBounds(ctx, baseURL)
	if err != nil {
		return summary, err
	}
	stats.BoundsResolved(pages)
	c.logger.Info("resolved page range", "url", baseURL, "first", pages.First, "last", pages.Last)

	// One identity set for the whole crawl; never reset between pages.
	seen := NewIdentitySet()

	for page := pages.First; page <= pages.Last; page++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		if err := c.crawlPage(ctx, parser, stats, seen, baseURL, page); err != nil {
			return summary, err
		}

		if page == pages.Last {
			break
		}
		delay := c.jitter()
		c.logger.Debug("pausing before next page", "page", page, "delay", delay)
		if err := c.sleep(ctx, delay); err != nil {
			return summary, err
		}
	}

	return summary, nil
}

func (c *Crawler) resolveBounds(ctx context.Context, baseURL string) (model.PageRange, error) {
	if err := c.browser.Open(ctx, baseURL); err != nil {
		return model.PageRange{}, fmt.Errorf("opening listing %s: %w", baseURL, err)
	}

	marker := c.selectors.PaginationMarker
	if err := c.browser.WaitUntilPresent(ctx, marker, c.renderTimeout); err != nil {
		if ctx.Err() != nil {
			return model.PageRange{}, fmt.Errorf("waiting for %q: %w", marker, err)
		}
		return model.PageRange{}, fmt.Errorf("%w: waiting for %q: %w", ErrNoPagination, marker, err)
	}

	doc, err := c.browser.Document(ctx)
	if err != nil {
		return model.PageRange{}, fmt.Errorf("reading listing %s: %w", baseURL, err)
	}
	return ResolveBounds(doc, marker)
}

func (c *Crawler) crawlPage(ctx context.Context, parser *Parser, stats Observer, seen *IdentitySet, baseURL string, page int) error {
	pageURL, err := PageURL(baseURL, c.pageParam, page)
	if err != nil {
		return err
	}
	stats.PageStarted(page, pageURL)
	c.logger.Debug("fetching page", "page", page, "url", pageURL)

	if err := c.browser.Open(ctx, pageURL); err != nil {
		return fmt.Errorf("page %d: opening %s: %w", page, pageURL, err)
	}
	if err := c.browser.WaitUntilPresent(ctx, c.selectors.Container, c.renderTimeout); err != nil {
		return fmt.Errorf("page %d: waiting for %q: %w", page, c.selectors.Container, err)
	}

	doc, err := c.browser.Document(ctx)
	if err != nil {
		return fmt.Errorf("page %d: reading document: %w", page, err)
	}

	forest := parser.ExtractForest(parser.TopLevel(doc.Selection), seen)
	for _, node := range forest {
		if err := c.emitter.Emit(ctx, page, node); err != nil {
			return fmt.Errorf("page %d: emitting record: %w", page, err)
		}
		stats.RecordEmitted(page)
	}
	stats.PageDone(page, len(forest))

	return nil
}

// jitter draws the pause before the next page from [0, maxWait).
func (c *Crawler) jitter() time.Duration {
	if c.maxWait <= 0 {
		return 0
	}
	return time.Duration(c.random() * float64(c.maxWait))
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
