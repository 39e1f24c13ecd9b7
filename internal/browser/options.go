package browser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Driver names accepted by New.
const (
	DriverChromedp   = "chromedp"
	DriverPlaywright = "playwright"
)

// Session is one browser tab.
type Session interface {
	// Open navigates to url and returns once the page has loaded.
	Open(ctx context.Context, url string) error

	// WaitUntilPresent blocks until an element matching the CSS selector
	// exists or timeout elapses.
	WaitUntilPresent(ctx context.Context, selector string, timeout time.Duration) error

	// Document returns a snapshot of the rendered DOM.
	Document(ctx context.Context) (*goquery.Document, error)

	// Close shuts the tab and the browser down.
	Close() error
}

// DefaultNavigationTimeout bounds how long Open waits for the load event.
const DefaultNavigationTimeout = time.Minute

// options holds the settings shared by all drivers.
type options struct {
	execPath   string
	proxy      string
	userAgent  string
	cookie     string
	headers    map[string]string
	headful    bool
	navTimeout time.Duration
	logger     *slog.Logger
}

// Option configures a Session.
type Option func(*options)

func defaultOptions() options {
	return options{
		headers:    make(map[string]string),
		navTimeout: DefaultNavigationTimeout,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithExecPath sets the browser executable. Empty means auto-detect.
func WithExecPath(path string) Option {
	return func(o *options) {
		o.execPath = path
	}
}

// WithProxy routes all browser traffic through proxyURL, for example
// "socks5://127.0.0.1:9050".
func WithProxy(proxyURL string) Option {
	return func(o *options) {
		o.proxy = proxyURL
	}
}

// WithUserAgent overrides the browser's user agent.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

// WithCookie sends cookie as the Cookie header on every request.
func WithCookie(cookie string) Option {
	return func(o *options) {
		o.cookie = cookie
	}
}

// WithHeaders adds extra request headers. Later calls add to or replace
// earlier ones.
func WithHeaders(h map[string]string) Option {
	return func(o *options) {
		maps.Copy(o.headers, h)
	}
}

// WithHeadful shows the browser window.
func WithHeadful(headful bool) Option {
	return func(o *options) {
		o.headful = headful
	}
}

// WithNavigationTimeout bounds each Open call. Values <= 0 are ignored.
func WithNavigationTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.navTimeout = d
		}
	}
}

// WithLogger sets the logger for browser diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// requestHeaders returns the extra headers to send, with the cookie folded
// in and names canonicalized.
func (o options) requestHeaders() map[string]string {
	out := make(map[string]string, len(o.headers)+1)
	for k, v := range o.headers {
		out[http.CanonicalHeaderKey(k)] = v
	}
	if o.cookie != "" {
		out["Cookie"] = o.cookie
	}
	return out
}

// New starts a session with the named driver.
func New(ctx context.Context, driver string, opts ...Option) (Session, error) {
	switch driver {
	case "", DriverChromedp:
		return NewChrome(ctx, opts...)
	case DriverPlaywright:
		return NewPlaywright(opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
