package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Chrome is a Session backed by Chrome over the DevTools protocol.
type Chrome struct {
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	opened      bool
	opts        options
}

// NewChrome launches a browser and opens one tab. The browser lives until
// Close is called or ctx is canceled.
func NewChrome(ctx context.Context, opts ...Option) (*Chrome, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocatorOptions(o)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		o.logger.Debug(fmt.Sprintf(format, args...), "component", "chromedp")
	}))

	c := &Chrome{
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		opts:        o,
	}

	// The first Run starts the browser process.
	if err := chromedp.Run(tabCtx); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}

	if headers := o.requestHeaders(); len(headers) > 0 {
		h := make(network.Headers, len(headers))
		for k, v := range headers {
			h[k] = v
		}
		if err := chromedp.Run(tabCtx, network.Enable(), network.SetExtraHTTPHeaders(h)); err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to set request headers: %w", err)
		}
	}

	return c, nil
}

func allocatorOptions(o options) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", !o.headful),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if o.execPath != "" {
		opts = append(opts, chromedp.ExecPath(o.execPath))
	}
	if o.proxy != "" {
		opts = append(opts, chromedp.ProxyServer(o.proxy))
	}
	if o.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(o.userAgent))
	}
	return opts
}

// run executes actions on the tab, aborting when either ctx or the tab
// is done.
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithCancel(c.tabCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Open navigates the tab to url and waits for the load event.
func (c *Chrome) Open(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, c.opts.navTimeout)
	defer cancel()

	if err := c.run(navCtx, chromedp.Navigate(url)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("%w: %s after %s", ErrNavigationTimeout, url, c.opts.navTimeout)
		}
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	c.opened = true
	return nil
}

// WaitUntilPresent waits for selector to match an element in the DOM.
func (c *Chrome) WaitUntilPresent(ctx context.Context, selector string, timeout time.Duration) error {
	if !c.opened {
		return ErrNotOpen
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := c.run(waitCtx, chromedp.WaitReady(selector, chromedp.ByQuery))
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w: %q after %s", ErrRenderTimeout, selector, timeout)
	}
	return err
}

// Document snapshots the current DOM.
func (c *Chrome) Document(ctx context.Context) (*goquery.Document, error) {
	if !c.opened {
		return nil, ErrNotOpen
	}

	var html string
	if err := c.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// Close shuts the browser down.
func (c *Chrome) Close() error {
	c.tabCancel()
	c.allocCancel()
	return nil
}
