package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/playwright-community/playwright-go"
)

// Playwright is a Session backed by the Playwright driver.
//
// Playwright calls are not cancelable mid-flight; ctx is checked before
// each call. The navigation and render timeouts bound every wait.
type Playwright struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	opened  bool
	opts    options
}

// NewPlaywright starts the Playwright driver and a Chromium instance.
// The driver and browser must have been installed beforehand, for
// example with "go run github.com/playwright-community/playwright-go/cmd/playwright install chromium".
func NewPlaywright(opts ...Option) (*Playwright, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}
	p := &Playwright{pw: pw, opts: o}

	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(!o.headful),
	}
	if o.execPath != "" {
		launch.ExecutablePath = playwright.String(o.execPath)
	}
	if o.proxy != "" {
		launch.Proxy = &playwright.Proxy{Server: o.proxy}
	}

	p.browser, err = pw.Chromium.Launch(launch)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to launch chromium: %w", err)
	}

	ctxOpts := playwright.BrowserNewContextOptions{}
	if o.userAgent != "" {
		ctxOpts.UserAgent = playwright.String(o.userAgent)
	}
	if headers := o.requestHeaders(); len(headers) > 0 {
		ctxOpts.ExtraHttpHeaders = headers
	}

	p.context, err = p.browser.NewContext(ctxOpts)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	p.page, err = p.context.NewPage()
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	o.logger.Debug("playwright session started", "headless", !o.headful, "proxy", o.proxy)
	return p, nil
}

// Open navigates the page to url.
func (p *Playwright) Open(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		Timeout: playwright.Float(float64(p.opts.navTimeout.Milliseconds())),
	})
	if err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			return fmt.Errorf("%w: %s after %s", ErrNavigationTimeout, url, p.opts.navTimeout)
		}
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	p.opened = true
	return nil
}

// WaitUntilPresent waits for selector to be attached to the DOM.
func (p *Playwright) WaitUntilPresent(ctx context.Context, selector string, timeout time.Duration) error {
	if !p.opened {
		return ErrNotOpen
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := p.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %q after %s", ErrRenderTimeout, selector, timeout)
	}
	return err
}

// Document snapshots the current DOM.
func (p *Playwright) Document(ctx context.Context) (*goquery.Document, error) {
	if !p.opened {
		return nil, ErrNotOpen
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	html, err := p.page.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// Close shuts the page, the browser and the driver down.
func (p *Playwright) Close() error {
	var errs []error
	if p.context != nil {
		errs = append(errs, p.context.Close())
	}
	if p.browser != nil {
		errs = append(errs, p.browser.Close())
	}
	if p.pw != nil {
		errs = append(errs, p.pw.Stop())
	}
	return errors.Join(errs...)
}
