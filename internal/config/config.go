package config

import (
	"net/url"
	"path/filepath"
	"slices"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultWaiting is the upper bound of the random pause between two
	// listing pages. The actual pause is drawn uniformly from [0, DefaultWaiting).
	DefaultWaiting = 30 * time.Second

	// DefaultRenderTimeout bounds the wait for the comment container to
	// appear after navigation. Exceeding it aborts the crawl.
	DefaultRenderTimeout = 10 * time.Second

	// DefaultNavigationTimeout bounds the wait for a page's load event.
	DefaultNavigationTimeout = time.Minute

	// DefaultPageParam is the query parameter carrying the page index.
	DefaultPageParam = "page"

	// DefaultDriver is the browser automation backend.
	DefaultDriver = DriverChromedp

	// DefaultTorStartupTimeout is the maximum time to wait for the embedded
	// Tor daemon to bootstrap when --tor is used.
	DefaultTorStartupTimeout = 3 * time.Minute

	// AppName is the application name used for XDG directory paths.
	AppName = "threadscrape"
)

// Supported browser drivers.
const (
	// DriverChromedp drives a local Chrome or Chromium over the DevTools protocol.
	DriverChromedp = "chromedp"

	// DriverPlaywright drives Chromium through the Playwright server.
	DriverPlaywright = "playwright"
)

// Drivers lists the accepted values of Config.Driver.
var Drivers = []string{DriverChromedp, DriverPlaywright}

// Config holds all options of a crawl.
// It is populated from defaults, .env overrides, CLI flags, and the site
// configuration file, in that order, and then passed down explicitly.
type Config struct {
	// PaginationURL is the listing URL. Page N is fetched by setting
	// PageParam=N in its query string.
	PaginationURL string

	// OutputFile receives the JSONL records. Empty means standard output.
	// An existing file is truncated.
	OutputFile string

	// Waiting is the maximum random pause between pages.
	Waiting time.Duration

	// RenderTimeout bounds the wait for the comment container.
	RenderTimeout time.Duration

	// NavigationTimeout bounds each page load. Exceeding it aborts the crawl.
	NavigationTimeout time.Duration

	// PageParam is the query parameter name for the page index.
	PageParam string

	// Driver selects the browser backend (chromedp or playwright).
	Driver string

	// ChromePath overrides the browser executable used by chromedp.
	ChromePath string

	// Headful shows the browser window instead of running headless.
	Headful bool

	// ProxyURL is passed to the browser, e.g. socks5://127.0.0.1:9050.
	ProxyURL string

	// UseTor starts an embedded Tor daemon and routes the browser through it.
	// Mutually exclusive with ProxyURL.
	UseTor bool

	// TorStartupTimeout bounds the embedded Tor bootstrap.
	TorStartupTimeout time.Duration

	// UserAgent overrides the browser user agent when not empty.
	UserAgent string

	// ConfigFilePath is the site configuration file. When empty the tool
	// looks for .threadscrape in the current and home directories.
	ConfigFilePath string

	// Sites holds the parsed site configuration file.
	Sites *File

	// Archive stores the run and its records in the SQLite archive.
	Archive bool

	// DBDir is the directory of the archive database.
	// Defaults to the XDG data directory.
	DBDir string

	// MetricsFile, when set, receives crawl counters in Prometheus text format
	// after the crawl ends.
	MetricsFile string

	// Progress shows a spinner on standard error while crawling.
	Progress bool

	// Verbose enables debug logging.
	Verbose bool
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Waiting:           DefaultWaiting,
		RenderTimeout:     DefaultRenderTimeout,
		NavigationTimeout: DefaultNavigationTimeout,
		PageParam:         DefaultPageParam,
		Driver:            DefaultDriver,
		TorStartupTimeout: DefaultTorStartupTimeout,
		DBDir:             XDGDataDir(),
		Progress:          true,
		Sites:             NewFile(),
	}
}

// XDGDataDir returns the XDG data directory for threadscrape.
// On Linux: ~/.local/share/threadscrape
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for threadscrape.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if c.PaginationURL == "" {
		return ErrNoURL
	}

	u, err := url.Parse(c.PaginationURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}

	// A zero wait is allowed and disables the pause.
	if c.Waiting < 0 {
		return ErrInvalidWaiting
	}

	if c.RenderTimeout <= 0 {
		return ErrInvalidRenderTimeout
	}

	if c.NavigationTimeout <= 0 {
		return ErrInvalidNavigationTimeout
	}

	if c.PageParam == "" {
		return ErrInvalidPageParam
	}

	if !slices.Contains(Drivers, c.Driver) {
		return ErrUnknownDriver
	}

	if c.ProxyURL != "" {
		if c.UseTor {
			return ErrConflictingProxy
		}
		p, err := url.Parse(c.ProxyURL)
		if err != nil || p.Host == "" || !slices.Contains([]string{"http", "https", "socks5"}, p.Scheme) {
			return ErrInvalidProxy
		}
	}

	if c.Archive && c.DBDir == "" {
		return ErrNoDBDir
	}

	if c.Sites != nil {
		return c.Sites.Validate()
	}
	return nil
}

// Host returns the host part of PaginationURL, used to look up the site
// configuration. It returns "" when the URL cannot be parsed.
func (c *Config) Host() string {
	u, err := url.Parse(c.PaginationURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// Site returns the effective site configuration for PaginationURL.
func (c *Config) Site() SiteConfig {
	if c.Sites == nil {
		return NewFile().GetSiteConfig(c.Host())
	}
	return c.Sites.GetSiteConfig(c.Host())
}
