package config

import "errors"

// Configuration validation errors returned by Config.Validate and
// File.Validate. Callers match them with errors.Is.
var (
	// ErrNoURL is returned when --pagination-url is missing.
	ErrNoURL = errors.New("no pagination URL specified: use --pagination-url")

	// ErrInvalidURL is returned when the pagination URL is not an absolute
	// http or https URL.
	ErrInvalidURL = errors.New("invalid pagination URL: must be an absolute http(s) URL")

	// ErrInvalidWaiting is returned when the inter-page wait is negative.
	// Use 0 to disable the pause.
	ErrInvalidWaiting = errors.New("invalid waiting: must be non-negative")

	// ErrInvalidRenderTimeout is returned when the render timeout is not positive.
	ErrInvalidRenderTimeout = errors.New("invalid render timeout: must be positive")

	// ErrInvalidNavigationTimeout is returned when the navigation timeout is not positive.
	ErrInvalidNavigationTimeout = errors.New("invalid navigation timeout: must be positive")

	// ErrInvalidPageParam is returned when the page query parameter is empty.
	ErrInvalidPageParam = errors.New("invalid page parameter: must not be empty")

	// ErrUnknownDriver is returned for a --driver value other than chromedp or playwright.
	ErrUnknownDriver = errors.New("unknown browser driver: use chromedp or playwright")

	// ErrInvalidProxy is returned when the proxy is not an http, https or socks5 URL.
	ErrInvalidProxy = errors.New("invalid proxy: expected scheme://host:port with http, https or socks5")

	// ErrConflictingProxy is returned when both --proxy and --tor are given.
	ErrConflictingProxy = errors.New("conflicting proxy settings: --proxy and --tor cannot be used together")

	// ErrNoDBDir is returned when archiving is enabled without a database directory.
	ErrNoDBDir = errors.New("archive enabled but no database directory configured")

	// ErrInvalidSiteConfig is returned when the site configuration file
	// fails validation. The wrapped error names the offending field.
	ErrInvalidSiteConfig = errors.New("invalid site configuration")
)
