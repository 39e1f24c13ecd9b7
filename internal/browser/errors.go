package browser

import "errors"

var (
	// ErrRenderTimeout is returned when an awaited element does not appear
	// within the render timeout.
	ErrRenderTimeout = errors.New("timed out waiting for page to render")

	// ErrNavigationTimeout is returned when a page does not finish loading
	// within the navigation timeout.
	ErrNavigationTimeout = errors.New("timed out waiting for page to load")

	// ErrNotOpen is returned when the document is requested before any page
	// was opened.
	ErrNotOpen = errors.New("no page is open")

	// ErrUnknownDriver is returned by New for an unsupported driver name.
	ErrUnknownDriver = errors.New("unknown browser driver")
)
