// Package browser drives a real browser so that script-rendered listings
// can be read after their comments appear.
//
// Two drivers are available:
//
//   - Chrome talks to a local Chrome or Chromium over the DevTools
//     protocol (chromedp). It is the default.
//   - Playwright uses the Playwright driver and its managed Chromium.
//
// Both keep a single tab open for their whole life and satisfy the
// crawler's Browser interface. A wait that runs out returns an error
// wrapping ErrRenderTimeout.
//
// Extra request headers, a cookie, a user agent and an upstream proxy can
// be set with Options. The proxy is how Tor is wired in: pass the SOCKS
// address of a running Tor daemon.
package browser
