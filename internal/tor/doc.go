// Package tor routes the browser through Tor or another SOCKS5 proxy.
//
// EmbeddedTor starts a private Tor daemon with tornago and exposes its
// SOCKS address. Client checks, before a crawl starts, that a SOCKS5 proxy
// answers and can reach the target site, so a dead proxy fails the crawl
// up front instead of as a navigation error on the first page.
package tor
