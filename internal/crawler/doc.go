// Package crawler extracts comment trees from a paginated, script-rendered
// comment listing.
//
// # Components
//
//   - ResolveBounds: reads the first and last page numbers from the
//     pagination control of the listing.
//   - Parser: turns one rendered comment element into a CommentNode,
//     recursing into its replies.
//   - Crawler: visits every page in order, waits for it to render, extracts
//     the top-level comments and hands each tree to an Emitter.
//
// # Deduplication
//
// Listings repeat comments: a reply can appear both nested and at the top
// level, and a busy thread can shift a comment onto the next page between
// two requests. A single IdentitySet is shared by the whole crawl. An
// identity is registered before the comment is parsed, the first
// occurrence wins, and a duplicate is skipped together with all of its
// replies.
//
// # Failure handling
//
// A comment that cannot be parsed is dropped with its subtree and its
// siblings carry on. Crawl-level problems (no pagination control, a page
// that does not render in time, an emitter error) abort Run.
//
// # Usage
//
//	c := crawler.New(browser, emitter, crawler.WithMaxWait(30*time.Second))
//	summary, err := c.Run(ctx, "https://example.com/thread?id=42")
package crawler
