// Package model defines the data structures shared by the crawler, the
// emitters and the run archive.
//
// This package contains the following main types:
//   - CommentNode: one extracted comment with its nested replies
//   - Votes: a vote count that can be absent
//   - PageRange: the inclusive page interval resolved from a listing
//   - CrawlRun: metadata of an archived crawl
//
// Keeping these types in their own package lets crawler, report and
// database depend on them without importing each other.
package model
