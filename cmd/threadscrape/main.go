// Package main provides the entry point for the threadscrape CLI.
//
// threadscrape walks every page of a paginated comment listing in a real
// browser, rebuilds each thread as a tree, and writes one JSON line per
// top-level comment.
//
// Usage:
//
//	threadscrape crawl --pagination-url <url> [-o comments.jsonl]
//	threadscrape history
//	threadscrape export <run-id>
//	threadscrape compare <old> <new>
//
// See --help for all available options.
package main

func main() {
	Execute()
}
