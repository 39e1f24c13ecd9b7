// Package report writes crawl output.
//
// The primary output is JSON Lines: JSONLEmitter writes one comment tree
// per line, in the order the crawler discovers them, and flushes each line
// before the crawl moves on. The other writers work on archived runs:
//
//   - MarkdownWriter: a readable export of one run
//   - SimpleWriter: plain text run summaries for the terminal
//   - Diff: a line diff between the records of two runs
//
// MultiEmitter fans records out to several emitters, for example the
// output file and the archive.
package report
