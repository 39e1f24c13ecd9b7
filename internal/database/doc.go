// Package database provides the SQLite archive of crawl runs.
//
// Every archived crawl gets a row in crawl_runs with its URL, page range,
// counters and final status, and every top-level comment tree it emitted
// is stored in comments with its page number and emission order. The
// archive backs the history, export and compare commands.
//
// SQLite is accessed through modernc.org/sqlite, a CGO-free driver, with
// a single connection and WAL journaling. The archive lives in the XDG
// data directory unless another directory is configured.
package database
