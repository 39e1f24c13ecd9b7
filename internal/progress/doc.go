// Package progress shows crawl progress on the terminal with a spinner.
package progress
