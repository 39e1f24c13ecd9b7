package crawler

import (
	"errors"
	"fmt"
)

// Fatal crawl errors. Any of them aborts Run; records already emitted stay.
var (
	// ErrNoPagination is returned when the pagination control is missing
	// from the listing page.
	ErrNoPagination = errors.New("pagination control not found")

	// ErrInvalidPageMarker is returned when a pagination marker does not
	// display an integer.
	ErrInvalidPageMarker = errors.New("pagination marker is not a number")

	// ErrInvertedBounds is returned when the first marker is greater than
	// the last one.
	ErrInvertedBounds = errors.New("first page is after last page")
)

// Node-level outcomes. They never abort a crawl.
var (
	// ErrDuplicateIdentity reports a comment whose identity was already
	// seen in this crawl. The comment and its replies are skipped.
	ErrDuplicateIdentity = errors.New("duplicate comment identity")

	// ErrMissingElement is returned in strict mode when a comment lacks one
	// of its user, body, vote or time elements.
	ErrMissingElement = errors.New("missing comment element")

	// ErrInvalidVotes is returned when vote text has no parsable number.
	ErrInvalidVotes = errors.New("invalid vote count")
)

// NodeError is the failure of a single comment. The comment and its
// subtree are dropped and its siblings are unaffected.
type NodeError struct {
	// Identity of the failed comment, possibly empty.
	Identity string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	return fmt.Sprintf("comment %q: %v", e.Identity, e.Err)
}

// Unwrap returns the underlying cause.
func (e *NodeError) Unwrap() error {
	return e.Err
}
