package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// CommentNode is a single comment extracted from a listing page together
// with its direct replies.
//
// The JSON shape is fixed because downstream consumers depend on it:
//
//	{"user": "...", "content": "...", "votes": 12 | "", "date": "..." | null, "responses": [...]}
//
// Identity is kept out of the record; it only drives deduplication.
type CommentNode struct {
	// Identity is the trimmed value of the comment's identity attribute.
	// It may be empty when the page does not provide one.
	Identity string `json:"-"`

	// User is the trimmed author label, or "" when absent.
	User string `json:"user"`

	// Content is the trimmed comment body, or "" when absent.
	Content string `json:"content"`

	// Votes is the parsed vote count. An absent count is written as "".
	Votes Votes `json:"votes"`

	// Date is the raw timestamp from the page. Nil is written as null.
	Date *string `json:"date"`

	// Responses are the direct replies in document order.
	Responses []CommentNode `json:"responses"`
}

// MarshalJSON writes the node with an empty responses array instead of
// null when the node has no replies. HTML characters in comment text are
// written as-is.
func (n CommentNode) MarshalJSON() ([]byte, error) {
	type alias CommentNode
	out := alias(n)
	if out.Responses == nil {
		out.Responses = []CommentNode{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Count returns the number of nodes in the tree rooted at n, n included.
func (n CommentNode) Count() int {
	total := 1
	for _, r := range n.Responses {
		total += r.Count()
	}
	return total
}

// Walk visits n and every descendant depth first in document order.
// depth is 0 for n itself.
func (n CommentNode) Walk(fn func(node CommentNode, depth int)) {
	n.walk(fn, 0)
}

func (n CommentNode) walk(fn func(node CommentNode, depth int), depth int) {
	fn(n, depth)
	for _, r := range n.Responses {
		r.walk(fn, depth+1)
	}
}

// StringPtr returns a pointer to s. It is a helper for building Date values.
func StringPtr(s string) *string {
	return &s
}

// Votes is a vote count that distinguishes "no vote text on the page"
// from a legitimate zero.
type Votes struct {
	value int
	valid bool
}

// VoteCount returns a present vote count of n.
func VoteCount(n int) Votes {
	return Votes{value: n, valid: true}
}

// NoVotes returns the absent vote count.
func NoVotes() Votes {
	return Votes{}
}

// Value returns the count and whether it is present.
func (v Votes) Value() (int, bool) {
	return v.value, v.valid
}

// Present reports whether the count was found on the page.
func (v Votes) Present() bool {
	return v.valid
}

// String returns the decimal count, or "" when absent.
func (v Votes) String() string {
	if !v.valid {
		return ""
	}
	return strconv.Itoa(v.value)
}

// MarshalJSON writes the count as a JSON number, or "" when absent.
func (v Votes) MarshalJSON() ([]byte, error) {
	if !v.valid {
		return []byte(`""`), nil
	}
	return []byte(strconv.Itoa(v.value)), nil
}

// UnmarshalJSON accepts a JSON number or the "" sentinel. Archived runs
// are decoded through this path.
func (v *Votes) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*v = VoteCount(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*v = NoVotes()
		return nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*v = VoteCount(n)
	return nil
}
