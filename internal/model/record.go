package model

// Record is a top-level comment tree together with where it was found.
type Record struct {
	// Seq is the 0-based emission order within a run.
	Seq int `json:"seq"`

	// Page is the listing page the tree was extracted from.
	Page int `json:"page"`

	// Identity of the top-level comment.
	Identity string `json:"identity"`

	// Node is the comment tree.
	Node CommentNode `json:"node"`
}

// Nodes returns the comment trees of records in order.
func Nodes(records []Record) []CommentNode {
	out := make([]CommentNode, len(records))
	for i, r := range records {
		out[i] = r.Node
	}
	return out
}
