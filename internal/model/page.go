package model

import "fmt"

// PageRange is the inclusive range of listing pages to visit.
// First and Last are whatever the pagination control displays at its two
// ends, so First is not necessarily 1.
type PageRange struct {
	First int `json:"first"`
	Last  int `json:"last"`
}

// Len returns the number of pages in the range, or 0 when Last < First.
func (r PageRange) Len() int {
	if r.Last < r.First {
		return 0
	}
	return r.Last - r.First + 1
}

// Contains reports whether page lies within the range.
func (r PageRange) Contains(page int) bool {
	return page >= r.First && page <= r.Last
}

// String formats the range as "[first,last]".
func (r PageRange) String() string {
	return fmt.Sprintf("[%d,%d]", r.First, r.Last)
}
