package crawler

import "sync"

// IdentitySet records comment identities seen during one crawl.
//
// The set is created once per crawl and shared by every page and every
// recursion level, so a comment is emitted at most once no matter where it
// reappears. Identities are never removed: a comment that fails to parse
// after registration still consumes its identity.
type IdentitySet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewIdentitySet returns an empty set.
func NewIdentitySet() *IdentitySet {
	return &IdentitySet{seen: make(map[string]struct{})}
}

// Add registers id and reports whether it was new. The check and the
// insert happen under one lock. The empty string is an identity like any
// other.
func (s *IdentitySet) Add(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[id]; ok {
		return false
	}
	s.seen[id] = struct{}{}
	return true
}

// Contains reports whether id has been registered.
func (s *IdentitySet) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.seen[id]
	return ok
}

// Len returns the number of registered identities.
func (s *IdentitySet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.seen)
}
