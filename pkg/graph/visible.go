package graph

import "github.com/aretw0/arbor/pkg/domain"

// VisibleSet is the set of node ids produced by a traversal pass.
// It carries no order; use Ordered or BuildTree to render.
type VisibleSet map[string]struct{}

// NewVisibleSet returns a set holding ids.
func NewVisibleSet(ids ...string) VisibleSet {
	s := make(VisibleSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is visible.
func (s VisibleSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add marks id as visible.
func (s VisibleSet) Add(id string) {
	s[id] = struct{}{}
}

// Ordered returns the visible ids in the array order of nodes.
func (s VisibleSet) Ordered(nodes []domain.Node) []string {
	out := make([]string, 0, len(s))
	seen := make(map[string]bool, len(s))
	for _, n := range nodes {
		if s.Has(n.ID) && !seen[n.ID] {
			seen[n.ID] = true
			out = append(out, n.ID)
		}
	}
	return out
}

// Equal reports whether both sets hold the same ids.
func (s VisibleSet) Equal(other VisibleSet) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if !other.Has(id) {
			return false
		}
	}
	return true
}
