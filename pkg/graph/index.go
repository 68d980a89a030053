package graph

import (
	"github.com/aretw0/arbor/pkg/domain"
)

// Index provides O(1) lookups over a flat node/edge list.
// It is built once per graph identity and must be rebuilt when the node or edge
// slices change. Value changes never require a rebuild.
type Index struct {
	nodes    []domain.Node
	byID     map[string]*domain.Node
	byName   map[string]*domain.Node
	edges    map[string]*domain.Edge
	outgoing map[string][]domain.Edge
	incoming map[string][]domain.Edge
}

// NewIndex builds the lookup maps in O(|nodes|+|edges|).
// On duplicate ids the first occurrence wins; the linter reports duplicates.
func NewIndex(nodes []domain.Node, edges []domain.Edge) *Index {
	idx := &Index{
		nodes:    nodes,
		byID:     make(map[string]*domain.Node, len(nodes)),
		byName:   make(map[string]*domain.Node),
		edges:    make(map[string]*domain.Edge, len(edges)),
		outgoing: make(map[string][]domain.Edge),
		incoming: make(map[string][]domain.Edge),
	}

	for i := range nodes {
		n := &nodes[i]
		if _, dup := idx.byID[n.ID]; !dup {
			idx.byID[n.ID] = n
		}
		if in, ok := n.Input(); ok && in.Name != "" {
			if _, dup := idx.byName[in.Name]; !dup {
				idx.byName[in.Name] = n
			}
		}
	}

	for i := range edges {
		e := &edges[i]
		if _, dup := idx.edges[e.ID]; !dup {
			idx.edges[e.ID] = e
		}
		idx.outgoing[e.Source] = append(idx.outgoing[e.Source], *e)
		idx.incoming[e.Target] = append(idx.incoming[e.Target], *e)
	}

	return idx
}

// FromGraph indexes a whole flow.
func FromGraph(g *domain.Graph) *Index {
	return NewIndex(g.Nodes, g.Edges)
}

// Node returns the node with the given id.
func (idx *Index) Node(id string) (*domain.Node, bool) {
	n, ok := idx.byID[id]
	return n, ok
}

// FieldNode resolves a condition field: first as a node id, then as an input name.
func (idx *Index) FieldNode(field string) (*domain.Node, bool) {
	if n, ok := idx.byID[field]; ok {
		return n, true
	}
	n, ok := idx.byName[field]
	return n, ok
}

// Edge returns the edge with the given id.
func (idx *Index) Edge(id string) (*domain.Edge, bool) {
	e, ok := idx.edges[id]
	return e, ok
}

// Outgoing returns the edges leaving id, in original array order.
func (idx *Index) Outgoing(id string) []domain.Edge {
	return idx.outgoing[id]
}

// Incoming returns the edges entering id, in original array order.
func (idx *Index) Incoming(id string) []domain.Edge {
	return idx.incoming[id]
}

// Nodes returns all nodes in original array order.
func (idx *Index) Nodes() []domain.Node {
	return idx.nodes
}

// InputNodes returns the input nodes in original array order.
func (idx *Index) InputNodes() []domain.Node {
	out := make([]domain.Node, 0, len(idx.nodes))
	for _, n := range idx.nodes {
		if n.Type == domain.NodeKindInput {
			out = append(out, n)
		}
	}
	return out
}

// StartNode picks the traversal root among nodes with no incoming edges.
// An input node is preferred; otherwise the first orphan in array order wins.
// It reports false when every node has an incoming edge.
func (idx *Index) StartNode() (string, bool) {
	first := ""
	for _, n := range idx.nodes {
		if len(idx.incoming[n.ID]) > 0 {
			continue
		}
		if n.Type == domain.NodeKindInput {
			return n.ID, true
		}
		if first == "" {
			first = n.ID
		}
	}
	return first, first != ""
}

// Sinks returns the ids of nodes without outgoing edges, in array order.
func (idx *Index) Sinks() []string {
	var out []string
	for _, n := range idx.nodes {
		if len(idx.outgoing[n.ID]) == 0 {
			out = append(out, n.ID)
		}
	}
	return out
}
