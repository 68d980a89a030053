package runtime

import (
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/graph"
)

// Traversal is the outcome of one visibility pass.
type Traversal struct {
	Visible graph.VisibleSet
	// ActiveEdges lists the edges followed during the pass, in visit order.
	ActiveEdges []string
}

// FindVisibleNodes returns the ids reachable from startID under the current values.
// It is a pure function of its inputs.
func FindVisibleNodes(startID string, idx *graph.Index, values domain.Values) graph.VisibleSet {
	return Traverse(startID, idx, values).Visible
}

// Traverse walks the graph breadth-first from startID.
//
// An input node without a value stops the walk on its branch. Unconditional edges are
// always followed. Conditional edges wait until every field referenced by the regular
// (non-fallback) edges is filled; then every matching regular edge is followed, or the
// fallback edges when nothing matched. Each node is processed at most once, so cycles
// terminate.
func Traverse(startID string, idx *graph.Index, values domain.Values) *Traversal {
	t := &Traversal{Visible: graph.NewVisibleSet()}
	if idx == nil {
		return t
	}
	if _, ok := idx.Node(startID); !ok {
		return t
	}

	visited := make(map[string]bool)
	queue := []string{startID}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		if visited[id] {
			continue
		}
		visited[id] = true
		t.Visible.Add(id)

		node, _ := idx.Node(id)
		if node.Type == domain.NodeKindInput && domain.IsEmpty(nodeValue(node, values)) {
			continue
		}

		var conditional []domain.Edge
		for _, e := range idx.Outgoing(id) {
			if e.Conditional() {
				conditional = append(conditional, e)
				continue
			}
			queue = t.follow(idx, e, queue)
		}

		for _, e := range selectBranches(conditional, idx, values) {
			queue = t.follow(idx, e, queue)
		}
	}

	return t
}

// follow enqueues the edge target when it exists.
func (t *Traversal) follow(idx *graph.Index, e domain.Edge, queue []string) []string {
	if _, ok := idx.Node(e.Target); !ok {
		return queue
	}
	t.ActiveEdges = append(t.ActiveEdges, e.ID)
	return append(queue, e.Target)
}

// selectBranches picks the conditional edges to follow from one branch point.
func selectBranches(edges []domain.Edge, idx *graph.Index, values domain.Values) []domain.Edge {
	if len(edges) == 0 {
		return nil
	}

	var regular, fallback []domain.Edge
	for _, e := range edges {
		if e.Fallback() {
			fallback = append(fallback, e)
		} else {
			regular = append(regular, e)
		}
	}

	if !branchReady(regular, idx, values) {
		return nil
	}

	var matched []domain.Edge
	for _, e := range regular {
		if EvaluateConditions(e.Conditions(), values, idx) {
			matched = append(matched, e)
		}
	}
	if len(matched) > 0 {
		return matched
	}
	return fallback
}

// branchReady reports whether every field referenced by the regular edges has a value.
// Incomplete conditions reference nothing.
func branchReady(regular []domain.Edge, idx *graph.Index, values domain.Values) bool {
	for _, e := range regular {
		for _, c := range e.Conditions() {
			if c.Incomplete() {
				continue
			}
			if domain.IsEmpty(resolveField(c.Field, values, idx)) {
				return false
			}
		}
	}
	return true
}
