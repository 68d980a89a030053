package graph

import "github.com/aretw0/arbor/pkg/domain"

// TreeNode is a visible node with its visible children attached.
type TreeNode struct {
	Node     domain.Node `json:"node"`
	Children []*TreeNode `json:"children,omitempty"`
}

// BuildTree re-attaches visible nodes to the parentId hierarchy for rendering.
// Original array order is preserved within each parent. A visible node whose parent is
// missing, not visible, or part of a parent cycle is attached at the root.
// The input slice is not modified.
func BuildTree(nodes []domain.Node, visible VisibleSet) []*TreeNode {
	byID := make(map[string]*TreeNode)
	order := make([]*TreeNode, 0, len(nodes))
	for _, n := range nodes {
		if !visible.Has(n.ID) {
			continue
		}
		if _, dup := byID[n.ID]; dup {
			continue
		}
		tn := &TreeNode{Node: n}
		byID[n.ID] = tn
		order = append(order, tn)
	}

	var roots []*TreeNode
	for _, tn := range order {
		parent, ok := byID[tn.Node.ParentID]
		if !ok || inParentCycle(tn.Node.ID, byID) {
			roots = append(roots, tn)
			continue
		}
		parent.Children = append(parent.Children, tn)
	}
	return roots
}

// inParentCycle reports whether following parentId links from id leads back to id.
func inParentCycle(id string, byID map[string]*TreeNode) bool {
	seen := map[string]bool{id: true}
	cur := byID[id].Node.ParentID
	for cur != "" {
		if seen[cur] {
			return cur == id
		}
		seen[cur] = true
		next, ok := byID[cur]
		if !ok {
			return false
		}
		cur = next.Node.ParentID
	}
	return false
}

// Walk visits the tree depth-first in render order.
func Walk(roots []*TreeNode, fn func(depth int, n *TreeNode)) {
	var visit func(depth int, list []*TreeNode)
	visit = func(depth int, list []*TreeNode) {
		for _, tn := range list {
			fn(depth, tn)
			visit(depth+1, tn.Children)
		}
	}
	visit(0, roots)
}
