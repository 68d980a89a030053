package graph

import (
	"fmt"
	"slices"

	"github.com/aretw0/arbor/pkg/domain"
)

// Resolver returns the graph a flow node points at.
// It should return an error wrapping domain.ErrFlowNotFound for unknown ids.
type Resolver func(flowID string) (*domain.Graph, error)

// Merge inlines every flow node of root, recursively, and returns a new graph with no
// flow nodes left. Sub-flow node ids are prefixed with "<flowNodeID>/". Edges into a
// flow node are redirected to the sub-flow start node; edges out of it leave from every
// sub-flow sink. Neither root nor resolved graphs are modified.
func Merge(root *domain.Graph, resolve Resolver) (*domain.Graph, error) {
	var stack []string
	if root.ID != "" {
		stack = append(stack, root.ID)
	}
	return merge(root, resolve, stack)
}

type inlined struct {
	entry string
	exits []string
}

func merge(g *domain.Graph, resolve Resolver, stack []string) (*domain.Graph, error) {
	out := &domain.Graph{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Nodes:       make([]domain.Node, 0, len(g.Nodes)),
		Edges:       make([]domain.Edge, 0, len(g.Edges)),
	}
	flows := make(map[string]inlined)

	for _, n := range g.Nodes {
		if n.Type != domain.NodeKindFlow {
			out.Nodes = append(out.Nodes, copyNode(n, "", nil))
			continue
		}
		fd, ok := n.Data.(*domain.FlowData)
		if !ok || fd == nil || fd.TargetID == "" {
			return nil, fmt.Errorf("flow node %q has no target", n.ID)
		}

		if slices.Contains(stack, fd.TargetID) {
			return nil, fmt.Errorf("flow node %q -> %q: %w", n.ID, fd.TargetID, domain.ErrSubflowCycle)
		}
		if resolve == nil {
			return nil, fmt.Errorf("flow node %q -> %q: %w", n.ID, fd.TargetID, domain.ErrFlowNotFound)
		}
		target, err := resolve(fd.TargetID)
		if err != nil {
			return nil, fmt.Errorf("flow node %q: %w", n.ID, err)
		}
		sub, err := merge(target, resolve, append(slices.Clone(stack), fd.TargetID))
		if err != nil {
			return nil, err
		}

		subIdx := FromGraph(sub)
		start, ok := subIdx.StartNode()
		if !ok {
			return nil, fmt.Errorf("flow node %q -> %q: %w", n.ID, fd.TargetID, domain.ErrNoStartNode)
		}

		prefix := n.ID + "/"
		// References may name a node by id or by input name. Both are bound to
		// the prefixed id so that two copies of one sub-flow never share a field.
		local := make(map[string]string, len(sub.Nodes))
		for _, sn := range sub.Nodes {
			if in, ok := sn.Input(); ok && in.Name != "" {
				if _, taken := local[in.Name]; !taken {
					local[in.Name] = prefix + sn.ID
				}
			}
		}
		for _, sn := range sub.Nodes {
			local[sn.ID] = prefix + sn.ID
		}
		rename := func(ref string) string {
			if id, ok := local[ref]; ok {
				return id
			}
			return ref
		}

		for _, sn := range sub.Nodes {
			cp := copyNode(sn, prefix, rename)
			if sn.ParentID == "" {
				cp.ParentID = n.ParentID
			}
			out.Nodes = append(out.Nodes, cp)
		}
		for _, se := range sub.Edges {
			cp := copyEdge(se, rename)
			cp.ID = prefix + se.ID
			cp.Source = prefix + se.Source
			cp.Target = prefix + se.Target
			out.Edges = append(out.Edges, cp)
		}

		exits := subIdx.Sinks()
		for i := range exits {
			exits[i] = prefix + exits[i]
		}
		flows[n.ID] = inlined{entry: prefix + start, exits: exits}
	}

	for _, e := range g.Edges {
		sources := []string{e.Source}
		if f, ok := flows[e.Source]; ok {
			sources = f.exits
		}
		target := e.Target
		if f, ok := flows[e.Target]; ok {
			target = f.entry
		}
		for i, src := range sources {
			cp := copyEdge(e, nil)
			cp.Source = src
			cp.Target = target
			if len(sources) > 1 {
				cp.ID = fmt.Sprintf("%s#%d", e.ID, i)
			}
			out.Edges = append(out.Edges, cp)
		}
	}

	return out, nil
}

// copyNode returns a node with its own data payload.
// When rename is set, ids that belong to the sub-flow are rewritten in references.
func copyNode(n domain.Node, prefix string, rename func(string) string) domain.Node {
	cp := n
	cp.ID = prefix + n.ID
	if n.ParentID != "" && rename != nil {
		cp.ParentID = rename(n.ParentID)
	}
	if n.Position != nil {
		pos := *n.Position
		cp.Position = &pos
	}

	switch d := n.Data.(type) {
	case *domain.InputData:
		if d == nil {
			break
		}
		in := *d
		in.Options = slices.Clone(d.Options)
		if d.DefaultValue != nil {
			dv := *d.DefaultValue
			dv.ObjectMapping = slices.Clone(d.DefaultValue.ObjectMapping)
			if rename != nil && dv.Reference != "" {
				dv.Reference = rename(dv.Reference)
			}
			in.DefaultValue = &dv
		}
		cp.Data = &in
	case *domain.UIData:
		if d != nil {
			ui := *d
			cp.Data = &ui
		}
	case *domain.GroupData:
		if d != nil {
			gr := *d
			cp.Data = &gr
		}
	case *domain.FlowData:
		if d != nil {
			fl := *d
			cp.Data = &fl
		}
	}
	return cp
}

func copyEdge(e domain.Edge, rename func(string) string) domain.Edge {
	cp := e
	if e.Data == nil {
		return cp
	}
	data := *e.Data
	data.Conditions = slices.Clone(e.Data.Conditions)
	if rename != nil {
		for i := range data.Conditions {
			data.Conditions[i].Field = rename(data.Conditions[i].Field)
		}
	}
	cp.Data = &data
	return cp
}
