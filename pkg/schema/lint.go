package schema

import (
	"fmt"
	"regexp"

	"github.com/aretw0/arbor/pkg/domain"
)

// ValidateGraph lints a flow definition before it is served.
// Evaluation tolerates every problem reported here (dangling edges are ignored,
// malformed patterns are skipped), so the checks exist for authors and tooling.
// All problems are returned together as an *AggregateError.
func ValidateGraph(g *domain.Graph) error {
	if g == nil {
		return fmt.Errorf("graph is nil")
	}

	var errs []error
	nodeErr := func(id, format string, args ...any) {
		errs = append(errs, &GraphError{Element: "node", ID: id, Reason: fmt.Sprintf(format, args...)})
	}
	edgeErr := func(id, format string, args ...any) {
		errs = append(errs, &GraphError{Element: "edge", ID: id, Reason: fmt.Sprintf(format, args...)})
	}

	ids := make(map[string]bool, len(g.Nodes))
	fields := make(map[string]bool, len(g.Nodes))
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.ID == "" {
			nodeErr(fmt.Sprintf("#%d", i), "missing id")
			continue
		}
		if ids[n.ID] {
			nodeErr(n.ID, "duplicate id")
		}
		ids[n.ID] = true
		fields[n.ID] = true
		if in, ok := n.Input(); ok && in.Name != "" {
			fields[in.Name] = true
		}
		if !n.Type.Valid() {
			nodeErr(n.ID, "unknown type %q", n.Type)
		}
	}

	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.ParentID != "" && !ids[n.ParentID] {
			nodeErr(n.ID, "parent %q does not exist", n.ParentID)
		}
		if n.ParentID == n.ID && n.ID != "" {
			nodeErr(n.ID, "node is its own parent")
		}

		if fd, ok := n.Data.(*domain.FlowData); ok && (fd == nil || fd.TargetID == "") {
			nodeErr(n.ID, "flow node has no target flow")
		}

		in, ok := n.Input()
		if !ok {
			continue
		}
		if in.Pattern != "" {
			if _, err := regexp.Compile(in.Pattern); err != nil {
				nodeErr(n.ID, "invalid pattern: %v", err)
			}
		}
		dv := in.DefaultValue
		if dv == nil {
			continue
		}
		if dv.TransformFunction != "" && !dv.TransformFunction.Valid() {
			nodeErr(n.ID, "unknown transform %q", dv.TransformFunction)
		}
		if dv.IsReference() {
			if !fields[dv.Reference] {
				nodeErr(n.ID, "reference %q does not match any node", dv.Reference)
			}
			if dv.Reference == n.ID || dv.Reference == in.Name {
				nodeErr(n.ID, "node references itself")
			}
		}
	}

	edgeIDs := make(map[string]bool, len(g.Edges))
	for i := range g.Edges {
		e := &g.Edges[i]
		id := e.ID
		if id == "" {
			id = fmt.Sprintf("#%d", i)
		} else if edgeIDs[id] {
			edgeErr(id, "duplicate id")
		}
		edgeIDs[id] = true

		if !ids[e.Source] {
			edgeErr(id, "source %q does not exist", e.Source)
		}
		if !ids[e.Target] {
			edgeErr(id, "target %q does not exist", e.Target)
		}
		for j, c := range e.Conditions() {
			if c.Operator != "" && !c.Operator.Valid() {
				edgeErr(id, "condition %d: unknown operator %q", j, c.Operator)
			}
			switch c.LogicalOperator {
			case "", domain.LogicalAnd, domain.LogicalOr:
			default:
				edgeErr(id, "condition %d: unknown logical operator %q", j, c.LogicalOperator)
			}
			if c.Field != "" && !fields[c.Field] {
				edgeErr(id, "condition %d: field %q does not match any node", j, c.Field)
			}
		}
	}

	// The walk starts at a node without incoming edges; edges count even when
	// their source is dangling, as they do for the index.
	if len(g.Nodes) > 0 {
		targets := make(map[string]bool, len(g.Edges))
		for _, e := range g.Edges {
			targets[e.Target] = true
		}
		hasStart := false
		for _, n := range g.Nodes {
			if n.ID != "" && !targets[n.ID] {
				hasStart = true
				break
			}
		}
		if !hasStart {
			errs = append(errs, &GraphError{Element: "graph", ID: g.ID, Reason: "no start node: every node has an incoming edge"})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
