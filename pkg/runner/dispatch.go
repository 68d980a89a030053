package runner

import (
	"context"
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/graph"
	"github.com/aretw0/arbor/pkg/ports"
)

// Dispatch sends one visible node to the renderer method matching its kind.
// Nodes whose payload does not match their kind are reported, never skipped silently.
func Dispatch(ctx context.Context, r ports.NodeRenderer, rc ports.RenderContext) error {
	switch d := rc.Node.Data.(type) {
	case *domain.InputData:
		if d != nil {
			return r.RenderInput(ctx, rc, d)
		}
	case *domain.UIData:
		if d != nil {
			return r.RenderUI(ctx, rc, d)
		}
	case *domain.GroupData:
		if d != nil {
			return r.RenderGroup(ctx, rc, d)
		}
	case *domain.FlowData:
		if d != nil {
			return r.RenderFlow(ctx, rc, d)
		}
	case nil:
	default:
		return fmt.Errorf("node %q: cannot render node type %q", rc.Node.ID, rc.Node.Type)
	}

	// Documents may omit data entirely, and a nil payload pointer is no better;
	// render the kind's zero payload.
	switch rc.Node.Type {
	case domain.NodeKindInput:
		return r.RenderInput(ctx, rc, &domain.InputData{})
	case domain.NodeKindUI:
		return r.RenderUI(ctx, rc, &domain.UIData{})
	case domain.NodeKindGroup:
		return r.RenderGroup(ctx, rc, &domain.GroupData{})
	case domain.NodeKindFlow:
		return r.RenderFlow(ctx, rc, &domain.FlowData{})
	}
	return fmt.Errorf("node %q: cannot render node type %q", rc.Node.ID, rc.Node.Type)
}

// RenderView renders every visible node of g in tree order: parents before their
// children, siblings in array order.
func RenderView(ctx context.Context, r ports.NodeRenderer, g *domain.Graph, view *domain.View) error {
	roots := graph.BuildTree(g.Nodes, graph.NewVisibleSet(view.Visible...))

	var firstErr error
	graph.Walk(roots, func(depth int, tn *graph.TreeNode) {
		if firstErr != nil {
			return
		}
		firstErr = Dispatch(ctx, r, renderContext(tn.Node, depth, view.State))
	})
	return firstErr
}

func renderContext(n domain.Node, depth int, state *domain.State) ports.RenderContext {
	rc := ports.RenderContext{Node: n, Depth: depth}
	in, ok := n.Input()
	if !ok {
		return rc
	}
	rc.Options = in.Options
	if state != nil {
		rc.Value = state.Values[n.ID]
		rc.Error = state.Errors[n.ID]
	}
	return rc
}
