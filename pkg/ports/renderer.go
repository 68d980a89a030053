package ports

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// RenderContext carries what a renderer needs to draw one visible node.
type RenderContext struct {
	Node  domain.Node
	Depth int    // Nesting level from the parentId hierarchy
	Value any    // Current value (input nodes only)
	Error string // Current validation message (input nodes only)

	// Options are the resolved choices of an input: its static options, or the
	// ones supplied by the data source it names.
	Options []domain.Option
}

// NodeRenderer is the render boundary: one method per node kind.
// Dispatch happens in runner.Dispatch with an exhaustive switch over the node data.
type NodeRenderer interface {
	RenderInput(ctx context.Context, rc RenderContext, data *domain.InputData) error
	RenderUI(ctx context.Context, rc RenderContext, data *domain.UIData) error
	RenderGroup(ctx context.Context, rc RenderContext, data *domain.GroupData) error
	RenderFlow(ctx context.Context, rc RenderContext, data *domain.FlowData) error
}
