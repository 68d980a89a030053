package dsl

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/schema"
)

// Builder manages the graph construction.
// Nodes keep the order in which they were first added, which is the order the
// engine renders siblings in.
type Builder struct {
	id          string
	name        string
	description string

	order []string
	nodes map[string]*NodeBuilder
	edges []domain.Edge
}

// New creates a new graph builder for a flow id.
func New(id string) *Builder {
	return &Builder{
		id:    id,
		nodes: make(map[string]*NodeBuilder),
	}
}

// Name sets the human readable flow name.
func (b *Builder) Name(name string) *Builder {
	b.name = name
	return b
}

// Describe sets the flow description.
func (b *Builder) Describe(text string) *Builder {
	b.description = text
	return b
}

// Input adds (or returns) an input node. The field name defaults to the id.
func (b *Builder) Input(id string) *NodeBuilder {
	return b.add(id, domain.NodeKindInput, &domain.InputData{Name: id})
}

// Title adds a title UI node.
func (b *Builder) Title(id, content string) *NodeBuilder {
	return b.add(id, domain.NodeKindUI, &domain.UIData{UIType: domain.UITypeTitle, Content: content})
}

// Text adds a text UI node.
func (b *Builder) Text(id, content string) *NodeBuilder {
	return b.add(id, domain.NodeKindUI, &domain.UIData{UIType: domain.UITypeText, Content: content})
}

// Divider adds a divider UI node.
func (b *Builder) Divider(id string) *NodeBuilder {
	return b.add(id, domain.NodeKindUI, &domain.UIData{UIType: domain.UITypeDivider})
}

// Group adds a container node.
func (b *Builder) Group(id, label string) *NodeBuilder {
	return b.add(id, domain.NodeKindGroup, &domain.GroupData{Label: label})
}

// Flow adds a node that inlines another flow.
func (b *Builder) Flow(id, targetID string) *NodeBuilder {
	return b.add(id, domain.NodeKindFlow, &domain.FlowData{TargetID: targetID})
}

// If an id is added twice, the first builder wins and keeps its kind.
func (b *Builder) add(id string, kind domain.NodeKind, data domain.NodeData) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node:    domain.Node{ID: id, Type: kind, Data: data},
		builder: b,
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

func (b *Builder) connect(source, target string, data *domain.EdgeData) {
	b.edges = append(b.edges, domain.Edge{
		ID:     fmt.Sprintf("%s->%s#%d", source, target, len(b.edges)),
		Source: source,
		Target: target,
		Data:   data,
	})
}

// Graph assembles the graph without checking it.
func (b *Builder) Graph() *domain.Graph {
	g := &domain.Graph{
		ID:          b.id,
		Name:        b.name,
		Description: b.description,
		Nodes:       make([]domain.Node, 0, len(b.order)),
		Edges:       append([]domain.Edge(nil), b.edges...),
	}
	for _, id := range b.order {
		g.Nodes = append(g.Nodes, b.nodes[id].Build())
	}
	return g
}

// Build assembles the graph and lints it with schema.ValidateGraph.
func (b *Builder) Build() (*domain.Graph, error) {
	g := b.Graph()
	if err := schema.ValidateGraph(g); err != nil {
		return nil, fmt.Errorf("flow %q: %w", b.id, err)
	}
	return g, nil
}

// Loader builds every flow and serves them from memory, so that flow nodes can
// resolve their targets.
func Loader(builders ...*Builder) (*memory.Loader, error) {
	graphs := make([]*domain.Graph, 0, len(builders))
	for _, b := range builders {
		g, err := b.Build()
		if err != nil {
			return nil, err
		}
		graphs = append(graphs, g)
	}

	loader, err := memory.NewFromGraphs(graphs...)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return loader, nil
}
