package dsl

import "github.com/aretw0/arbor/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
// Field setters are ignored on nodes of another kind.
type NodeBuilder struct {
	node    domain.Node
	builder *Builder
}

func (n *NodeBuilder) input() *domain.InputData {
	in, _ := n.node.Data.(*domain.InputData)
	if in == nil {
		return &domain.InputData{}
	}
	return in
}

// Name sets the field name used by conditions and the named export.
func (n *NodeBuilder) Name(name string) *NodeBuilder {
	n.input().Name = name
	return n
}

// Label sets the field label (input) or the container label (group, flow).
func (n *NodeBuilder) Label(label string) *NodeBuilder {
	switch d := n.node.Data.(type) {
	case *domain.InputData:
		d.Label = label
	case *domain.GroupData:
		d.Label = label
	case *domain.FlowData:
		d.Label = label
	}
	return n
}

// Type sets the input type (text, number, select, ...).
func (n *NodeBuilder) Type(inputType string) *NodeBuilder {
	n.input().InputType = inputType
	return n
}

// Required marks the field as required.
func (n *NodeBuilder) Required() *NodeBuilder {
	n.input().Required = true
	return n
}

// Pattern sets the validation pattern and its message.
func (n *NodeBuilder) Pattern(pattern, message string) *NodeBuilder {
	in := n.input()
	in.Pattern = pattern
	in.ErrorMessage = message
	return n
}

// Placeholder sets the field placeholder.
func (n *NodeBuilder) Placeholder(text string) *NodeBuilder {
	n.input().Placeholder = text
	return n
}

// Options adds choices whose label and value are the same string.
func (n *NodeBuilder) Options(values ...string) *NodeBuilder {
	in := n.input()
	for _, v := range values {
		in.Options = append(in.Options, domain.Option{Label: v, Value: v})
	}
	return n
}

// Option adds one labelled choice.
func (n *NodeBuilder) Option(label string, value any) *NodeBuilder {
	in := n.input()
	in.Options = append(in.Options, domain.Option{Label: label, Value: value})
	return n
}

// Source names a registered option source.
func (n *NodeBuilder) Source(name string) *NodeBuilder {
	n.input().Source = name
	return n
}

// Default seeds a static default value.
func (n *NodeBuilder) Default(value any) *NodeBuilder {
	n.input().DefaultValue = &domain.DefaultValue{Type: domain.DefaultStatic, Value: value}
	return n
}

// Reference keeps the field in sync with another field until it is edited by hand.
func (n *NodeBuilder) Reference(source string, transform domain.TransformFunction, mapping ...domain.FieldMapping) *NodeBuilder {
	n.input().DefaultValue = &domain.DefaultValue{
		Type:              domain.DefaultReference,
		Reference:         source,
		TransformFunction: transform,
		ObjectMapping:     mapping,
	}
	return n
}

// In places the node inside a group.
func (n *NodeBuilder) In(parentID string) *NodeBuilder {
	n.node.ParentID = parentID
	return n
}

// Go adds an unconditional edge to the target node.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	n.builder.connect(n.node.ID, target, nil)
	return n
}

// When adds a conditional edge. Conditions are joined with AND unless a condition
// carries its own logical operator.
func (n *NodeBuilder) When(target string, conds ...domain.Condition) *NodeBuilder {
	n.builder.connect(n.node.ID, target, &domain.EdgeData{Conditions: conds})
	return n
}

// Otherwise adds the fallback edge taken when no conditional sibling matches.
func (n *NodeBuilder) Otherwise(target string) *NodeBuilder {
	n.builder.connect(n.node.ID, target, &domain.EdgeData{IsFallback: true})
	return n
}

// Build returns the underlying domain.Node.
func (n *NodeBuilder) Build() domain.Node {
	return n.node
}
