package domain

import (
	"encoding/json"
	"fmt"
)

// NodeKind discriminates the payload carried by a Node.
type NodeKind string

const (
	// NodeKindInput collects a value from the user (form field).
	NodeKindInput NodeKind = "input"
	// NodeKindUI is presentational only (title, divider, text).
	NodeKindUI NodeKind = "ui"
	// NodeKindGroup is a visual container. Children reference it through ParentID.
	NodeKindGroup NodeKind = "group"
	// NodeKindFlow links to another whole graph (sub-flow).
	// Flow nodes are inlined by graph.Merge before evaluation.
	NodeKindFlow NodeKind = "flow"
)

// Valid reports whether k is one of the known node kinds.
func (k NodeKind) Valid() bool {
	switch k {
	case NodeKindInput, NodeKindUI, NodeKindGroup, NodeKindFlow:
		return true
	}
	return false
}

// Position is the editor canvas coordinate. It is carried for round-tripping only.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Node is a graph vertex.
// Data is a closed union: *InputData, *UIData, *GroupData or *FlowData, matching Type.
type Node struct {
	ID       string    `json:"id" yaml:"id"`
	Type     NodeKind  `json:"type" yaml:"type"`
	ParentID string    `json:"parentId,omitempty" yaml:"parentId,omitempty"`
	Position *Position `json:"position,omitempty" yaml:"position,omitempty"`
	Data     NodeData  `json:"data,omitempty" yaml:"-"`
}

// NodeData is implemented by the per-kind payloads.
type NodeData interface {
	Kind() NodeKind
}

// InputData configures a form field.
type InputData struct {
	Name         string   `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Label        string   `json:"label,omitempty" yaml:"label,omitempty" mapstructure:"label"`
	InputType    string   `json:"inputType,omitempty" yaml:"inputType,omitempty" mapstructure:"inputType"`
	Required     bool     `json:"required,omitempty" yaml:"required,omitempty" mapstructure:"required"`
	Pattern      string   `json:"pattern,omitempty" yaml:"pattern,omitempty" mapstructure:"pattern"`
	ErrorMessage string   `json:"errorMessage,omitempty" yaml:"errorMessage,omitempty" mapstructure:"errorMessage"`
	Placeholder  string   `json:"placeholder,omitempty" yaml:"placeholder,omitempty" mapstructure:"placeholder"`
	Options      []Option `json:"options,omitempty" yaml:"options,omitempty" mapstructure:"options"`
	// Source names a registered data source that supplies Options at render time.
	Source       string        `json:"source,omitempty" yaml:"source,omitempty" mapstructure:"source"`
	DefaultValue *DefaultValue `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty" mapstructure:"defaultValue"`
}

// Kind implements NodeData.
func (*InputData) Kind() NodeKind { return NodeKindInput }

// Option is a selectable choice for select/radio inputs.
type Option struct {
	Label string   `json:"label" yaml:"label" mapstructure:"label"`
	Value any    `json:"value" yaml:"value" mapstructure:"value"`
}

// Standard input types understood by the terminal runner and the linter.
const (
	InputTypeText     = "text"
	InputTypeNumber   = "number"
	InputTypeSelect   = "select"
	InputTypeCheckbox = "checkbox"
	InputTypeDate     = "date"
	InputTypeEmail    = "email"
	InputTypeTextarea = "textarea"
	InputTypeRadio    = "radio"
)

// UIData is a presentational element with no field semantics.
type UIData struct {
	UIType  string `json:"uiType,omitempty" yaml:"uiType,omitempty" mapstructure:"uiType"`
	Content string `json:"content,omitempty" yaml:"content,omitempty" mapstructure:"content"`
}

// Kind implements NodeData.
func (*UIData) Kind() NodeKind { return NodeKindUI }

// UI subtypes.
const (
	UITypeTitle   = "title"
	UITypeDivider = "divider"
	UITypeText    = "text"
)

// GroupData labels a container node.
type GroupData struct {
	Label string   `json:"label,omitempty" yaml:"label,omitempty" mapstructure:"label"`
}

// Kind implements NodeData.
func (*GroupData) Kind() NodeKind { return NodeKindGroup }

// FlowData references another graph by id.
type FlowData struct {
	TargetID string `json:"targetId" yaml:"targetId" mapstructure:"targetId"`
	Label    string   `json:"label,omitempty" yaml:"label,omitempty" mapstructure:"label"`
}

// Kind implements NodeData.
func (*FlowData) Kind() NodeKind { return NodeKindFlow }

// Input returns the input payload if the node is a form field.
// This is the only capability the evaluation core dispatches on.
func (n *Node) Input() (*InputData, bool) {
	if n == nil || n.Type != NodeKindInput {
		return nil, false
	}
	d, ok := n.Data.(*InputData)
	if !ok || d == nil {
		return &InputData{}, true
	}
	return d, true
}

// FieldKey returns the form field key: the input name, falling back to the node id.
func (n *Node) FieldKey() string {
	if in, ok := n.Input(); ok && in.Name != "" {
		return in.Name
	}
	return n.ID
}

// DisplayName returns the label used by the named export view.
// Label wins over name; both fall back to the node id.
func (n *Node) DisplayName() string {
	if in, ok := n.Input(); ok {
		switch {
		case in.Label != "":
			return in.Label
		case in.Name != "":
			return in.Name
		}
	}
	return n.ID
}

type nodeJSON struct {
	ID       string          `json:"id"`
	Type     NodeKind        `json:"type"`
	ParentID string          `json:"parentId,omitempty"`
	Position *Position       `json:"position,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// UnmarshalJSON decodes the data payload according to the node type.
func (n *Node) UnmarshalJSON(b []byte) error {
	var raw nodeJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	data, err := NewNodeData(raw.Type)
	if err != nil {
		return fmt.Errorf("node %q: %w", raw.ID, err)
	}
	if len(raw.Data) > 0 && string(raw.Data) != "null" {
		if err := json.Unmarshal(raw.Data, data); err != nil {
			return fmt.Errorf("node %q: invalid %s data: %w", raw.ID, raw.Type, err)
		}
	}
	*n = Node{
		ID:       raw.ID,
		Type:     raw.Type,
		ParentID: raw.ParentID,
		Position: raw.Position,
		Data:     data,
	}
	return nil
}

// NewNodeData allocates the empty payload for a node kind.
func NewNodeData(kind NodeKind) (NodeData, error) {
	switch kind {
	case NodeKindInput:
		return &InputData{}, nil
	case NodeKindUI:
		return &UIData{}, nil
	case NodeKindGroup:
		return &GroupData{}, nil
	case NodeKindFlow:
		return &FlowData{}, nil
	}
	return nil, fmt.Errorf("unknown node type %q", kind)
}
