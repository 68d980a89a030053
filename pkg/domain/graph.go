package domain

// Graph is one flow: the nodes and edges authored in the editor.
// It is treated as immutable input for the duration of an evaluation pass.
type Graph struct {
	ID   string `json:"id,omitempty" yaml:"id,omitempty" mapstructure:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	// Description is free markdown shown before the form (e.g. a Loam document body).
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`

	Nodes []Node `json:"nodes" yaml:"nodes" mapstructure:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges" mapstructure:"edges"`
}

// InputNodes returns the input nodes in array order.
func (g *Graph) InputNodes() []Node {
	out := make([]Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.Type == NodeKindInput {
			out = append(out, n)
		}
	}
	return out
}
