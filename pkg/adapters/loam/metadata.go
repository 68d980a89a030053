package loam

// FlowMetadata is the front matter of a flow document.
// A Markdown flow keeps its graph in the front matter and its introduction in the body;
// JSON and YAML flows are all front matter.
type FlowMetadata struct {
	ID    string           `json:"id" mapstructure:"id"`
	Name  string           `json:"name" mapstructure:"name"`
	Nodes []map[string]any `json:"nodes" mapstructure:"nodes"`
	Edges []map[string]any `json:"edges" mapstructure:"edges"`

	// Description overrides the document body as the flow introduction.
	Description string `json:"description" mapstructure:"description"`

	// Hidden flows are only reachable as sub-flows and are left out of ListFlows.
	Hidden bool `json:"hidden" mapstructure:"hidden"`
}
