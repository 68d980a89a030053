package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/graph"
)

// Overlay carries the evaluated state of a session to draw on top of the flow.
type Overlay struct {
	Visible     []string
	ActiveEdges []string
}

const maxLabel = 32

// GenerateMermaid produces a Mermaid flowchart for g.
// It applies semantic shapes:
//   - Start node: ((Circle))
//   - Input: [/Parallelogram/]
//   - Flow link: [[Subroutine]]
//   - Other: [Rectangle]
//
// Groups become subgraphs holding their children. With an overlay, hidden nodes are
// greyed out and active edges are drawn thick.
func GenerateMermaid(g *domain.Graph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	idx := graph.FromGraph(g)
	start, _ := idx.StartNode()

	all := graph.NewVisibleSet()
	for _, n := range g.Nodes {
		all.Add(n.ID)
	}
	writeTree(&sb, graph.BuildTree(g.Nodes, all), start, "    ")

	var active graph.VisibleSet
	if overlay != nil {
		active = graph.NewVisibleSet(overlay.ActiveEdges...)
	}
	var thick []int
	for i, e := range g.Edges {
		from, to := sanitizeMermaidID(e.Source), sanitizeMermaidID(e.Target)
		if label := edgeLabel(e); label != "" {
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", from, label, to)
		} else {
			fmt.Fprintf(&sb, "    %s --> %s\n", from, to)
		}
		if active.Has(e.ID) {
			thick = append(thick, i)
		}
	}

	if overlay == nil {
		return sb.String()
	}

	sb.WriteString("\n    %% Overlay Styles\n")
	// Force black text (color:#000) for contrast regardless of theme.
	sb.WriteString("    classDef visible fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef hidden fill:#eeeeee,stroke:#bdbdbd,stroke-dasharray:4 4,color:#9e9e9e;\n")

	visible := graph.NewVisibleSet(overlay.Visible...)
	for _, n := range g.Nodes {
		if n.Type == domain.NodeKindGroup {
			continue
		}
		class := "hidden"
		if visible.Has(n.ID) {
			class = "visible"
		}
		fmt.Fprintf(&sb, "    class %s %s;\n", sanitizeMermaidID(n.ID), class)
	}
	for _, i := range thick {
		fmt.Fprintf(&sb, "    linkStyle %d stroke:#01579b,stroke-width:3px;\n", i)
	}
	return sb.String()
}

func writeTree(sb *strings.Builder, list []*graph.TreeNode, start, indent string) {
	for _, tn := range list {
		n := tn.Node
		safeID := sanitizeMermaidID(n.ID)

		if n.Type == domain.NodeKindGroup {
			fmt.Fprintf(sb, "%ssubgraph %s [\"%s\"]\n", indent, safeID, nodeLabel(n))
			writeTree(sb, tn.Children, start, indent+"    ")
			fmt.Fprintf(sb, "%send\n", indent)
			continue
		}

		opener, closer := "[", "]"
		switch {
		case n.ID == start:
			opener, closer = "((", "))"
		case n.Type == domain.NodeKindInput:
			opener, closer = "[/", "/]"
		case n.Type == domain.NodeKindFlow:
			opener, closer = "[[", "]]"
		}
		fmt.Fprintf(sb, "%s%s%s\"%s\"%s\n", indent, safeID, opener, nodeLabel(n), closer)
		writeTree(sb, tn.Children, start, indent)
	}
}

func nodeLabel(n domain.Node) string {
	var label string
	switch d := n.Data.(type) {
	case *domain.InputData:
		label = n.DisplayName()
		if d != nil && d.Required {
			label += " *"
		}
	case *domain.UIData:
		if d != nil {
			label = d.Content
			if label == "" {
				label = d.UIType
			}
		}
	case *domain.GroupData:
		if d != nil {
			label = d.Label
		}
	case *domain.FlowData:
		if d != nil {
			label = "↪ " + d.TargetID
		}
	}
	if label == "" {
		label = n.ID
	}
	if r := []rune(label); len(r) > maxLabel {
		label = string(r[:maxLabel-1]) + "…"
	}
	return escape(label)
}

// edgeLabel prefers the edge's own label, then its conditions.
func edgeLabel(e domain.Edge) string {
	if e.Data == nil {
		return ""
	}
	if e.Data.Label != "" {
		return escape(e.Data.Label)
	}
	if e.Data.IsFallback && len(e.Data.Conditions) == 0 {
		return "else"
	}
	var parts []string
	for i, c := range e.Data.Conditions {
		if i > 0 {
			op := e.Data.Conditions[i-1].LogicalOperator
			if op == "" {
				op = domain.LogicalAnd
			}
			parts = append(parts, string(op))
		}
		parts = append(parts, fmt.Sprintf("%s %s %v", c.Field, c.Operator, c.Value))
	}
	return escape(strings.Join(parts, " "))
}

func escape(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.ReplaceAll(s, "\n", " ")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
