package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/arbor/internal/compiler"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/graph"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/schema"
)

// ValidateFlow lints flowID and every flow it links to through flow nodes.
// It reports parse failures, missing sub-flows, structural problems and nodes that no
// edge path from the start node can ever reach (conditions are ignored).
func ValidateFlow(loader ports.FlowLoader, parser *compiler.Parser, flowID string) error {
	visited := make(map[string]bool)
	queue := []string{flowID}

	var problems []string

	for len(queue) > 0 {
		currentID := queue[0]
		queue = queue[1:]

		if visited[currentID] {
			continue
		}
		visited[currentID] = true

		raw, err := loader.GetFlow(currentID)
		if err != nil {
			problems = append(problems, fmt.Sprintf("Missing flow or load error: '%s'", currentID))
			continue
		}
		g, err := parser.Parse(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", currentID, err))
			continue
		}

		if err := schema.ValidateGraph(g); err != nil {
			for _, e := range schema.ValidationErrors(err) {
				problems = append(problems, fmt.Sprintf("%s: %v", currentID, e))
			}
		}
		for _, id := range Unreachable(g) {
			problems = append(problems, fmt.Sprintf("%s: node %q is unreachable from the start node", currentID, id))
		}

		for _, n := range g.Nodes {
			if fd, ok := n.Data.(*domain.FlowData); ok && fd != nil && fd.TargetID != "" && !visited[fd.TargetID] {
				queue = append(queue, fd.TargetID)
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(problems), strings.Join(problems, "\n- "))
	}
	return nil
}

// Unreachable returns, in array order, the non-group nodes that are not reachable from
// the start node over any edge. Groups are containers and are reached through parentId.
func Unreachable(g *domain.Graph) []string {
	idx := graph.FromGraph(g)
	start, ok := idx.StartNode()
	if !ok {
		return nil
	}

	seen := graph.NewVisibleSet(start)
	queue := []string{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, e := range idx.Outgoing(id) {
			if _, exists := idx.Node(e.Target); !exists || seen.Has(e.Target) {
				continue
			}
			seen.Add(e.Target)
			queue = append(queue, e.Target)
		}
	}

	var out []string
	for _, n := range idx.Nodes() {
		if n.Type == domain.NodeKindGroup || seen.Has(n.ID) {
			continue
		}
		out = append(out, n.ID)
	}
	return out
}
