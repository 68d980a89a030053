package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/pkg/domain"
)

func petGraph() *domain.Graph {
	return &domain.Graph{
		ID: "pets",
		Nodes: []domain.Node{
			{ID: "name", Type: domain.NodeKindInput, Data: &domain.InputData{Label: "Name", Required: true}},
			{ID: "pet", Type: domain.NodeKindInput, Data: &domain.InputData{Name: "pet", InputType: domain.InputTypeRadio}},
			{ID: "details", Type: domain.NodeKindGroup, Data: &domain.GroupData{Label: "Pet details"}},
			{ID: "species", Type: domain.NodeKindInput, ParentID: "details", Data: &domain.InputData{Label: "Species"}},
			{ID: "more-info", Type: domain.NodeKindFlow, Data: &domain.FlowData{TargetID: "vet"}},
			{ID: "bye", Type: domain.NodeKindUI, Data: &domain.UIData{UIType: domain.UITypeText, Content: `Say "thanks"`}},
		},
		Edges: []domain.Edge{
			{ID: "e1", Source: "name", Target: "pet"},
			{ID: "e2", Source: "pet", Target: "species", Data: &domain.EdgeData{Conditions: []domain.Condition{
				{Field: "pet", Operator: domain.OpEqual, Value: "yes", LogicalOperator: domain.LogicalOr},
				{Field: "pet", Operator: domain.OpEqual, Value: "maybe"},
			}}},
			{ID: "e3", Source: "pet", Target: "bye", Data: &domain.EdgeData{IsFallback: true}},
			{ID: "e4", Source: "species", Target: "more-info", Data: &domain.EdgeData{Label: "vet"}},
		},
	}
}

func TestGenerateMermaid(t *testing.T) {
	out := render(t, nil)

	for _, want := range []string{
		"graph TD\n",
		`name(("Name *"))`,
		`pet[/"pet"/]`,
		`subgraph details ["Pet details"]`,
		`        species[/"Species"/]`,
		`more_info[["↪ vet"]]`,
		`bye["Say 'thanks'"]`,
		`name --> pet`,
		`pet -- "pet === yes OR pet === maybe" --> species`,
		`pet -- "else" --> bye`,
		`species -- "vet" --> more_info`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q\nGot:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Overlay") {
		t.Error("Expected no overlay section without an overlay")
	}
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	out := render(t, &graph.Overlay{
		Visible:     []string{"name", "pet", "bye"},
		ActiveEdges: []string{"e1", "e3"},
	})

	for _, want := range []string{
		"class name visible;",
		"class bye visible;",
		"class species hidden;",
		"class more_info hidden;",
		"linkStyle 0 ",
		"linkStyle 2 ",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q\nGot:\n%s", want, out)
		}
	}
	if strings.Contains(out, "class details") {
		t.Error("Groups are subgraphs and must not get a node class")
	}
	if strings.Contains(out, "linkStyle 1 ") {
		t.Error("Inactive edge must not be highlighted")
	}
}

func TestGenerateMermaid_TruncatesLongLabels(t *testing.T) {
	g := &domain.Graph{Nodes: []domain.Node{
		{ID: "t", Type: domain.NodeKindUI, Data: &domain.UIData{Content: strings.Repeat("a", 50)}},
	}}
	out := graph.GenerateMermaid(g, nil)
	if !strings.Contains(out, strings.Repeat("a", 31)+"…") {
		t.Errorf("Expected truncated label, got:\n%s", out)
	}
}

func render(t *testing.T, overlay *graph.Overlay) string {
	t.Helper()
	return graph.GenerateMermaid(petGraph(), overlay)
}
