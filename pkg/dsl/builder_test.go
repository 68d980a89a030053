package dsl

import (
	"testing"

	"github.com/aretw0/arbor/internal/compiler"
	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/domain"
)

func TestBuilder_SimpleFlow(t *testing.T) {
	b := New("signup").Name("Sign up")

	b.Title("intro", "Welcome").Go("email")
	b.Input("email").
		Label("E-mail").
		Required().
		Pattern("@", "Not an e-mail").
		Go("age")
	b.Input("age").
		Type(domain.InputTypeNumber).
		When("adult", Field("age").Gte(18)).
		Otherwise("minor")
	b.Text("adult", "Welcome aboard")
	b.Text("minor", "Ask a guardian")

	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	if g.ID != "signup" || g.Name != "Sign up" {
		t.Errorf("unexpected flow header %q/%q", g.ID, g.Name)
	}
	want := []string{"intro", "email", "age", "adult", "minor"}
	if len(g.Nodes) != len(want) {
		t.Fatalf("Expected %d nodes, got %d", len(want), len(g.Nodes))
	}
	for i, id := range want {
		if g.Nodes[i].ID != id {
			t.Errorf("node #%d: expected %q, got %q", i, id, g.Nodes[i].ID)
		}
	}

	email, _ := g.Nodes[1].Input()
	if !email.Required || email.Pattern != "@" || email.ErrorMessage != "Not an e-mail" || email.Name != "email" {
		t.Errorf("unexpected email field %+v", email)
	}
	if len(g.Edges) != 4 {
		t.Fatalf("Expected 4 edges, got %d", len(g.Edges))
	}
	if !g.Edges[3].Data.IsFallback {
		t.Error("Expected the last edge to be the fallback")
	}
}

func TestBuilder_EvaluatesLikeADocument(t *testing.T) {
	b := New("pets")
	b.Input("pet").Type(domain.InputTypeRadio).Options("yes", "no").
		When("species", Field("pet").Eq("yes"))
	b.Input("species").Required().In("details")
	b.Group("details", "Details")

	g, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}

	form, err := runtime.NewForm(g)
	if err != nil {
		t.Fatal(err)
	}
	if form.IsVisible("species") {
		t.Error("species should be hidden before pet is answered")
	}
	form.SetFieldValue("pet", "yes")
	if !form.IsVisible("species") {
		t.Error("species should be visible after pet=yes")
	}
	form.SetFieldValue("pet", "no")
	if form.IsVisible("species") {
		t.Error("species should be hidden after pet=no")
	}
}

func TestBuilder_RejectsBrokenGraph(t *testing.T) {
	b := New("broken")
	b.Input("a").Go("ghost")
	b.Input("b").Pattern("(", "")

	if _, err := b.Build(); err == nil {
		t.Fatal("Expected Build() to fail")
	}
	if g := b.Graph(); len(g.Nodes) != 2 {
		t.Errorf("Graph() should not lint, got %d nodes", len(g.Nodes))
	}
}

func TestLoader_ResolvesSubflows(t *testing.T) {
	parent := New("parent")
	parent.Input("name").Required().Go("addr")
	parent.Flow("addr", "address").Label("Address")

	address := New("address")
	address.Input("zip").Go("city")
	address.Input("city").Reference("zip", domain.TransformToString)

	loader, err := Loader(parent, address)
	if err != nil {
		t.Fatalf("Loader() failed: %v", err)
	}

	ids, err := loader.ListFlows()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "address" || ids[1] != "parent" {
		t.Errorf("unexpected flows %v", ids)
	}

	raw, err := loader.GetFlow("address")
	if err != nil {
		t.Fatal(err)
	}
	g, err := compiler.NewParser().Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	city, _ := g.Nodes[1].Input()
	if !city.DefaultValue.IsReference() || city.DefaultValue.Reference != "zip" {
		t.Errorf("reference default lost in round trip: %+v", city.DefaultValue)
	}

}

func TestOr_SetsLogicalOperator(t *testing.T) {
	c := Or(Field("a").Eq(1))
	if c.LogicalOperator != domain.LogicalOr || c.Operator != domain.OpEqual {
		t.Errorf("unexpected condition %+v", c)
	}
}
