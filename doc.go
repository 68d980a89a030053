/*
Package arbor evaluates conditional forms authored as node graphs.

A flow is a graph of input, ui, group and flow nodes joined by edges. Edges may carry
conditions over field values; an input with no value gates everything behind it. As the
user fills fields, arbor recomputes which nodes are visible, keeps reference-bound
fields in sync with their sources and validates only what the user can see.

# Concept

The engine is pure evaluation. Flows come from a loader (Loam files by default, or any
ports.FlowLoader), sessions live in a ports.StateStore and presentation is left to the
host: a terminal runner, an HTTP API or an MCP server. Every adapter talks to the same
Engine.

# Usage

	eng, err := arbor.New("./flows")
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	form, err := eng.Open(ctx, "signup", nil)
	if err != nil {
		log.Fatal(err)
	}

	form.SetFieldValue("email", "ana@example.com")
	fmt.Println(form.VisibleIDs())

	if res := form.Submit(); !res.Valid {
		fmt.Println(res.Errors)
	}

Stateless hosts use Start, Apply, Submit and View, passing the domain.State around
instead of holding a Form.

# Flow documents

Flows are the editor's JSON export or the same structure in YAML. In a Loam repository a
Markdown file keeps the graph in its front matter and an introduction in its body.
Flow nodes inline another flow; their node ids are prefixed with "<flowNodeID>/".
*/
package arbor
