/*
Package dsl builds arbor flow graphs in Go instead of JSON or YAML documents.

Nodes are rendered in the order they are added. Edges are declared from their source
node with Go, When and Otherwise:

	b := dsl.New("signup")
	b.Input("email").Label("E-mail").Required().Pattern("@", "Not an e-mail").Go("age")
	b.Input("age").Type(domain.InputTypeNumber).
		When("address", dsl.Field("age").Gte(18)).
		Otherwise("guardian")
	b.Flow("address", "address-form")
	b.Text("guardian", "Ask a guardian to fill this form.")

	loader, err := dsl.Loader(b, addressBuilder)
	eng, err := arbor.New("", arbor.WithLoader(loader))
*/
package dsl
