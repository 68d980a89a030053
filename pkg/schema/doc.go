// Package schema checks form data and flow definitions.
//
// The type system maps input types to value checks: text fields hold strings,
// number fields hold numbers or numeric strings, dates use YYYY-MM-DD and
// select/radio fields only accept the values of their options. Schemas map
// field keys to types:
//
//	s := schema.Schema{
//	    "age":      schema.Number(),
//	    "birthday": schema.Date(),
//	    "tags":     schema.Slice(schema.String()),
//	}
//
//	if err := schema.Validate(s, data); err != nil {
//	    for _, fe := range schema.ValidationErrors(err) {
//	        // ...
//	    }
//	}
//
// ForInputs derives a schema from a flow's input nodes and ValueChecker turns the
// same mapping into a form validator.
//
// ValidateGraph lints a flow definition (duplicate ids, dangling edges and
// references, unknown operators, malformed patterns, a missing start node) and reports
// every problem at once.
package schema
