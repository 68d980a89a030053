package schema

import "github.com/aretw0/arbor/pkg/domain"

// Schema is a map of field names to their expected types.
// Example: {"age": Number(), "birthday": Date(), "tags": Slice(String())}
type Schema map[string]Type

// Validate checks if data conforms to the schema.
// Every schema field must be present. Returns an error with all failures found.
func Validate(schema Schema, data map[string]any) error {
	if len(schema) == 0 {
		return nil
	}

	var errs []error
	for fieldName, fieldType := range schema {
		value, exists := data[fieldName]
		if !exists {
			errs = append(errs, &ValidationError{
				Key:    fieldName,
				Reason: "required",
			})
			continue
		}

		if err := fieldType.Validate(value); err != nil {
			errs = append(errs, &ValidationError{
				Key:    fieldName,
				Reason: err.Error(),
				Value:  value,
			})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// ForInputs builds a schema keyed by node id for the typed input nodes.
func ForInputs(nodes []domain.Node) Schema {
	s := make(Schema)
	for _, n := range nodes {
		in, ok := n.Input()
		if !ok {
			continue
		}
		if t := ForInput(in); t != nil {
			s[n.ID] = t
		}
	}
	return s
}

// ValueChecker returns a form validator that checks the filled visible inputs against
// the type implied by their inputType. Empty fields are left to the required rule.
// The result plugs into runtime.WithValidator and arbor.WithValidator.
func ValueChecker(message func(in *domain.InputData, err error) string) func(values domain.Values, visible []domain.Node) map[string]string {
	if message == nil {
		message = func(_ *domain.InputData, err error) string { return err.Error() }
	}
	return func(values domain.Values, visible []domain.Node) map[string]string {
		out := make(map[string]string)
		for _, n := range visible {
			in, ok := n.Input()
			if !ok {
				continue
			}
			t := ForInput(in)
			if t == nil {
				continue
			}
			v, ok := values[n.ID]
			if !ok || domain.IsEmpty(v) {
				continue
			}
			if err := t.Validate(v); err != nil {
				out[n.ID] = message(in, err)
			}
		}
		return out
	}
}
