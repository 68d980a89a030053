package schema

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON writes the schema as {"field": "type"}, the same shape ParseTypeMap reads.
func (s Schema) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	names := make(map[string]string, len(s))
	for field, typ := range s {
		if typ == nil {
			return nil, fmt.Errorf("field %s: nil type", field)
		}
		names[field] = typ.Name()
	}
	return json.Marshal(names)
}

// UnmarshalJSON reads {"field": "type"}. Option and custom types have no textual
// form and cannot round-trip.
func (s *Schema) UnmarshalJSON(data []byte) error {
	if s == nil {
		return fmt.Errorf("schema: UnmarshalJSON on nil pointer")
	}
	var names map[string]string
	if err := json.Unmarshal(data, &names); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	if names == nil {
		*s = nil
		return nil
	}
	parsed, err := ParseTypeMap(names)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
