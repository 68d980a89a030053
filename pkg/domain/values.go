package domain

import (
	"reflect"
)

// Values is the form value bag keyed by node id.
type Values map[string]any

// Errors maps a field (node id) to its validation message.
type Errors map[string]string

// Clone returns a copy of the bag. Nested maps are copied so callers can mutate freely.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = deepCopyValue(val)
	}
	return out
}

// Merge returns a copy of v with patch applied on top.
func (v Values) Merge(patch Values) Values {
	out := v.Clone()
	for k, val := range patch {
		out[k] = deepCopyValue(val)
	}
	return out
}

// Clone returns a copy of the error map.
func (e Errors) Clone() Errors {
	out := make(Errors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// IsEmpty is the shared "no value" predicate used by traversal gating,
// required checks and reference propagation.
// nil, "" and empty collections are empty; false and 0 are values.
func IsEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []any:
		return len(val) == 0
	case []string:
		return len(val) == 0
	case map[string]any:
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// CopyValue returns a copy of v where nested maps and slices are not shared.
func CopyValue(v any) any {
	return deepCopyValue(v)
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, sub := range val {
			out[k] = deepCopyValue(sub)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, sub := range val {
			out[i] = deepCopyValue(sub)
		}
		return out
	}
	return v
}
