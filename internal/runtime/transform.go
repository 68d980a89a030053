package runtime

import (
	"encoding/json"
	"math"
	"reflect"

	"github.com/aretw0/arbor/pkg/domain"
)

// ApplyTransform converts a referenced value for its derived field.
// nil in is nil out. An empty function is the identity. Values that cannot be
// represented by the target kind (a non-numeric string for toNumber, a scalar for
// toObject) yield nil, which propagation treats as "nothing to write".
func ApplyTransform(v any, fn domain.TransformFunction, mapping []domain.FieldMapping) any {
	if v == nil {
		return nil
	}

	switch fn {
	case "":
		return v
	case domain.TransformToString:
		return stringify(normalize(v))
	case domain.TransformToNumber:
		if n, ok := toNumber(normalize(v)); ok {
			return n
		}
		return nil
	case domain.TransformToBoolean:
		return truthy(v)
	case domain.TransformToArray:
		return toArray(v)
	case domain.TransformToObject:
		return toObject(v, mapping)
	}
	return nil
}

// truthy follows the browser's boolean coercion: "", 0 and NaN are false,
// every other value (including "false") is true.
func truthy(v any) bool {
	switch val := normalize(v).(type) {
	case nil:
		return false
	case bool:
		return val
	case float64:
		return val != 0 && !math.IsNaN(val)
	case string:
		return val != ""
	}
	return true
}

func toArray(v any) []any {
	switch val := v.(type) {
	case []any:
		return domain.CopyValue(val).([]any)
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	}
	return []any{v}
}

// toObject copies SourceKey to TargetKey for each mapping pair.
// Pairs missing either key are skipped. Without mappings the object is copied as is.
func toObject(v any, mapping []domain.FieldMapping) any {
	src, ok := asObject(v)
	if !ok {
		return nil
	}

	if len(mapping) == 0 {
		return domain.CopyValue(src)
	}

	out := make(map[string]any)
	for _, m := range mapping {
		if m.SourceKey == "" || m.TargetKey == "" {
			continue
		}
		if val, ok := src[m.SourceKey]; ok {
			out[m.TargetKey] = val
		}
	}
	return out
}

// asObject accepts maps and JSON object text.
func asObject(v any) (map[string]any, bool) {
	switch val := v.(type) {
	case map[string]any:
		return val, true
	case domain.Values:
		return map[string]any(val), true
	case string:
		var out map[string]any
		if err := json.Unmarshal([]byte(val), &out); err == nil && out != nil {
			return out, true
		}
	}
	return nil, false
}
