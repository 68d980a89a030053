package runtime

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/graph"
)

// EvaluateCondition reports whether a single condition holds for values.
// idx is optional; when set, a field that is not a key of values is resolved as a
// node id (or input name) through the index.
// Incomplete conditions are vacuously true.
func EvaluateCondition(c domain.Condition, values domain.Values, idx *graph.Index) bool {
	if c.Incomplete() {
		return true
	}

	left := normalize(resolveField(c.Field, values, idx))
	right := normalize(c.Value)

	switch c.Operator {
	case domain.OpEqual:
		return looseEqual(left, right)
	case domain.OpNotEqual:
		return !looseEqual(left, right)
	case domain.OpGreater, domain.OpLess, domain.OpGreaterEqual, domain.OpLessEqual:
		return compareOrdered(c.Operator, left, right)
	}
	return false
}

// EvaluateConditions folds a condition list left to right.
// The logical operator stored on the previous condition joins it with the next one
// (AND when absent). AND stops at the first false, OR at the first true.
// An empty list is true.
func EvaluateConditions(conds []domain.Condition, values domain.Values, idx *graph.Index) bool {
	if len(conds) == 0 {
		return true
	}

	result := EvaluateCondition(conds[0], values, idx)
	for i := 1; i < len(conds); i++ {
		op := conds[i-1].LogicalOperator
		if op == "" {
			op = domain.LogicalAnd
		}

		switch {
		case op == domain.LogicalOr && result:
			return true
		case op != domain.LogicalOr && !result:
			return false
		}
		result = EvaluateCondition(conds[i], values, idx)
	}
	return result
}

// resolveField looks up a condition field.
// values[field] wins; otherwise the index resolves the field to a node and that
// node's own keys (id, then input name) are read.
func resolveField(field string, values domain.Values, idx *graph.Index) any {
	if v, ok := values[field]; ok {
		return v
	}
	if idx == nil {
		return nil
	}
	n, ok := idx.FieldNode(field)
	if !ok {
		return nil
	}
	return nodeValue(n, values)
}

// nodeValue reads the value bag for a node: by id first, then by field name.
func nodeValue(n *domain.Node, values domain.Values) any {
	if v, ok := values[n.ID]; ok {
		return v
	}
	if key := n.FieldKey(); key != n.ID {
		return values[key]
	}
	return nil
}

// normalize maps a raw value into the comparable domain:
// nil, bool, float64 or string. Collections become their JSON text.
func normalize(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case bool, string:
		return val
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int8:
		return float64(val)
	case int16:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case uint:
		return float64(val)
	case uint8:
		return float64(val)
	case uint16:
		return float64(val)
	case uint32:
		return float64(val)
	case uint64:
		return float64(val)
	}

	b, err := json.Marshal(v)
	if err != nil {
		return stringify(v)
	}
	return string(b)
}

func looseEqual(left, right any) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}
	if l, ok := toNumber(left); ok {
		if r, ok := toNumber(right); ok {
			return l == r
		}
	}
	return stringify(left) == stringify(right)
}

func compareOrdered(op domain.Operator, left, right any) bool {
	if left == nil || right == nil {
		return false
	}
	l, ok := toNumber(left)
	if !ok {
		return false
	}
	r, ok := toNumber(right)
	if !ok {
		return false
	}

	switch op {
	case domain.OpGreater:
		return l > r
	case domain.OpLess:
		return l < r
	case domain.OpGreaterEqual:
		return l >= r
	case domain.OpLessEqual:
		return l <= r
	}
	return false
}

// toNumber converts a normalized value to a finite float64.
// Strings follow the browser's numeric conversion: surrounding whitespace is ignored,
// an empty string is zero and 0x/0o/0b integer literals are accepted.
func toNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, !math.IsNaN(val) && !math.IsInf(val, 0)
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case string:
		return parseNumber(val)
	}
	return 0, false
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}

	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			if strings.ContainsRune(s[2:], '_') {
				return 0, false
			}
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return 0, false
			}
			return float64(n), true
		}
	}

	for _, r := range s {
		if !strings.ContainsRune("0123456789.eE+-", r) {
			return 0, false
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// stringify renders a normalized value the way the browser would print it.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
