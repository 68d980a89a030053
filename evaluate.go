package arbor

import (
	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/graph"
)

// EvaluateCondition evaluates one edge condition against a value bag.
// idx may be nil; with an index, fields also resolve through node ids and names.
func EvaluateCondition(c domain.Condition, values domain.Values, idx *graph.Index) bool {
	return runtime.EvaluateCondition(c, values, idx)
}

// EvaluateConditions folds a condition list left to right.
func EvaluateConditions(conds []domain.Condition, values domain.Values, idx *graph.Index) bool {
	return runtime.EvaluateConditions(conds, values, idx)
}

// FindVisibleNodes returns the nodes reachable from startID under the current values.
func FindVisibleNodes(startID string, idx *graph.Index, values domain.Values) graph.VisibleSet {
	return runtime.FindVisibleNodes(startID, idx, values)
}

// ApplyTransform converts a referenced value the way reference defaults do.
func ApplyTransform(v any, fn domain.TransformFunction, mapping []domain.FieldMapping) any {
	return runtime.ApplyTransform(v, fn, mapping)
}
