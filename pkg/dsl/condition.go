package dsl

import "github.com/aretw0/arbor/pkg/domain"

// FieldRef starts a condition over a field name or node id.
type FieldRef string

// Field returns a reference used to build conditions: dsl.Field("age").Gte(18).
func Field(name string) FieldRef { return FieldRef(name) }

func (f FieldRef) cond(op domain.Operator, v any) domain.Condition {
	return domain.Condition{Field: string(f), Operator: op, Value: v}
}

func (f FieldRef) Eq(v any) domain.Condition  { return f.cond(domain.OpEqual, v) }
func (f FieldRef) Neq(v any) domain.Condition { return f.cond(domain.OpNotEqual, v) }
func (f FieldRef) Gt(v any) domain.Condition  { return f.cond(domain.OpGreater, v) }
func (f FieldRef) Gte(v any) domain.Condition { return f.cond(domain.OpGreaterEqual, v) }
func (f FieldRef) Lt(v any) domain.Condition  { return f.cond(domain.OpLess, v) }
func (f FieldRef) Lte(v any) domain.Condition { return f.cond(domain.OpLessEqual, v) }

// Or joins c with the condition that follows it using OR.
func Or(c domain.Condition) domain.Condition {
	c.LogicalOperator = domain.LogicalOr
	return c
}
