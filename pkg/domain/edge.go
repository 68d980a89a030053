package domain

// Operator compares a field value against a condition value.
type Operator string

const (
	OpEqual        Operator = "==="
	OpNotEqual     Operator = "!=="
	OpGreater      Operator = ">"
	OpLess         Operator = "<"
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
)

// Valid reports whether op is a supported comparison operator.
func (op Operator) Valid() bool {
	switch op {
	case OpEqual, OpNotEqual, OpGreater, OpLess, OpGreaterEqual, OpLessEqual:
		return true
	}
	return false
}

// Ordering reports whether op is one of the numeric ordering operators.
func (op Operator) Ordering() bool {
	switch op {
	case OpGreater, OpLess, OpGreaterEqual, OpLessEqual:
		return true
	}
	return false
}

// LogicalOperator joins a condition with the next one in the list.
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "AND"
	LogicalOr  LogicalOperator = "OR"
)

// Condition is a single comparison over a form value.
// Field is a form field name or a node id.
// LogicalOperator applies to the combination with the *next* condition.
type Condition struct {
	Field           string          `json:"field" yaml:"field" mapstructure:"field"`
	Operator        Operator        `json:"operator" yaml:"operator" mapstructure:"operator"`
	Value           any             `json:"value" yaml:"value" mapstructure:"value"`
	LogicalOperator LogicalOperator `json:"logicalOperator,omitempty" yaml:"logicalOperator,omitempty" mapstructure:"logicalOperator"`
}

// Incomplete reports whether the condition misses a field, operator or value.
// Incomplete conditions never block traversal.
func (c Condition) Incomplete() bool {
	if c.Field == "" || c.Operator == "" || c.Value == nil {
		return true
	}
	s, ok := c.Value.(string)
	return ok && s == ""
}

// EdgeData carries the optional branch configuration of an edge.
type EdgeData struct {
	Conditions []Condition `json:"conditions,omitempty" yaml:"conditions,omitempty" mapstructure:"conditions"`
	IsFallback bool        `json:"isFallback,omitempty" yaml:"isFallback,omitempty" mapstructure:"isFallback"`
	Label      string      `json:"label,omitempty" yaml:"label,omitempty" mapstructure:"label"`
}

// Edge is a directed arc between two nodes.
type Edge struct {
	ID     string    `json:"id" yaml:"id" mapstructure:"id"`
	Source string    `json:"source" yaml:"source" mapstructure:"source"`
	Target string    `json:"target" yaml:"target" mapstructure:"target"`
	Data   *EdgeData `json:"data,omitempty" yaml:"data,omitempty" mapstructure:"data"`
}

// Conditions returns the edge conditions (nil for unconditional edges).
func (e *Edge) Conditions() []Condition {
	if e.Data == nil {
		return nil
	}
	return e.Data.Conditions
}

// Conditional reports whether the edge takes part in branch evaluation.
// Fallback edges count as conditional even without conditions of their own.
func (e *Edge) Conditional() bool {
	return len(e.Conditions()) > 0 || e.Fallback()
}

// Fallback reports whether the edge is followed only when no sibling matches.
func (e *Edge) Fallback() bool {
	return e.Data != nil && e.Data.IsFallback
}
