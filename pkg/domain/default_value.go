package domain

// DefaultValueType selects how an input's default is produced.
type DefaultValueType string

const (
	// DefaultStatic seeds a literal once, at form initialization.
	DefaultStatic DefaultValueType = "static"
	// DefaultReference keeps the field in sync with another field until hand-edited.
	DefaultReference DefaultValueType = "reference"
)

// TransformFunction converts a referenced value before it is written to the derived field.
type TransformFunction string

const (
	TransformToString  TransformFunction = "toString"
	TransformToNumber  TransformFunction = "toNumber"
	TransformToBoolean TransformFunction = "toBoolean"
	TransformToArray   TransformFunction = "toArray"
	TransformToObject  TransformFunction = "toObject"
)

// Valid reports whether t is empty (identity) or a known transform.
func (t TransformFunction) Valid() bool {
	switch t {
	case "", TransformToString, TransformToNumber, TransformToBoolean, TransformToArray, TransformToObject:
		return true
	}
	return false
}

// FieldMapping copies SourceKey of an object-shaped value into TargetKey.
type FieldMapping struct {
	SourceKey string `json:"sourceKey" yaml:"sourceKey" mapstructure:"sourceKey"`
	TargetKey string `json:"targetKey" yaml:"targetKey" mapstructure:"targetKey"`
}

// DefaultValue is either a static literal or a live reference to another field.
type DefaultValue struct {
	Type              DefaultValueType  `json:"type" yaml:"type" mapstructure:"type"`
	Value             any               `json:"value,omitempty" yaml:"value,omitempty" mapstructure:"value"`
	Reference         string            `json:"reference,omitempty" yaml:"reference,omitempty" mapstructure:"reference"`
	TransformFunction TransformFunction `json:"transformFunction,omitempty" yaml:"transformFunction,omitempty" mapstructure:"transformFunction"`
	ObjectMapping     []FieldMapping    `json:"objectMapping,omitempty" yaml:"objectMapping,omitempty" mapstructure:"objectMapping"`
}

// IsReference reports whether the default is a live binding.
func (d *DefaultValue) IsReference() bool {
	return d != nil && d.Type == DefaultReference && d.Reference != ""
}

// IsStatic reports whether the default is a literal seeded at initialization.
func (d *DefaultValue) IsStatic() bool {
	return d != nil && d.Type == DefaultStatic
}
