package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
)

// Type defines the contract for field value validation.
// Implementations determine how a stored form value is checked against an input type.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "number").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

// DateLayout is the wire format of date inputs.
const DateLayout = "2006-01-02"

// StringType validates string values.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

// NumberType validates numbers. Numeric strings are accepted because terminal and
// HTTP clients submit text.
type NumberType struct{}

func (t *NumberType) Name() string { return "number" }

func (t *NumberType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return nil
	case json.Number:
		if _, err := v.Float64(); err != nil {
			return fmt.Errorf("expected number, got %q", v.String())
		}
		return nil
	case string:
		if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err != nil {
			return fmt.Errorf("expected number, got %q", v)
		}
		return nil
	}
	return fmt.Errorf("expected number, got %T", value)
}

// BoolType validates checkbox values.
type BoolType struct{}

func (t *BoolType) Name() string { return "bool" }

func (t *BoolType) Validate(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

// DateType validates dates in DateLayout.
type DateType struct{}

func (t *DateType) Name() string { return "date" }

func (t *DateType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected date string, got %T", value)
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return fmt.Errorf("expected date as YYYY-MM-DD, got %q", s)
	}
	return nil
}

// SliceType validates slices of a specific element type.
type SliceType struct {
	elemType Type
}

func (t *SliceType) Name() string {
	return fmt.Sprintf("[%s]", t.elemType.Name())
}

func (t *SliceType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected slice, got %T", value)
	}

	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i).Interface()
		if err := t.elemType.Validate(elem); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// OptionType accepts only the values of a select/radio option list.
// Values compare by their printed form so that 1 and "1" match.
type OptionType struct {
	options []domain.Option
}

func (t *OptionType) Name() string { return "option" }

func (t *OptionType) Validate(value any) error {
	got := fmt.Sprint(value)
	for _, opt := range t.options {
		if fmt.Sprint(opt.Value) == got {
			return nil
		}
	}
	return fmt.Errorf("%q is not one of the options", got)
}

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(any) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value any) error {
	return t.validate(value)
}

// --- Factory Functions ---

// String creates a string type validator.
func String() Type { return &StringType{} }

// Number creates a numeric type validator.
func Number() Type { return &NumberType{} }

// Bool creates a boolean type validator.
func Bool() Type { return &BoolType{} }

// Date creates a date type validator.
func Date() Type { return &DateType{} }

// Slice creates a slice type validator for elements of the given type.
func Slice(elemType Type) Type {
	return &SliceType{elemType: elemType}
}

// OneOf creates a validator restricted to the given options.
func OneOf(options []domain.Option) Type {
	return &OptionType{options: options}
}

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(any) error) Type {
	return &CustomType{name: name, validate: validate}
}

// ParseType converts a string type name to a Type.
// Supports "string", "number", "bool", "date" and slices such as "[string]".
func ParseType(typeStr string) (Type, error) {
	if len(typeStr) > 2 && typeStr[0] == '[' && typeStr[len(typeStr)-1] == ']' {
		elemType, err := ParseType(typeStr[1 : len(typeStr)-1])
		if err != nil {
			return nil, err
		}
		return Slice(elemType), nil
	}

	switch typeStr {
	case "string":
		return String(), nil
	case "number":
		return Number(), nil
	case "bool":
		return Bool(), nil
	case "date":
		return Date(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", typeStr)
	}
}

// ParseTypeMap converts a map of field names to type strings into a Schema.
// Example: {"age": "number", "tags": "[string]"}
func ParseTypeMap(typeMap map[string]string) (Schema, error) {
	result := make(Schema)
	for key, typeStr := range typeMap {
		t, err := ParseType(typeStr)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		result[key] = t
	}
	return result, nil
}

// ForInput derives the value type of an input field from its inputType.
// Select and radio inputs with options only accept option values.
// It returns nil for input types without a value constraint.
func ForInput(in *domain.InputData) Type {
	switch in.InputType {
	case domain.InputTypeNumber:
		return Number()
	case domain.InputTypeCheckbox:
		if len(in.Options) > 0 {
			return Slice(OneOf(in.Options))
		}
		return Bool()
	case domain.InputTypeDate:
		return Date()
	case domain.InputTypeSelect, domain.InputTypeRadio:
		if len(in.Options) > 0 {
			return OneOf(in.Options)
		}
		return nil
	case domain.InputTypeText, domain.InputTypeEmail, domain.InputTypeTextarea:
		return String()
	}
	return nil
}
