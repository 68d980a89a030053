package schema

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
)

func TestNumberType(t *testing.T) {
	n := Number()
	if n.Name() != "number" {
		t.Errorf("expected name 'number', got %q", n.Name())
	}

	for _, v := range []any{3, 2.5, int64(7), "42", " 1.5 ", json.Number("10")} {
		if err := n.Validate(v); err != nil {
			t.Errorf("expected %#v to be a number, got %v", v, err)
		}
	}
	for _, v := range []any{"abc", true, nil, []any{1}, json.Number("x")} {
		if err := n.Validate(v); err == nil {
			t.Errorf("expected %#v to be rejected", v)
		}
	}
}

func TestDateType(t *testing.T) {
	d := Date()
	if err := d.Validate("2024-02-29"); err != nil {
		t.Errorf("expected valid date, got %v", err)
	}
	if err := d.Validate("2023-02-29"); err == nil {
		t.Error("expected invalid calendar date to fail")
	}
	if err := d.Validate("29/02/2024"); err == nil {
		t.Error("expected wrong layout to fail")
	}
	if err := d.Validate(20240229); err == nil {
		t.Error("expected non-string to fail")
	}
}

func TestOneOf(t *testing.T) {
	opts := []domain.Option{{Label: "Yes", Value: "y"}, {Label: "One", Value: 1}}
	o := OneOf(opts)

	if err := o.Validate("y"); err != nil {
		t.Errorf("expected option value to pass, got %v", err)
	}
	if err := o.Validate("1"); err != nil {
		t.Errorf("expected printed form to match, got %v", err)
	}
	if err := o.Validate("Yes"); err == nil {
		t.Error("labels are not values")
	}
}

func TestSliceType(t *testing.T) {
	s := Slice(String())
	if s.Name() != "[string]" {
		t.Errorf("expected name '[string]', got %q", s.Name())
	}
	if err := s.Validate([]any{"a", "b"}); err != nil {
		t.Errorf("expected valid slice, got %v", err)
	}
	if err := s.Validate([]any{"a", 2}); err == nil {
		t.Error("expected element error")
	}
	if err := s.Validate("a"); err == nil {
		t.Error("expected non-slice to fail")
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"string", "string", false},
		{"number", "number", false},
		{"bool", "bool", false},
		{"date", "date", false},
		{"[number]", "[number]", false},
		{"[[string]]", "[[string]]", false},
		{"int", "", true},
		{"[]", "", true},
	}
	for _, tt := range tests {
		got, err := ParseType(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseType(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseType(%q): %v", tt.in, err)
			continue
		}
		if got.Name() != tt.want {
			t.Errorf("ParseType(%q) = %q, want %q", tt.in, got.Name(), tt.want)
		}
	}
}

func TestForInput(t *testing.T) {
	opts := []domain.Option{{Label: "A", Value: "a"}}
	tests := []struct {
		in   domain.InputData
		want string
	}{
		{domain.InputData{InputType: domain.InputTypeNumber}, "number"},
		{domain.InputData{InputType: domain.InputTypeDate}, "date"},
		{domain.InputData{InputType: domain.InputTypeEmail}, "string"},
		{domain.InputData{InputType: domain.InputTypeCheckbox}, "bool"},
		{domain.InputData{InputType: domain.InputTypeCheckbox, Options: opts}, "[option]"},
		{domain.InputData{InputType: domain.InputTypeSelect, Options: opts}, "option"},
		{domain.InputData{InputType: domain.InputTypeSelect}, ""},
		{domain.InputData{InputType: "color"}, ""},
	}
	for _, tt := range tests {
		got := ForInput(&tt.in)
		name := ""
		if got != nil {
			name = got.Name()
		}
		if name != tt.want {
			t.Errorf("ForInput(%+v) = %q, want %q", tt.in, name, tt.want)
		}
	}
}

func TestSchemaJSON(t *testing.T) {
	s := Schema{"age": Number(), "tags": Slice(String())}
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"age":"number","tags":"[string]"}` {
		t.Errorf("unexpected json %s", b)
	}

	var back Schema
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back["tags"].Name() != "[string]" {
		t.Errorf("expected [string], got %q", back["tags"].Name())
	}
}
