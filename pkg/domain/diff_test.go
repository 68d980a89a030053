package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	active := StatusActive
	submitted := StatusSubmitted

	tests := []struct {
		name     string
		old      *View
		new      *View
		wantDiff *ViewDiff // nil means we expect no diff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new: &View{
				State: &State{
					SessionID: "sess-1",
					Status:    StatusActive,
					Values:    Values{"a": 1},
				},
				Visible: []string{"a"},
			},
			wantDiff: &ViewDiff{
				SessionID: "sess-1",
				Status:    &active,
				Values:    map[string]any{"a": 1},
				Shown:     []string{"a"},
			},
		},
		{
			name: "No Changes",
			old: &View{
				State:   &State{SessionID: "sess-1", Status: StatusActive, Values: Values{"a": 1}},
				Visible: []string{"a", "b"},
			},
			new: &View{
				State:   &State{SessionID: "sess-1", Status: StatusActive, Values: Values{"a": 1}},
				Visible: []string{"b", "a"},
			},
			wantDiff: nil,
		},
		{
			name: "Submitted",
			old: &View{
				State: &State{SessionID: "sess-1", Status: StatusActive},
			},
			new: &View{
				State: &State{SessionID: "sess-1", Status: StatusSubmitted},
			},
			wantDiff: &ViewDiff{
				SessionID: "sess-1",
				Status:    &submitted,
			},
		},
		{
			name: "Values Added & Modified",
			old: &View{
				State: &State{SessionID: "sess-1", Values: Values{"a": 1, "b": "old"}},
			},
			new: &View{
				State: &State{SessionID: "sess-1", Values: Values{"a": 1, "b": "new", "c": true}},
			},
			wantDiff: &ViewDiff{
				SessionID: "sess-1",
				Values:    map[string]any{"b": "new", "c": true},
			},
		},
		{
			name: "Branch Switch",
			old: &View{
				State:   &State{SessionID: "sess-1"},
				Visible: []string{"A", "B", "C"},
			},
			new: &View{
				State:   &State{SessionID: "sess-1"},
				Visible: []string{"A", "B", "D"},
			},
			wantDiff: &ViewDiff{
				SessionID: "sess-1",
				Shown:     []string{"D"},
				Hidden:    []string{"C"},
			},
		},
		{
			name: "Errors Cleared",
			old: &View{
				State: &State{Errors: Errors{"A": "This field is required"}},
			},
			new: &View{
				State: &State{},
			},
			wantDiff: &ViewDiff{
				Errors: map[string]string{"A": ""},
			},
		},
		{
			name: "Values Deletion",
			old: &View{
				State: &State{Values: Values{"a": 1, "b": 2}},
			},
			new: &View{
				State: &State{Values: Values{"a": 1}},
			},
			wantDiff: &ViewDiff{
				Values: map[string]any{"b": nil},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if tt.wantDiff == nil {
				if got != nil {
					t.Errorf("Diff() = %v, want nil", got)
				}
				return
			}

			if got == nil {
				t.Fatalf("Diff() = nil, want %v", tt.wantDiff)
			}

			if got.SessionID != tt.wantDiff.SessionID {
				t.Errorf("Diff().SessionID = %v, want %v", got.SessionID, tt.wantDiff.SessionID)
			}
			if !reflect.DeepEqual(got.Values, tt.wantDiff.Values) {
				t.Errorf("Diff().Values = %v, want %v", got.Values, tt.wantDiff.Values)
			}
			if !reflect.DeepEqual(got.Errors, tt.wantDiff.Errors) {
				t.Errorf("Diff().Errors = %v, want %v", got.Errors, tt.wantDiff.Errors)
			}
			if !reflect.DeepEqual(got.Shown, tt.wantDiff.Shown) {
				t.Errorf("Diff().Shown = %v, want %v", got.Shown, tt.wantDiff.Shown)
			}
			if !reflect.DeepEqual(got.Hidden, tt.wantDiff.Hidden) {
				t.Errorf("Diff().Hidden = %v, want %v", got.Hidden, tt.wantDiff.Hidden)
			}
			if !equalPtr(got.Status, tt.wantDiff.Status) {
				t.Errorf("Diff().Status = %v, want %v", got.Status, tt.wantDiff.Status)
			}
		})
	}
}

func TestDiffJSONSerialization(t *testing.T) {
	t.Run("Empty Values Omitted", func(t *testing.T) {
		s1 := &View{State: &State{Values: Values{"a": 1}}, Visible: []string{"a"}}
		s2 := &View{State: &State{Values: Values{"a": 1}}, Visible: []string{"a", "b"}}
		diff := Diff(s1, s2)

		if diff == nil {
			t.Fatal("Expected diff, got nil")
		}
		bytes, _ := json.Marshal(diff)
		if strings.Contains(string(bytes), `"values"`) {
			t.Errorf("JSON should not contain 'values' when empty, got: %s", string(bytes))
		}
	})

	t.Run("Deletions as Null", func(t *testing.T) {
		s1 := &View{State: &State{Values: Values{"a": 1, "b": 2}}}
		s2 := &View{State: &State{Values: Values{"a": 1}}}
		diff := Diff(s1, s2)

		if diff == nil {
			t.Fatal("Expected diff, got nil")
		}

		bytes, _ := json.Marshal(diff)
		if !strings.Contains(string(bytes), `"b":null`) {
			t.Errorf("JSON should contain 'b':null for deletion, got: %s", string(bytes))
		}
	})
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
