package domain

import (
	"reflect"
	"slices"
)

// ViewDiff represents the changes between two session views.
// It is designed to be serialized to JSON for partial updates on the client.
type ViewDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	Status *SessionStatus `json:"status,omitempty"`

	// Values contains only changed, added or deleted keys.
	// For deletions, the key is present with a nil value.
	Values map[string]any `json:"values,omitempty"`

	// Errors contains changed error messages. Cleared errors map to "".
	Errors map[string]string `json:"errors,omitempty"`

	// Shown and Hidden list nodes entering and leaving the visible set.
	Shown  []string `json:"shown,omitempty"`
	Hidden []string `json:"hidden,omitempty"`
}

// Diff calculates the difference between two views.
// If oldView is nil, it returns a diff representing the entire newView (initial load).
// It returns nil when nothing changed.
func Diff(oldView, newView *View) *ViewDiff {
	if newView == nil || newView.State == nil {
		return nil
	}

	diff := &ViewDiff{
		SessionID: newView.State.SessionID,
	}

	var oldState *State
	var oldVisible []string
	if oldView != nil {
		oldState = oldView.State
		oldVisible = oldView.Visible
	}

	if oldState == nil || oldState.Status != newView.State.Status {
		diff.Status = &newView.State.Status
	}

	diff.Values = diffValues(oldState, newView.State)
	diff.Errors = diffErrors(oldState, newView.State)
	diff.Shown, diff.Hidden = diffVisible(oldVisible, newView.Visible)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffValues(old, new *State) map[string]any {
	delta := make(map[string]any)

	if old == nil {
		for k, v := range new.Values {
			delta[k] = v
		}
	} else {
		for k, newVal := range new.Values {
			oldVal, exists := old.Values[k]
			if !exists || !reflect.DeepEqual(oldVal, newVal) {
				delta[k] = newVal
			}
		}
		for k := range old.Values {
			if _, exists := new.Values[k]; !exists {
				delta[k] = nil
			}
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

func diffErrors(old, new *State) map[string]string {
	delta := make(map[string]string)

	var oldErrors Errors
	if old != nil {
		oldErrors = old.Errors
	}
	for k, msg := range new.Errors {
		if oldErrors[k] != msg {
			delta[k] = msg
		}
	}
	for k := range oldErrors {
		if _, exists := new.Errors[k]; !exists {
			delta[k] = ""
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

func diffVisible(old, new []string) (shown, hidden []string) {
	for _, id := range new {
		if !slices.Contains(old, id) {
			shown = append(shown, id)
		}
	}
	for _, id := range old {
		if !slices.Contains(new, id) {
			hidden = append(hidden, id)
		}
	}
	return shown, hidden
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *ViewDiff) IsEmpty() bool {
	return d.Status == nil &&
		len(d.Values) == 0 &&
		len(d.Errors) == 0 &&
		len(d.Shown) == 0 &&
		len(d.Hidden) == 0
}
