package domain

import (
	"time"
)

// ValidationMode controls when the custom validator is consulted.
type ValidationMode string

const (
	// ValidateOnSubmit runs validation only when the form is submitted (default).
	ValidateOnSubmit ValidationMode = "onSubmit"
	// ValidateOnChange re-validates after every settled value change.
	ValidateOnChange ValidationMode = "onChange"
)

// EventType defines the category of the event.
type EventType string

const (
	EventChange     EventType = "change"
	EventSubmit     EventType = "submit"
	EventValidate   EventType = "validate"
	EventVisibility EventType = "visibility"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	FlowID    string    `json:"flow_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
}

// ChangeEvent is fired after every settled value change.
// Values is the named export view (keyed by label/name).
type ChangeEvent struct {
	EventBase
	Changed []string       `json:"changed"`
	Values  map[string]any `json:"values"`
}

// SubmitEvent is fired only for a valid submission.
type SubmitEvent struct {
	EventBase
	Values map[string]any `json:"values"`
}

// ValidationEvent reports the outcome of a validation pass.
type ValidationEvent struct {
	EventBase
	Valid  bool   `json:"valid"`
	Errors Errors `json:"errors,omitempty"`
}

// VisibilityEvent reports nodes that appeared or disappeared after a recompute.
type VisibilityEvent struct {
	EventBase
	Shown  []string `json:"shown,omitempty"`
	Hidden []string `json:"hidden,omitempty"`
}

// LifecycleHooks defines callbacks for form observability and the render boundary.
// Hooks run synchronously on the caller's goroutine.
type LifecycleHooks struct {
	OnChange     func(*ChangeEvent)
	OnSubmit     func(*SubmitEvent)
	OnValidate   func(*ValidationEvent)
	OnVisibility func(*VisibilityEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnChange:     chain(h.OnChange, other.OnChange),
		OnSubmit:     chain(h.OnSubmit, other.OnSubmit),
		OnValidate:   chain(h.OnValidate, other.OnValidate),
		OnVisibility: chain(h.OnVisibility, other.OnVisibility),
	}
}

func chain[T any](a, b func(*T)) func(*T) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(e *T) {
		a(e)
		b(e)
	}
}
