package domain

import "time"

// SessionStatus defines where a form session is in its lifecycle.
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"    // Accepting value changes
	StatusSubmitted SessionStatus = "submitted" // Sink state: a valid submission happened
)

// State is the persisted snapshot of one form session.
// Visibility is never stored: it is derived from the graph and Values on demand.
type State struct {
	SessionID string        `json:"session_id"`
	FlowID    string        `json:"flow_id"`
	Status    SessionStatus `json:"status"`

	// Values is the value bag keyed by node id.
	Values Values `json:"values"`

	// Synced holds the values as of the last reference propagation tick.
	// Propagation compares against it to detect hand-edited derived fields.
	Synced Values `json:"synced,omitempty"`

	// Errors is the field error map from the last validation pass.
	Errors Errors `json:"errors,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewState creates a clean, active session for a flow.
func NewState(sessionID, flowID string) *State {
	return &State{
		SessionID: sessionID,
		FlowID:    flowID,
		Status:    StatusActive,
		Values:    make(Values),
		Synced:    make(Values),
		Errors:    make(Errors),
	}
}

// Snapshot returns a deep copy of the state that is safe to mutate.
func (s *State) Snapshot() *State {
	if s == nil {
		return nil
	}
	next := *s
	next.Values = s.Values.Clone()
	next.Synced = s.Synced.Clone()
	next.Errors = s.Errors.Clone()
	return &next
}

// View is what the render boundary receives for a session: the state plus the
// derived visible set and active edges.
type View struct {
	State       *State   `json:"state"`
	Visible     []string `json:"visible"`
	ActiveEdges []string `json:"active_edges,omitempty"`
}
