package ports

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// StatelessEngine is the form evaluator as seen by adapters that keep session state
// outside the process (HTTP, MCP). Every call receives the state and returns a new one.
type StatelessEngine interface {
	// Start opens a new session for a flow with optional initial values.
	Start(ctx context.Context, sessionID, flowID string, initial domain.Values) (*domain.State, error)

	// Apply sets a batch of field values and returns the settled state.
	Apply(ctx context.Context, state *domain.State, patch domain.Values) (*domain.State, error)

	// Submit validates the visible fields. A valid submission moves the session to
	// domain.StatusSubmitted.
	Submit(ctx context.Context, state *domain.State) (*domain.State, domain.ValidationResult, error)

	// View derives the visible set and active edges for a state without changing it.
	View(ctx context.Context, state *domain.State) (*domain.View, error)

	// Inspect returns the merged graph of a flow for introspection.
	Inspect(ctx context.Context, flowID string) (*domain.Graph, error)
}
