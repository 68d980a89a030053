package ports

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// StateStore defines the interface for persisting form sessions.
// This allows a form to be filled across requests, processes or devices.
type StateStore interface {
	// Save persists the state for a given session ID.
	Save(ctx context.Context, sessionID string, state *domain.State) error

	// Load retrieves the state for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.State, error)

	// Delete removes the state for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns all active session IDs.
	List(ctx context.Context) ([]string, error)
}
