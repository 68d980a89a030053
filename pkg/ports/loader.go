package ports

import "context"

// FlowLoader defines how the engine retrieves flow documents.
// This allows the storage layer (Loam, FS, Memory) to be decoupled.
type FlowLoader interface {
	// GetFlow retrieves the raw document of a flow by ID.
	// It returns the raw bytes (which the compiler will parse) or an error wrapping
	// domain.ErrFlowNotFound.
	GetFlow(id string) ([]byte, error)

	// ListFlows returns the IDs of all flows available to the loader.
	// This is used for introspection and sub-flow resolution (e.g. 'arbor validate').
	ListFlows() ([]string, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
// This is typically used for hot-reload or dev-mode functionality.
type Watchable interface {
	// Watch returns a channel that receives the ID of each flow that changed.
	Watch(ctx context.Context) (<-chan string, error)
}
