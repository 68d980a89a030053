package runner

import (
	"context"

	"github.com/aretw0/arbor/pkg/ports"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (terminal) and JSON (structured) modes.
type IOHandler interface {
	// NodeRenderer draws visible nodes. RenderInput doubles as the prompt for the
	// field the runner is about to read.
	ports.NodeRenderer

	// Input reads one answer from the user.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message to the user (status, summaries).
	// This is distinct from content rendering.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer is a function that transforms UI content before outputting it.
// This allows for markdown rendering without coupling the core package.
type ContentRenderer func(string) (string, error)
