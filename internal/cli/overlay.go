package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/pkg/adapters/file"
	"github.com/aretw0/arbor/pkg/domain"
)

// OverlayOptions selects the answers a diagram is highlighted with.
// SessionID wins over Values.
type OverlayOptions struct {
	RepoPath  string
	FlowID    string
	Values    string
	SessionID string
	RedisURL  string
}

// Overlay evaluates the flow for the given answers and returns the visibility overlay
// (nil when no answers were given) together with the resolved flow id.
func Overlay(ctx context.Context, engine *arbor.Engine, opts OverlayOptions, logger *slog.Logger) (*graph.Overlay, string, error) {
	var state *domain.State

	if opts.SessionID != "" {
		p, err := SetupPersistence(ctx, PersistenceConfig{
			RedisURL: opts.RedisURL,
			Dir:      filepath.Join(opts.RepoPath, filepath.FromSlash(file.DefaultDir)),
		}, logger)
		if err != nil {
			return nil, "", err
		}
		defer p.Close()

		if state, err = p.Sessions.Load(ctx, opts.SessionID); err != nil {
			return nil, "", fmt.Errorf("failed to load session %q: %w", opts.SessionID, err)
		}
		if opts.FlowID != "" && opts.FlowID != state.FlowID {
			return nil, "", fmt.Errorf("session %q belongs to flow %q, not %q", opts.SessionID, state.FlowID, opts.FlowID)
		}
	} else {
		flowID, err := resolveFlow(engine, opts.RepoPath, opts.FlowID)
		if err != nil {
			return nil, "", err
		}
		values, err := parseValues(opts.Values)
		if err != nil {
			return nil, "", err
		}
		if values == nil {
			return nil, flowID, nil
		}
		if state, err = engine.Start(ctx, "", flowID, values); err != nil {
			return nil, "", err
		}
	}

	view, err := engine.View(ctx, state)
	if err != nil {
		return nil, "", err
	}
	return &graph.Overlay{Visible: view.Visible, ActiveEdges: view.ActiveEdges}, state.FlowID, nil
}
