package runner

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// RichResponse combines the new state, its view and the diff against the previous
// view for rich clients (HTTP, MCP). Diff is nil when nothing observable changed.
type RichResponse struct {
	State  *domain.State            `json:"state"`
	View   *domain.View             `json:"view"`
	Diff   *domain.ViewDiff         `json:"diff,omitempty"`
	Result *domain.ValidationResult `json:"result,omitempty"`
}

// StartAndView opens a session and renders its first view. The diff describes the
// whole view, as for an initial load.
func StartAndView(ctx context.Context, engine ports.StatelessEngine, sessionID, flowID string, initial domain.Values) (*RichResponse, error) {
	state, err := engine.Start(ctx, sessionID, flowID, initial)
	if err != nil {
		return nil, err
	}
	return respond(ctx, engine, nil, state, nil)
}

// ApplyAndView applies a patch and renders the resulting state.
// This ensures that rich clients always receive the fields revealed by their answers.
func ApplyAndView(ctx context.Context, engine ports.StatelessEngine, current *domain.State, patch domain.Values) (*RichResponse, error) {
	before, err := engine.View(ctx, current)
	if err != nil {
		return nil, err
	}
	next, err := engine.Apply(ctx, current, patch)
	if err != nil {
		return nil, err
	}
	return respond(ctx, engine, before, next, nil)
}

// SubmitAndView validates the session and renders the result.
func SubmitAndView(ctx context.Context, engine ports.StatelessEngine, current *domain.State) (*RichResponse, error) {
	before, err := engine.View(ctx, current)
	if err != nil {
		return nil, err
	}
	next, res, err := engine.Submit(ctx, current)
	if err != nil {
		return nil, err
	}
	return respond(ctx, engine, before, next, &res)
}

func respond(ctx context.Context, engine ports.StatelessEngine, before *domain.View, state *domain.State, res *domain.ValidationResult) (*RichResponse, error) {
	view, err := engine.View(ctx, state)
	if err != nil {
		// The state is still returned so the caller can persist it.
		return &RichResponse{State: state, Result: res}, err
	}
	return &RichResponse{
		State:  state,
		View:   view,
		Diff:   domain.Diff(before, view),
		Result: res,
	}, nil
}
