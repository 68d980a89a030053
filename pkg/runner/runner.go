package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/graph"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/aretw0/arbor/pkg/session"
)

var (
	// ErrInterrupted is returned when the user interrupts the run (Ctrl+C).
	ErrInterrupted = errors.New("interrupted")

	// ErrUnresolvable is returned when a submission fails on fields the runner
	// cannot prompt for (for example custom validator keys that are not visible inputs).
	ErrUnresolvable = errors.New("form has errors on fields that cannot be prompted")
)

// Runner fills a form in a terminal: it renders the visible nodes progressively,
// prompts for the first pending input, applies the answer and repeats until nothing
// is pending, then submits and re-prompts the fields that failed validation.
type Runner struct {
	// Handler is the strategy for IO. If nil, a TextHandler over stdin/stdout is used.
	Handler IOHandler

	// Logger is used for internal debug logging.
	Logger *slog.Logger

	// Sessions persists every step. If nil, sessions are ephemeral.
	Sessions  *session.Manager
	SessionID string

	// Registry supplies options for inputs that name a data source.
	Registry *registry.Registry

	Headless bool
}

// NewRunner creates a Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// loop holds the per-run bookkeeping.
type loop struct {
	graph  *domain.Graph
	state  *domain.State
	shown  graph.VisibleSet // non-input nodes already printed
	asked  graph.VisibleSet // inputs already prompted once
	failed bool             // the last action was a failed submission
}

// Run executes the form loop for flowID and returns the last state.
// It returns with a nil error when the form was submitted or the input was closed
// (EOF, "exit", "quit"); check State.Status to tell them apart.
func (r *Runner) Run(ctx context.Context, engine ports.StatelessEngine, flowID string, initial domain.Values) (*domain.State, error) {
	handler := r.resolveHandler()

	state, err := r.start(ctx, engine, flowID, initial)
	if err != nil {
		return nil, err
	}
	if state.Status == domain.StatusSubmitted {
		_ = handler.SystemOutput(ctx, fmt.Sprintf("Session %q was already submitted.", state.SessionID))
		return state, nil
	}

	g, err := engine.Inspect(ctx, state.FlowID)
	if err != nil {
		return state, err
	}
	if !r.Headless {
		title := g.Name
		if title == "" {
			title = g.ID
		}
		_ = handler.SystemOutput(ctx, title)
	}

	signals := NewSignalManager(ctx)
	defer signals.Stop()

	l := &loop{
		graph: g,
		state: state,
		shown: graph.NewVisibleSet(),
		asked: graph.NewVisibleSet(),
	}

	for {
		pending, err := r.render(ctx, engine, handler, l)
		if err != nil {
			return l.state, err
		}

		if pending == nil {
			if l.failed {
				return l.state, fmt.Errorf("%w: %v", ErrUnresolvable, l.state.Errors)
			}
			done, err := r.submit(ctx, engine, handler, l)
			if err != nil || done {
				return l.state, err
			}
			continue
		}
		l.failed = false

		if err := Dispatch(ctx, handler, *pending); err != nil {
			return l.state, fmt.Errorf("render error: %w", err)
		}

		text, err := handler.Input(signals.Context())
		if err != nil {
			signals.CheckRace()
			switch {
			case signals.Interrupted():
				return l.state, ErrInterrupted
			case ctx.Err() != nil:
				return l.state, ctx.Err()
			case errors.Is(err, io.EOF):
				r.Logger.Debug("input closed before submission", "session_id", l.state.SessionID)
				return l.state, nil
			}
			return l.state, fmt.Errorf("input error: %w", err)
		}
		if text == "exit" || text == "quit" {
			return l.state, nil
		}

		if err := r.answer(ctx, engine, handler, l, *pending, text); err != nil {
			return l.state, err
		}
	}
}

// render prints the visible nodes that were not printed yet, in tree order, up to
// the first pending input, which it returns without printing.
func (r *Runner) render(ctx context.Context, engine ports.StatelessEngine, handler IOHandler, l *loop) (*ports.RenderContext, error) {
	view, err := engine.View(ctx, l.state)
	if err != nil {
		return nil, fmt.Errorf("view error: %w", err)
	}

	var (
		pending  *ports.RenderContext
		firstErr error
	)
	roots := graph.BuildTree(l.graph.Nodes, graph.NewVisibleSet(view.Visible...))
	graph.Walk(roots, func(depth int, tn *graph.TreeNode) {
		if pending != nil || firstErr != nil {
			return
		}
		rc := renderContext(tn.Node, depth, l.state)

		if tn.Node.Type == domain.NodeKindInput {
			if l.asked.Has(tn.Node.ID) && rc.Error == "" {
				return
			}
			in, _ := tn.Node.Input()
			rc.Options, firstErr = r.Registry.Options(ctx, in, l.state.Values)
			if firstErr != nil {
				firstErr = fmt.Errorf("options for %q: %w", tn.Node.ID, firstErr)
				return
			}
			pending = &rc
			return
		}

		if l.shown.Has(tn.Node.ID) {
			return
		}
		l.shown.Add(tn.Node.ID)
		firstErr = Dispatch(ctx, handler, rc)
	})
	return pending, firstErr
}

// answer converts the typed text and applies it. Blank keeps the current value,
// unless the field has an error, in which case the value is cleared.
func (r *Runner) answer(ctx context.Context, engine ports.StatelessEngine, handler IOHandler, l *loop, rc ports.RenderContext, text string) error {
	id := rc.Node.ID
	l.asked.Add(id)

	var patch domain.Values
	if strings.TrimSpace(text) == "" {
		if rc.Error == "" {
			return nil
		}
		patch = domain.Values{id: nil}
	} else {
		in, _ := rc.Node.Input()
		value, err := ParseAnswer(in, rc.Options, text)
		if err != nil {
			delete(l.asked, id)
			return handler.SystemOutput(ctx, err.Error())
		}
		patch = domain.Values{id: value}
	}

	next, err := r.apply(ctx, engine, l.state, patch)
	if err != nil {
		return fmt.Errorf("apply error: %w", err)
	}
	l.state = next
	r.Logger.Debug("answer applied", "session_id", next.SessionID, "node_id", id)
	return nil
}

func (r *Runner) submit(ctx context.Context, engine ports.StatelessEngine, handler IOHandler, l *loop) (bool, error) {
	var res domain.ValidationResult
	submit := func(ctx context.Context, state *domain.State) (*domain.State, error) {
		next, result, err := engine.Submit(ctx, state)
		res = result
		return next, err
	}

	var (
		next *domain.State
		err  error
	)
	if r.persistent() {
		_, next, err = r.Sessions.Update(ctx, r.SessionID, submit)
	} else {
		next, err = submit(ctx, l.state)
	}
	if err != nil {
		return false, fmt.Errorf("submit error: %w", err)
	}
	l.state = next

	if res.Valid {
		if !r.Headless {
			_ = handler.SystemOutput(ctx, "Form submitted.")
		}
		return true, nil
	}
	l.failed = true
	_ = handler.SystemOutput(ctx, fmt.Sprintf("Please fix %d field(s).", len(res.Errors)))
	return false, nil
}

func (r *Runner) apply(ctx context.Context, engine ports.StatelessEngine, state *domain.State, patch domain.Values) (*domain.State, error) {
	if !r.persistent() {
		return engine.Apply(ctx, state, patch)
	}
	_, next, err := r.Sessions.Update(ctx, r.SessionID, func(ctx context.Context, prev *domain.State) (*domain.State, error) {
		return engine.Apply(ctx, prev, patch)
	})
	return next, err
}

func (r *Runner) start(ctx context.Context, engine ports.StatelessEngine, flowID string, initial domain.Values) (*domain.State, error) {
	if !r.persistent() {
		state, err := engine.Start(ctx, r.SessionID, flowID, initial)
		if err != nil {
			return nil, fmt.Errorf("failed to create initial state: %w", err)
		}
		return state, nil
	}

	state, err := r.Sessions.LoadOrStart(ctx, r.SessionID, func(ctx context.Context) (*domain.State, error) {
		return engine.Start(ctx, r.SessionID, flowID, initial)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load session %q: %w", r.SessionID, err)
	}
	if flowID != "" && state.FlowID != flowID {
		return nil, fmt.Errorf("session %q belongs to flow %q, not %q", r.SessionID, state.FlowID, flowID)
	}
	return state, nil
}

func (r *Runner) persistent() bool {
	return r.Sessions != nil && r.SessionID != ""
}

// resolveHandler ensures a valid IOHandler is set.
func (r *Runner) resolveHandler() IOHandler {
	if r.Handler == nil {
		// Memoize so that repeated runs share one input pump.
		r.Handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	return r.Handler
}
