package arbor

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/arbor/internal/compiler"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/internal/runtime"
	loamAdapter "github.com/aretw0/arbor/pkg/adapters/loam"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/graph"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/schema"
	"github.com/aretw0/loam"
)

// Form is a live form session. See runtime.Form.
type Form = runtime.Form

// Validator is a custom field check merged into every validation pass.
// It returns messages keyed by node id; non-empty messages override built-in ones.
type Validator = runtime.Validator

// Engine is the high-level entry point for the arbor library.
// It loads flows, inlines sub-flows and opens form sessions over them.
// Engine is safe for concurrent use; the Forms it opens are not.
type Engine struct {
	loader     ports.FlowLoader
	parser     *compiler.Parser
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	mode       domain.ValidationMode
	validator  Validator
	typeChecks bool
	Name       string

	mu    sync.RWMutex
	flows map[string]*domain.Graph
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks for every form the engine opens.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLoader injects a custom FlowLoader, bypassing the default Loam initialization.
func WithLoader(l ports.FlowLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithParser overrides the document parser (default: JSON or YAML, detected).
func WithParser(p *compiler.Parser) Option {
	return func(e *Engine) {
		e.parser = p
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithValidationMode selects when custom validation runs (default: on submit).
func WithValidationMode(mode domain.ValidationMode) Option {
	return func(e *Engine) {
		e.mode = mode
	}
}

// WithValidator sets the custom validator used by every form.
func WithValidator(v Validator) Option {
	return func(e *Engine) {
		e.validator = v
	}
}

// WithTypeChecks enables value checks derived from each input's inputType
// (numbers, dates, option values). Custom validator messages still win.
func WithTypeChecks() Option {
	return func(e *Engine) {
		e.typeChecks = true
	}
}

// New initializes a new arbor Engine.
// By default, it uses a Loam repository at the given path.
// If WithLoader option is provided, repoPath can be empty and Loam is skipped.
func New(repoPath string, opts ...Option) (*Engine, error) {
	eng := &Engine{
		flows: make(map[string]*domain.Graph),
	}

	for _, opt := range opts {
		opt(eng)
	}

	if eng.loader == nil {
		if repoPath == "" {
			return nil, fmt.Errorf("repoPath is required when no custom loader is provided")
		}

		absPath, err := filepath.Abs(repoPath)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		eng.Name = filepath.Base(absPath)

		// Strict mode keeps numbers consistent (json.Number) across Markdown, YAML and JSON.
		// The engine never writes flows, so the repository is opened read-only.
		repo, err := loam.Init(absPath,
			loam.WithStrict(true),
			loam.WithReadOnly(true),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize loam: %w", err)
		}

		typedRepo := loam.NewTypedRepository[loamAdapter.FlowMetadata](repo)
		eng.loader = loamAdapter.New(typedRepo)
	} else if repoPath != "" {
		eng.Name = filepath.Base(repoPath)
	}

	if eng.parser == nil {
		eng.parser = compiler.NewParser()
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("repo", eng.Name)
	}

	return eng, nil
}

// Loader returns the underlying FlowLoader used by the engine.
func (e *Engine) Loader() ports.FlowLoader {
	return e.loader
}

// Flows lists the flows the loader can serve.
func (e *Engine) Flows() ([]string, error) {
	return e.loader.ListFlows()
}

// Flow loads a flow with all of its sub-flows inlined.
// Merged graphs are cached until Invalidate is called.
func (e *Engine) Flow(ctx context.Context, flowID string) (*domain.Graph, error) {
	e.mu.RLock()
	g, ok := e.flows[flowID]
	e.mu.RUnlock()
	if ok {
		return g, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root, err := e.parseFlow(flowID)
	if err != nil {
		return nil, err
	}
	merged, err := graph.Merge(root, e.parseFlow)
	if err != nil {
		return nil, fmt.Errorf("flow %s: %w", flowID, err)
	}

	e.mu.Lock()
	e.flows[flowID] = merged
	e.mu.Unlock()

	e.logger.Debug("flow loaded", "flow_id", flowID, "nodes", len(merged.Nodes), "edges", len(merged.Edges))
	return merged, nil
}

func (e *Engine) parseFlow(flowID string) (*domain.Graph, error) {
	raw, err := e.loader.GetFlow(flowID)
	if err != nil {
		return nil, err
	}
	g, err := e.parser.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("flow %s: %w", flowID, err)
	}
	if g.ID == "" {
		g.ID = flowID
	}
	return g, nil
}

// Invalidate drops cached flows. With no ids every flow is dropped, which is what a
// sub-flow change needs since parents embed it.
func (e *Engine) Invalidate(flowIDs ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(flowIDs) == 0 {
		e.flows = make(map[string]*domain.Graph)
		return
	}
	for _, id := range flowIDs {
		delete(e.flows, id)
	}
}

// Watch returns a channel that signals when a flow changes.
// The flow cache is invalidated before each notification is forwarded.
// Returns error if the loader does not support watching.
func (e *Engine) Watch(ctx context.Context) (<-chan string, error) {
	w, ok := e.loader.(ports.Watchable)
	if !ok {
		return nil, fmt.Errorf("current loader does not support watching")
	}
	events, err := w.Watch(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan string, 1)
	go func() {
		defer close(out)
		for id := range events {
			e.Invalidate()
			e.logger.Info("flow changed", "flow_id", id)
			select {
			case out <- id:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (e *Engine) formOptions(extra ...runtime.FormOption) []runtime.FormOption {
	opts := []runtime.FormOption{
		runtime.WithLogger(e.logger),
		runtime.WithLifecycleHooks(e.hooks),
		runtime.WithValidationMode(e.mode),
		runtime.WithValidator(e.effectiveValidator()),
	}
	return append(opts, extra...)
}

func (e *Engine) effectiveValidator() Validator {
	if !e.typeChecks {
		return e.validator
	}
	return CombineValidators(schema.ValueChecker(nil), e.validator)
}

// CombineValidators runs validators in order. Later messages win for the same field.
func CombineValidators(validators ...Validator) Validator {
	return func(values domain.Values, visible []domain.Node) map[string]string {
		out := make(map[string]string)
		for _, v := range validators {
			if v == nil {
				continue
			}
			for k, msg := range v(values, visible) {
				if msg != "" {
					out[k] = msg
				}
			}
		}
		return out
	}
}

// Open starts an in-process form session over a flow.
func (e *Engine) Open(ctx context.Context, flowID string, initial domain.Values) (*Form, error) {
	g, err := e.Flow(ctx, flowID)
	if err != nil {
		return nil, err
	}
	return runtime.NewForm(g, e.formOptions(runtime.WithInitialValues(initial))...)
}

// Restore reopens a persisted session. Defaults are not re-seeded.
func (e *Engine) Restore(ctx context.Context, state *domain.State) (*Form, error) {
	if state == nil {
		return nil, fmt.Errorf("restore requires a state")
	}
	g, err := e.Flow(ctx, state.FlowID)
	if err != nil {
		return nil, err
	}
	return runtime.NewForm(g, e.formOptions(runtime.WithState(state))...)
}

// Start implements ports.StatelessEngine.
func (e *Engine) Start(ctx context.Context, sessionID, flowID string, initial domain.Values) (*domain.State, error) {
	g, err := e.Flow(ctx, flowID)
	if err != nil {
		return nil, err
	}
	form, err := runtime.NewForm(g, e.formOptions(
		runtime.WithInitialValues(initial),
		runtime.WithSessionID(sessionID),
	)...)
	if err != nil {
		return nil, err
	}

	e.logger.Info("session started", "session_id", sessionID, "flow_id", flowID)
	return capture(domain.NewState(sessionID, flowID), form), nil
}

// Apply implements ports.StatelessEngine.
// A submitted session is closed: Apply returns domain.ErrFormSubmitted.
func (e *Engine) Apply(ctx context.Context, state *domain.State, patch domain.Values) (*domain.State, error) {
	if state.Status == domain.StatusSubmitted {
		return nil, domain.ErrFormSubmitted
	}
	form, err := e.Restore(ctx, state)
	if err != nil {
		return nil, err
	}
	form.SetFieldValues(patch)
	return capture(state, form), nil
}

// Submit implements ports.StatelessEngine.
func (e *Engine) Submit(ctx context.Context, state *domain.State) (*domain.State, domain.ValidationResult, error) {
	if state.Status == domain.StatusSubmitted {
		return nil, domain.ValidationResult{}, domain.ErrFormSubmitted
	}
	form, err := e.Restore(ctx, state)
	if err != nil {
		return nil, domain.ValidationResult{}, err
	}

	res := form.Submit()
	next := capture(state, form)
	if res.Valid {
		next.Status = domain.StatusSubmitted
		e.logger.Info("session submitted", "session_id", state.SessionID, "flow_id", state.FlowID)
	}
	return next, res, nil
}

// View implements ports.StatelessEngine.
func (e *Engine) View(ctx context.Context, state *domain.State) (*domain.View, error) {
	form, err := e.Restore(ctx, state)
	if err != nil {
		return nil, err
	}
	return &domain.View{
		State:       state.Snapshot(),
		Visible:     form.VisibleIDs(),
		ActiveEdges: form.ActiveEdges(),
	}, nil
}

// Inspect implements ports.StatelessEngine.
func (e *Engine) Inspect(ctx context.Context, flowID string) (*domain.Graph, error) {
	return e.Flow(ctx, flowID)
}

// capture copies the form's stores into a new state derived from prev.
func capture(prev *domain.State, form *Form) *domain.State {
	next := prev.Snapshot()
	next.Values = form.Values()
	next.Synced = form.Synced()
	next.Errors = form.Errors()
	next.UpdatedAt = time.Now()
	return next
}

var _ ports.StatelessEngine = (*Engine)(nil)
