package runtime

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/graph"
)

// Form is the state store of one form session.
// It owns the value bag and the error map; visibility is recomputed from them on
// every change. A Form is not safe for concurrent use.
type Form struct {
	graph   *domain.Graph
	idx     *graph.Index
	startID string

	values domain.Values
	synced domain.Values
	errors domain.Errors

	visible     graph.VisibleSet
	activeEdges []string

	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	mode      domain.ValidationMode
	validator Validator
	patterns  patternCache

	initial   domain.Values
	restored  bool
	sessionID string
}

// FormOption configures a Form.
type FormOption func(*Form)

// WithLogger sets the structured logger used for configuration warnings.
func WithLogger(logger *slog.Logger) FormOption {
	return func(f *Form) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithLifecycleHooks registers change/submit/validation/visibility callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) FormOption {
	return func(f *Form) {
		f.hooks = hooks
	}
}

// WithValidationMode selects when the custom validator runs (default: on submit).
func WithValidationMode(mode domain.ValidationMode) FormOption {
	return func(f *Form) {
		if mode != "" {
			f.mode = mode
		}
	}
}

// WithValidator sets the custom validator merged into every validation pass.
func WithValidator(v Validator) FormOption {
	return func(f *Form) {
		f.validator = v
	}
}

// WithInitialValues seeds caller-supplied values before defaults are applied.
func WithInitialValues(values domain.Values) FormOption {
	return func(f *Form) {
		f.initial = values
	}
}

// WithState restores a persisted session. Defaults are not re-seeded.
func WithState(state *domain.State) FormOption {
	return func(f *Form) {
		if state == nil {
			return
		}
		f.values = state.Values.Clone()
		f.synced = state.Synced.Clone()
		f.errors = state.Errors.Clone()
		f.sessionID = state.SessionID
		f.restored = true
	}
}

// WithSessionID tags emitted events with a session id.
func WithSessionID(id string) FormOption {
	return func(f *Form) {
		f.sessionID = id
	}
}

// NewForm indexes g and computes the initial visible set.
//
// Initialization order: caller initial values, then static defaults for fields that
// are still absent, then reference propagation (which fills reference-bound fields
// whose source already has a value).
func NewForm(g *domain.Graph, opts ...FormOption) (*Form, error) {
	f := &Form{
		logger:   logging.NewNop(),
		mode:     domain.ValidateOnSubmit,
		values:   make(domain.Values),
		synced:   make(domain.Values),
		errors:   make(domain.Errors),
		patterns: make(patternCache),
	}
	for _, opt := range opts {
		opt(f)
	}

	if err := f.index(g); err != nil {
		return nil, err
	}

	if !f.restored {
		for k, v := range f.initial {
			f.values[k] = domain.CopyValue(v)
		}
		for _, n := range f.idx.InputNodes() {
			in, _ := n.Input()
			if !in.DefaultValue.IsStatic() || in.DefaultValue.Value == nil {
				continue
			}
			if _, exists := f.values[n.ID]; exists {
				continue
			}
			f.values[n.ID] = domain.CopyValue(in.DefaultValue.Value)
		}
		f.settle()
	}

	f.recompute()
	return f, nil
}

func (f *Form) index(g *domain.Graph) error {
	if g == nil {
		return fmt.Errorf("form requires a graph")
	}
	idx := graph.FromGraph(g)
	start, ok := idx.StartNode()
	if !ok && len(g.Nodes) > 0 {
		return domain.ErrNoStartNode
	}
	f.graph = g
	f.idx = idx
	f.startID = start
	return nil
}

// SetFieldValue stores a value for a node, clears its error and recomputes.
func (f *Form) SetFieldValue(nodeID string, value any) {
	f.SetFieldValues(domain.Values{nodeID: value})
}

// SetFieldValues applies a batch of changes as one atomic update:
// one propagation settle, one visibility recompute and one change event.
func (f *Form) SetFieldValues(patch domain.Values) {
	if len(patch) == 0 {
		return
	}

	changed := make([]string, 0, len(patch))
	for k, v := range patch {
		f.values[k] = domain.CopyValue(v)
		delete(f.errors, k)
		changed = append(changed, k)
	}

	for _, k := range f.settle() {
		delete(f.errors, k)
		if !slices.Contains(changed, k) {
			changed = append(changed, k)
		}
	}
	slices.Sort(changed)

	f.recompute()

	if f.mode == domain.ValidateOnChange {
		f.Validate(nil)
	}

	if f.hooks.OnChange != nil {
		f.hooks.OnChange(&domain.ChangeEvent{
			EventBase: f.event(domain.EventChange),
			Changed:   changed,
			Values:    f.NamedValues(),
		})
	}
}

// settle runs reference propagation ticks until no field needs an update.
// Each tick is applied as one batch. It returns the keys it wrote.
func (f *Form) settle() []string {
	var written []string
	nodes := f.idx.Nodes()

	for tick := 0; tick <= len(nodes); tick++ {
		patch := ReferenceUpdates(nodes, f.values, f.synced)
		f.synced = f.values.Clone()
		if len(patch) == 0 {
			return written
		}
		for k, v := range patch {
			f.values[k] = v
			if !slices.Contains(written, k) {
				written = append(written, k)
			}
		}
	}

	f.logger.Warn("reference propagation did not settle", "ticks", len(nodes)+1)
	f.synced = f.values.Clone()
	return written
}

// recompute refreshes the visible set and fires the visibility hook on changes.
func (f *Form) recompute() {
	prev := f.visible
	t := Traverse(f.startID, f.idx, f.values)
	f.visible = t.Visible
	f.activeEdges = t.ActiveEdges

	if f.hooks.OnVisibility == nil || prev == nil || prev.Equal(f.visible) {
		return
	}
	nodes := f.idx.Nodes()
	ev := &domain.VisibilityEvent{EventBase: f.event(domain.EventVisibility)}
	for _, id := range f.visible.Ordered(nodes) {
		if !prev.Has(id) {
			ev.Shown = append(ev.Shown, id)
		}
	}
	for _, id := range prev.Ordered(nodes) {
		if !f.visible.Has(id) {
			ev.Hidden = append(ev.Hidden, id)
		}
	}
	f.hooks.OnVisibility(ev)
}

// FieldValue returns the stored value for a node.
func (f *Form) FieldValue(nodeID string) (any, bool) {
	v, ok := f.values[nodeID]
	return v, ok
}

// Values returns a copy of the value bag.
func (f *Form) Values() domain.Values {
	return f.values.Clone()
}

// Synced returns the values as of the last propagation tick.
func (f *Form) Synced() domain.Values {
	return f.synced.Clone()
}

// Errors returns a copy of the current error map.
func (f *Form) Errors() domain.Errors {
	return f.errors.Clone()
}

// Visible returns a copy of the visible set.
func (f *Form) Visible() graph.VisibleSet {
	out := make(graph.VisibleSet, len(f.visible))
	for id := range f.visible {
		out.Add(id)
	}
	return out
}

// IsVisible reports whether a node is currently visible.
func (f *Form) IsVisible(nodeID string) bool {
	return f.visible.Has(nodeID)
}

// VisibleIDs returns the visible ids in graph array order.
func (f *Form) VisibleIDs() []string {
	return f.visible.Ordered(f.idx.Nodes())
}

// VisibleNodes returns the visible nodes in graph array order.
func (f *Form) VisibleNodes() []domain.Node {
	var out []domain.Node
	for _, n := range f.idx.Nodes() {
		if f.visible.Has(n.ID) {
			out = append(out, n)
		}
	}
	return out
}

// ActiveEdges returns the edges followed by the last traversal.
func (f *Form) ActiveEdges() []string {
	return slices.Clone(f.activeEdges)
}

// Tree returns the visible nodes nested by parentId.
func (f *Form) Tree() []*graph.TreeNode {
	return graph.BuildTree(f.idx.Nodes(), f.visible)
}

// Graph returns the graph the form evaluates.
func (f *Form) Graph() *domain.Graph {
	return f.graph
}

// Index returns the lookup index of the current graph.
func (f *Form) Index() *graph.Index {
	return f.idx
}

// StartNode returns the traversal root.
func (f *Form) StartNode() string {
	return f.startID
}

// SetGraph swaps the graph (editor mutation) and recomputes visibility.
// Values are kept.
func (f *Form) SetGraph(g *domain.Graph) error {
	if err := f.index(g); err != nil {
		return err
	}
	f.recompute()
	return nil
}

// Validate checks the visible input nodes and atomically replaces the error map.
// custom overrides the configured validator for this pass when set.
// Hidden fields are never validated.
func (f *Form) Validate(custom Validator) domain.ValidationResult {
	var inputs []domain.Node
	for _, n := range f.VisibleNodes() {
		if n.Type == domain.NodeKindInput {
			inputs = append(inputs, n)
		}
	}

	errs := validateFields(inputs, f.values, f.patterns, f.logger)

	if custom == nil {
		custom = f.validator
	}
	if custom != nil {
		for k, msg := range custom(f.values.Clone(), inputs) {
			if msg != "" {
				errs[k] = msg
			}
		}
	}

	f.errors = errs
	res := domain.ValidationResult{Valid: len(errs) == 0, Errors: errs.Clone()}

	if f.hooks.OnValidate != nil {
		f.hooks.OnValidate(&domain.ValidationEvent{
			EventBase: f.event(domain.EventValidate),
			Valid:     res.Valid,
			Errors:    res.Errors,
		})
	}
	return res
}

// Submit validates the form and fires the submit hook only when it is valid.
func (f *Form) Submit() domain.ValidationResult {
	res := f.Validate(nil)
	if res.Valid && f.hooks.OnSubmit != nil {
		f.hooks.OnSubmit(&domain.SubmitEvent{
			EventBase: f.event(domain.EventSubmit),
			Values:    f.NamedValues(),
		})
	}
	return res
}

// NamedValues exports the value bag keyed by label/name instead of node id.
// Collisions resolve to the last input node in array order.
func (f *Form) NamedValues() map[string]any {
	out := make(map[string]any)
	for _, n := range f.idx.Nodes() {
		if n.Type != domain.NodeKindInput {
			continue
		}
		v, ok := f.values[n.ID]
		if !ok {
			continue
		}
		out[n.DisplayName()] = domain.CopyValue(v)
	}
	return out
}

func (f *Form) event(t domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: time.Now(),
		Type:      t,
		FlowID:    f.graph.ID,
		SessionID: f.sessionID,
	}
}
