package runtime_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioGraph() *domain.Graph {
	return &domain.Graph{
		ID: "scenario",
		Nodes: []domain.Node{
			inputNode("A", "a", true),
			inputNode("B", "b", false),
			uiNode("C"),
		},
		Edges: []domain.Edge{
			plainEdge("e1", "A", "B"),
			condEdge("e2", "B", "C", cond("b", domain.OpEqual, "yes")),
		},
	}
}

func TestForm_ProgressiveReveal(t *testing.T) {
	f, err := runtime.NewForm(scenarioGraph())
	require.NoError(t, err)
	assert.Equal(t, "A", f.StartNode())
	assert.Equal(t, []string{"A"}, f.VisibleIDs())

	f.SetFieldValue("A", "x")
	assert.Equal(t, []string{"A", "B"}, f.VisibleIDs())

	f.SetFieldValue("B", "yes")
	assert.Equal(t, []string{"A", "B", "C"}, f.VisibleIDs())
	assert.Equal(t, []string{"e1", "e2"}, f.ActiveEdges())

	f.SetFieldValue("B", "no")
	assert.Equal(t, []string{"A", "B"}, f.VisibleIDs())
	assert.False(t, f.IsVisible("C"))

	// Clearing the gate hides everything downstream again.
	f.SetFieldValue("A", "")
	assert.Equal(t, []string{"A"}, f.VisibleIDs())

	v, ok := f.FieldValue("B")
	assert.True(t, ok)
	assert.Equal(t, "no", v, "hidden fields keep their values")
}

func TestForm_Defaults(t *testing.T) {
	g := &domain.Graph{
		Nodes: []domain.Node{
			{ID: "country", Type: domain.NodeKindInput, Data: &domain.InputData{
				Name:         "country",
				DefaultValue: &domain.DefaultValue{Type: domain.DefaultStatic, Value: "BR"},
			}},
			{ID: "lang", Type: domain.NodeKindInput, Data: &domain.InputData{
				Name:         "lang",
				DefaultValue: &domain.DefaultValue{Type: domain.DefaultStatic, Value: "pt"},
			}},
			{ID: "billing", Type: domain.NodeKindInput, Data: &domain.InputData{
				Name:         "billing",
				DefaultValue: &domain.DefaultValue{Type: domain.DefaultReference, Reference: "country"},
			}},
			{ID: "shipping", Type: domain.NodeKindInput, Data: &domain.InputData{
				Name:         "shipping",
				DefaultValue: &domain.DefaultValue{Type: domain.DefaultReference, Reference: "missing"},
			}},
		},
		Edges: []domain.Edge{
			plainEdge("e1", "country", "lang"),
			plainEdge("e2", "lang", "billing"),
			plainEdge("e3", "billing", "shipping"),
		},
	}

	f, err := runtime.NewForm(g, runtime.WithInitialValues(domain.Values{"lang": "en"}))
	require.NoError(t, err)

	values := f.Values()
	assert.Equal(t, "BR", values["country"], "static default seeds absent fields")
	assert.Equal(t, "en", values["lang"], "caller values win over static defaults")
	assert.Equal(t, "BR", values["billing"], "reference applies when its source is present")
	_, has := values["shipping"]
	assert.False(t, has, "reference to an absent source is not applied")
	assert.Equal(t, []string{"country", "lang", "billing", "shipping"}, f.VisibleIDs())
}

func referenceGraph(transform domain.TransformFunction) *domain.Graph {
	return &domain.Graph{
		Nodes: []domain.Node{
			inputNode("X", "x", false),
			{ID: "Y", Type: domain.NodeKindInput, Data: &domain.InputData{
				Name: "y",
				DefaultValue: &domain.DefaultValue{
					Type:              domain.DefaultReference,
					Reference:         "x",
					TransformFunction: transform,
				},
			}},
		},
		Edges: []domain.Edge{plainEdge("e1", "X", "Y")},
	}
}

func TestForm_ReferencePropagation(t *testing.T) {
	f, err := runtime.NewForm(referenceGraph(domain.TransformToString))
	require.NoError(t, err)

	f.SetFieldValue("X", 1)
	y, _ := f.FieldValue("Y")
	assert.Equal(t, "1", y)

	f.SetFieldValue("X", 5)
	y, _ = f.FieldValue("Y")
	assert.Equal(t, "5", y, "derived field follows while in sync")

	f.SetFieldValue("Y", 99)
	f.SetFieldValue("X", 2)
	y, _ = f.FieldValue("Y")
	assert.Equal(t, 99, y, "manual edit breaks the sync")

	f.SetFieldValue("X", nil)
	y, _ = f.FieldValue("Y")
	assert.Equal(t, 99, y)
}

func TestForm_ReferenceChainSettles(t *testing.T) {
	g := referenceGraph("")
	g.Nodes = append(g.Nodes, domain.Node{ID: "Z", Type: domain.NodeKindInput, Data: &domain.InputData{
		Name:         "z",
		DefaultValue: &domain.DefaultValue{Type: domain.DefaultReference, Reference: "Y", TransformFunction: domain.TransformToNumber},
	}})
	g.Edges = append(g.Edges, plainEdge("e2", "Y", "Z"))

	var changes [][]string
	f, err := runtime.NewForm(g, runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnChange: func(e *domain.ChangeEvent) { changes = append(changes, e.Changed) },
	}))
	require.NoError(t, err)

	f.SetFieldValue("X", "42")
	z, _ := f.FieldValue("Z")
	assert.Equal(t, 42.0, z)
	assert.Equal(t, [][]string{{"X", "Y", "Z"}}, changes, "one change event for the whole settle")
	assert.Equal(t, []string{"X", "Y", "Z"}, f.VisibleIDs())
}

func TestForm_ReferenceToObject(t *testing.T) {
	g := &domain.Graph{
		Nodes: []domain.Node{
			inputNode("lookup", "lookup", false),
			{ID: "postal", Type: domain.NodeKindInput, Data: &domain.InputData{
				Name: "postal",
				DefaultValue: &domain.DefaultValue{
					Type:              domain.DefaultReference,
					Reference:         "lookup",
					TransformFunction: domain.TransformToObject,
					ObjectMapping:     []domain.FieldMapping{{SourceKey: "zip", TargetKey: "code"}},
				},
			}},
		},
	}
	f, err := runtime.NewForm(g)
	require.NoError(t, err)

	f.SetFieldValue("lookup", map[string]any{"zip": "50000", "street": "Rua A"})
	v, _ := f.FieldValue("postal")
	assert.Equal(t, map[string]any{"code": "50000"}, v)
}

func TestForm_Validate(t *testing.T) {
	g := &domain.Graph{
		Nodes: []domain.Node{
			{ID: "email", Type: domain.NodeKindInput, Data: &domain.InputData{
				Name: "email", Required: true, Pattern: `^[^@]+@[^@]+$`, ErrorMessage: "Invalid e-mail",
			}},
			{ID: "code", Type: domain.NodeKindInput, Data: &domain.InputData{
				Name: "code", Pattern: `(unclosed`,
			}},
			{ID: "zip", Type: domain.NodeKindInput, Data: &domain.InputData{Name: "zip", Pattern: `^\d{5}$`}},
			{ID: "hidden", Type: domain.NodeKindInput, Data: &domain.InputData{Name: "hidden", Required: true}},
		},
		Edges: []domain.Edge{
			plainEdge("e1", "email", "code"),
			plainEdge("e2", "code", "zip"),
			plainEdge("e3", "zip", "hidden"),
		},
	}

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	f, err := runtime.NewForm(g, runtime.WithLogger(logger))
	require.NoError(t, err)

	res := f.Validate(nil)
	assert.False(t, res.Valid)
	assert.Equal(t, domain.Errors{"email": runtime.DefaultRequiredMessage}, res.Errors, "hidden fields are never required")

	f.SetFieldValue("email", "not-an-email")
	assert.Empty(t, f.Errors(), "setting a value clears its error")

	res = f.Validate(nil)
	assert.Equal(t, "Invalid e-mail", res.Errors["email"])

	f.SetFieldValues(domain.Values{"email": "me@example.com", "code": "abc", "zip": "123"})
	res = f.Validate(nil)
	assert.Equal(t, domain.Errors{
		"zip":    runtime.DefaultPatternMessage,
		"hidden": runtime.DefaultRequiredMessage,
	}, res.Errors, "zip is filled so the next field is reachable")
	assert.Contains(t, logs.String(), "invalid field pattern", "malformed pattern is logged, not fatal")

	f.SetFieldValue("zip", "12345")
	res = f.Validate(nil)
	assert.Equal(t, domain.Errors{"hidden": runtime.DefaultRequiredMessage}, res.Errors)
	assert.Equal(t, res.Errors, f.Errors())
}

func TestForm_CustomValidator(t *testing.T) {
	custom := func(values domain.Values, visible []domain.Node) map[string]string {
		if values["A"] == "forbidden" {
			return map[string]string{"A": "Not allowed"}
		}
		return nil
	}

	t.Run("On submit", func(t *testing.T) {
		var submitted []map[string]any
		f, err := runtime.NewForm(scenarioGraph(),
			runtime.WithValidator(custom),
			runtime.WithLifecycleHooks(domain.LifecycleHooks{
				OnSubmit: func(e *domain.SubmitEvent) { submitted = append(submitted, e.Values) },
			}),
		)
		require.NoError(t, err)

		f.SetFieldValue("A", "forbidden")
		assert.Empty(t, f.Errors(), "custom validator waits for submit")

		res := f.Submit()
		assert.False(t, res.Valid)
		assert.Equal(t, "Not allowed", res.Errors["A"])
		assert.Empty(t, submitted)

		f.SetFieldValue("A", "fine")
		res = f.Submit()
		assert.True(t, res.Valid)
		require.Len(t, submitted, 1)
		assert.Equal(t, map[string]any{"a": "fine"}, submitted[0])
	})

	t.Run("On change", func(t *testing.T) {
		var validations int
		f, err := runtime.NewForm(scenarioGraph(),
			runtime.WithValidator(custom),
			runtime.WithValidationMode(domain.ValidateOnChange),
			runtime.WithLifecycleHooks(domain.LifecycleHooks{
				OnValidate: func(*domain.ValidationEvent) { validations++ },
			}),
		)
		require.NoError(t, err)

		f.SetFieldValue("A", "forbidden")
		assert.Equal(t, domain.Errors{"A": "Not allowed"}, f.Errors())
		assert.Equal(t, 1, validations)
	})

	t.Run("Per call override", func(t *testing.T) {
		f, err := runtime.NewForm(scenarioGraph(), runtime.WithInitialValues(domain.Values{"A": "x"}))
		require.NoError(t, err)

		res := f.Validate(func(domain.Values, []domain.Node) map[string]string {
			return map[string]string{"B": "Pick one"}
		})
		assert.Equal(t, domain.Errors{"B": "Pick one"}, res.Errors)
	})
}

func TestForm_NamedValues(t *testing.T) {
	g := &domain.Graph{
		Nodes: []domain.Node{
			{ID: "n1", Type: domain.NodeKindInput, Data: &domain.InputData{Name: "first", Label: "Name"}},
			{ID: "n2", Type: domain.NodeKindInput, Data: &domain.InputData{Name: "age"}},
			{ID: "n3", Type: domain.NodeKindInput, Data: &domain.InputData{Label: "Name"}},
			uiNode("t"),
		},
	}
	f, err := runtime.NewForm(g, runtime.WithInitialValues(domain.Values{"n1": "Ana", "n2": 30, "n3": "Bia", "t": "x"}))
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"Name": "Bia", "age": 30}, f.NamedValues(), "last write wins on label collisions")
}

func TestForm_VisibilityHook(t *testing.T) {
	var events []*domain.VisibilityEvent
	f, err := runtime.NewForm(scenarioGraph(), runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnVisibility: func(e *domain.VisibilityEvent) { events = append(events, e) },
	}))
	require.NoError(t, err)
	assert.Empty(t, events, "initial computation is not a change")

	f.SetFieldValues(domain.Values{"A": "x", "B": "yes"})
	require.Len(t, events, 1)
	assert.Equal(t, []string{"B", "C"}, events[0].Shown)
	assert.Equal(t, "scenario", events[0].FlowID)

	f.SetFieldValue("B", "no")
	require.Len(t, events, 2)
	assert.Equal(t, []string{"C"}, events[1].Hidden)

	f.SetFieldValue("B", "still no")
	assert.Len(t, events, 2, "no event when the visible set is unchanged")
}

func TestForm_RestoreAndSetGraph(t *testing.T) {
	state := domain.NewState("s1", "scenario")
	state.Values["A"] = "x"
	state.Errors["B"] = "stale"

	f, err := runtime.NewForm(scenarioGraph(), runtime.WithState(state))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, f.VisibleIDs())
	assert.Equal(t, domain.Errors{"B": "stale"}, f.Errors())

	// Editor removes the condition on B -> C.
	g := scenarioGraph()
	g.Edges[1].Data = nil
	f.SetFieldValue("B", "anything")
	require.NoError(t, f.SetGraph(g))
	assert.Equal(t, []string{"A", "B", "C"}, f.VisibleIDs())
}

func TestForm_NoStartNode(t *testing.T) {
	g := &domain.Graph{
		Nodes: []domain.Node{inputNode("A", "", false), inputNode("B", "", false)},
		Edges: []domain.Edge{plainEdge("e1", "A", "B"), plainEdge("e2", "B", "A")},
	}
	_, err := runtime.NewForm(g)
	assert.ErrorIs(t, err, domain.ErrNoStartNode)

	empty, err := runtime.NewForm(&domain.Graph{})
	require.NoError(t, err)
	assert.Empty(t, empty.VisibleIDs())
}
