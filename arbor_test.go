package arbor_test

import (
	"context"
	"testing"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/testutils"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const signupFlow = `{
  "id": "signup",
  "nodes": [
    {"id": "email", "type": "input", "data": {"name": "email", "label": "E-mail", "required": true, "pattern": "@"}},
    {"id": "age", "type": "input", "data": {"name": "age", "inputType": "number", "required": true}},
    {"id": "addr", "type": "flow", "data": {"targetId": "address"}},
    {"id": "minor", "type": "ui", "data": {"uiType": "text", "content": "Ask a guardian"}}
  ],
  "edges": [
    {"id": "e1", "source": "email", "target": "age"},
    {"id": "e2", "source": "age", "target": "addr",
     "data": {"conditions": [{"field": "age", "operator": ">=", "value": 18}]}},
    {"id": "e3", "source": "age", "target": "minor", "data": {"isFallback": true}}
  ]
}`

const addressFlow = `
id: address
nodes:
  - id: zip
    type: input
    data: {name: zip, required: true}
  - id: city
    type: input
    data:
      name: city
      defaultValue: {type: reference, reference: zip, transformFunction: toString}
edges:
  - {id: a1, source: zip, target: city}
`

func newEngine(t *testing.T, opts ...arbor.Option) (*arbor.Engine, *memory.Loader) {
	t.Helper()
	loader := memory.NewLoader(map[string]string{"signup": signupFlow, "address": addressFlow})
	eng, err := arbor.New("", append([]arbor.Option{arbor.WithLoader(loader)}, opts...)...)
	require.NoError(t, err)
	return eng, loader
}

func TestEngine_FlowMergesSubflows(t *testing.T) {
	eng, _ := newEngine(t)

	g, err := eng.Flow(context.Background(), "signup")
	require.NoError(t, err)

	var ids []string
	for _, n := range g.Nodes {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"email", "age", "addr/zip", "addr/city", "minor"}, ids)

	again, err := eng.Flow(context.Background(), "signup")
	require.NoError(t, err)
	assert.Same(t, g, again, "merged flows are cached")

	eng.Invalidate("signup")
	fresh, err := eng.Flow(context.Background(), "signup")
	require.NoError(t, err)
	assert.NotSame(t, g, fresh)
}

func TestEngine_OpenProgressiveForm(t *testing.T) {
	eng, _ := newEngine(t)

	form, err := eng.Open(context.Background(), "signup", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"email"}, form.VisibleIDs())

	form.SetFieldValue("email", "ana@example.com")
	assert.Equal(t, []string{"email", "age"}, form.VisibleIDs())

	form.SetFieldValue("age", 16)
	assert.Equal(t, []string{"email", "age", "minor"}, form.VisibleIDs())

	form.SetFieldValue("age", 30)
	assert.Equal(t, []string{"email", "age", "addr/zip"}, form.VisibleIDs())

	form.SetFieldValue("addr/zip", 50000)
	v, _ := form.FieldValue("addr/city")
	assert.Equal(t, "50000", v, "reference inside the sub-flow follows its own source")
}

func TestEngine_StatelessSession(t *testing.T) {
	eng, _ := newEngine(t)
	ctx := context.Background()

	state, err := eng.Start(ctx, "s1", "signup", domain.Values{"email": "ana@example.com"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, state.Status)

	view, err := eng.View(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, []string{"email", "age"}, view.Visible)

	state, res, err := eng.Submit(ctx, state)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "This field is required", res.Errors["age"])
	assert.Equal(t, domain.StatusActive, state.Status)

	state, err = eng.Apply(ctx, state, domain.Values{"age": 17})
	require.NoError(t, err)
	assert.Empty(t, state.Errors, "editing clears the field error")

	state, res, err = eng.Submit(ctx, state)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, domain.StatusSubmitted, state.Status)

	_, err = eng.Apply(ctx, state, domain.Values{"age": 40})
	assert.ErrorIs(t, err, domain.ErrFormSubmitted)
}

func TestEngine_ApplyDoesNotMutateInput(t *testing.T) {
	eng, _ := newEngine(t)
	ctx := context.Background()

	state, err := eng.Start(ctx, "s1", "signup", nil)
	require.NoError(t, err)

	next, err := eng.Apply(ctx, state, domain.Values{"email": "x@y"})
	require.NoError(t, err)
	assert.NotContains(t, state.Values, "email")
	assert.Equal(t, "x@y", next.Values["email"])
}

func TestEngine_Hooks(t *testing.T) {
	var submitted map[string]any
	var sessions []string
	eng, _ := newEngine(t, arbor.WithLifecycleHooks(domain.LifecycleHooks{
		OnSubmit: func(ev *domain.SubmitEvent) {
			submitted = ev.Values
			sessions = append(sessions, ev.SessionID)
		},
	}))
	ctx := context.Background()

	state, err := eng.Start(ctx, "s9", "signup", domain.Values{"email": "a@b", "age": 10})
	require.NoError(t, err)
	_, res, err := eng.Submit(ctx, state)
	require.NoError(t, err)
	require.True(t, res.Valid)

	assert.Equal(t, map[string]any{"E-mail": "a@b", "age": 10.0}, normalizeNumbers(submitted))
	assert.Equal(t, []string{"s9"}, sessions)
}

func normalizeNumbers(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if i, ok := v.(int); ok {
			v = float64(i)
		}
		out[k] = v
	}
	return out
}

func TestEngine_TypeChecks(t *testing.T) {
	eng, _ := newEngine(t, arbor.WithTypeChecks(), arbor.WithValidator(func(values domain.Values, _ []domain.Node) map[string]string {
		if values["email"] == "taken@example.com" {
			return map[string]string{"email": "Already registered"}
		}
		return nil
	}))
	ctx := context.Background()

	state, err := eng.Start(ctx, "s1", "signup", domain.Values{"email": "taken@example.com", "age": "old"})
	require.NoError(t, err)

	_, res, err := eng.Submit(ctx, state)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "Already registered", res.Errors["email"])
	assert.Contains(t, res.Errors["age"], "expected number")
}

func TestEngine_Errors(t *testing.T) {
	eng, loader := newEngine(t)
	ctx := context.Background()

	_, err := eng.Flow(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)

	loader.Put("loop", []byte(`{"id": "loop", "nodes": [{"id": "self", "type": "flow", "data": {"targetId": "loop"}}], "edges": []}`))
	_, err = eng.Flow(ctx, "loop")
	assert.ErrorIs(t, err, domain.ErrSubflowCycle)

	_, err = arbor.New("")
	assert.Error(t, err, "a repo path is required without a loader")
}

func TestEngine_WatchInvalidates(t *testing.T) {
	eng, loader := newEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, err := eng.Flow(ctx, "address")
	require.NoError(t, err)
	require.Len(t, g.Nodes, 2)

	ch, err := eng.Watch(ctx)
	require.NoError(t, err)

	loader.Put("address", []byte(`{"id": "address", "nodes": [{"id": "zip", "type": "input"}], "edges": []}`))
	assert.Equal(t, "address", <-ch)

	g, err = eng.Flow(ctx, "address")
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 1)
}

func TestEngine_LoamRepository(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFlows(t, dir, map[string]string{
		"hello.md": "---\nid: hello\nnodes:\n  - id: name\n    type: input\n    data: {name: name, required: true}\nedges: []\n---\n# Hello\n",
	})

	eng, err := arbor.New(dir)
	require.NoError(t, err)

	ids, err := eng.Flows()
	require.NoError(t, err)
	assert.Contains(t, ids, "hello")

	form, err := eng.Open(context.Background(), "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, form.VisibleIDs())
	assert.Equal(t, "# Hello", form.Graph().Description)
}
