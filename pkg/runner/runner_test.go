package runner_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/aretw0/arbor/pkg/runner"
	"github.com/aretw0/arbor/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const partyFlow = `
id: party
name: Party RSVP
nodes:
  - id: intro
    type: ui
    data: {uiType: title, content: Welcome}
  - id: name
    type: input
    data: {name: name, label: Name, required: true}
  - id: age
    type: input
    data: {name: age, label: Age, inputType: number}
  - id: drink
    type: input
    data:
      name: drink
      label: Drink
      inputType: select
      options:
        - {label: Beer, value: beer}
        - {label: Wine, value: wine}
  - id: juice
    type: ui
    data: {uiType: text, content: Juice for you}
edges:
  - {id: e0, source: intro, target: name}
  - {id: e1, source: name, target: age}
  - id: e2
    source: age
    target: drink
    data:
      conditions: [{field: age, operator: ">=", value: 18}]
  - {id: e3, source: age, target: juice, data: {isFallback: true}}
`

const cityFlow = `
id: city
nodes:
  - id: city
    type: input
    data: {name: city, inputType: select, source: cities, required: true}
edges: []
`

func newEngine(t *testing.T, opts ...arbor.Option) *arbor.Engine {
	t.Helper()
	loader := memory.NewLoader(map[string]string{"party": partyFlow, "city": cityFlow})
	eng, err := arbor.New("", append([]arbor.Option{arbor.WithLoader(loader)}, opts...)...)
	require.NoError(t, err)
	return eng
}

func textRunner(input string, out *bytes.Buffer, opts ...runner.Option) *runner.Runner {
	handler := runner.NewTextHandler(strings.NewReader(input), out)
	return runner.NewRunner(append([]runner.Option{runner.WithInputHandler(handler)}, opts...)...)
}

func TestRunner_HappyPath(t *testing.T) {
	eng := newEngine(t)
	out := &bytes.Buffer{}

	state, err := textRunner("Ada\n20\n2\n", out).Run(context.Background(), eng, "party", nil)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusSubmitted, state.Status)
	assert.Equal(t, "Ada", state.Values["name"])
	assert.Equal(t, 20.0, state.Values["age"])
	assert.Equal(t, "wine", state.Values["drink"])

	text := out.String()
	assert.Contains(t, text, "Party RSVP")
	assert.Contains(t, text, "Welcome")
	assert.Contains(t, text, "2) Wine")
	assert.Contains(t, text, "Form submitted.")
	assert.NotContains(t, text, "Juice for you")
	assert.Equal(t, 1, strings.Count(text, "Welcome"), "UI nodes are printed once")
}

func TestRunner_RepromptsRequiredFields(t *testing.T) {
	eng := newEngine(t)
	out := &bytes.Buffer{}

	state, err := textRunner("\nAda\n15\n", out).Run(context.Background(), eng, "party", nil)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusSubmitted, state.Status)
	text := out.String()
	assert.Contains(t, text, "Please fix 1 field(s).")
	assert.Contains(t, text, "! This field is required")
	assert.Contains(t, text, "Juice for you")
}

func TestRunner_RejectsInvalidAnswers(t *testing.T) {
	eng := newEngine(t)
	out := &bytes.Buffer{}

	state, err := textRunner("Ada\nold\n40\nwhisky\nbeer\n", out).Run(context.Background(), eng, "party", nil)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusSubmitted, state.Status)
	assert.Equal(t, 40.0, state.Values["age"])
	assert.Equal(t, "beer", state.Values["drink"])
	assert.Contains(t, out.String(), `"old" is not a number`)
	assert.Contains(t, out.String(), `"whisky" is not one of the options`)
}

func TestRunner_EOFKeepsProgress(t *testing.T) {
	eng := newEngine(t)
	out := &bytes.Buffer{}

	state, err := textRunner("Ada\n", out).Run(context.Background(), eng, "party", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, state.Status)
	assert.Equal(t, "Ada", state.Values["name"])
}

func TestRunner_ResumesPersistedSession(t *testing.T) {
	eng := newEngine(t)
	sessions := session.NewManager(memory.NewStore())
	ctx := context.Background()

	out := &bytes.Buffer{}
	_, err := textRunner("Ada\n", out, runner.WithSessions(sessions), runner.WithSessionID("s1")).
		Run(ctx, eng, "party", nil)
	require.NoError(t, err)

	saved, err := sessions.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", saved.Values["name"])

	// Enter keeps the stored name.
	out.Reset()
	state, err := textRunner("\n30\n1\n", out, runner.WithSessions(sessions), runner.WithSessionID("s1")).
		Run(ctx, eng, "party", nil)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Name * [Ada]")
	assert.Equal(t, domain.StatusSubmitted, state.Status)
	assert.Equal(t, "beer", state.Values["drink"])

	saved, err = sessions.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, saved.Status)

	// A submitted session is not reopened.
	out.Reset()
	state, err = textRunner("", out, runner.WithSessions(sessions), runner.WithSessionID("s1")).
		Run(ctx, eng, "party", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, state.Status)
	assert.Contains(t, out.String(), "already submitted")
}

func TestRunner_SessionFlowMismatch(t *testing.T) {
	eng := newEngine(t)
	sessions := session.NewManager(memory.NewStore())
	ctx := context.Background()

	_, err := textRunner("Ada\n", &bytes.Buffer{}, runner.WithSessions(sessions), runner.WithSessionID("s1")).
		Run(ctx, eng, "party", nil)
	require.NoError(t, err)

	_, err = textRunner("", &bytes.Buffer{}, runner.WithSessions(sessions), runner.WithSessionID("s1")).
		Run(ctx, eng, "city", nil)
	assert.ErrorContains(t, err, `belongs to flow "party"`)
}

func TestRunner_UnresolvableErrors(t *testing.T) {
	eng := newEngine(t, arbor.WithValidator(func(domain.Values, []domain.Node) map[string]string {
		return map[string]string{"ghost": "never visible"}
	}))

	_, err := textRunner("Ada\n15\n", &bytes.Buffer{}).Run(context.Background(), eng, "party", nil)
	assert.ErrorIs(t, err, runner.ErrUnresolvable)
}

func TestRunner_OptionSourcesWithJSONHandler(t *testing.T) {
	eng := newEngine(t)
	reg := registry.NewRegistry()
	reg.Register("cities", registry.Static(
		domain.Option{Label: "Recife", Value: "REC"},
		domain.Option{Label: "Lisbon", Value: "LIS"},
	))

	out := &bytes.Buffer{}
	handler := runner.NewJSONHandler(strings.NewReader("\"Lisbon\"\n"), out)
	r := runner.NewRunner(runner.WithInputHandler(handler), runner.WithRegistry(reg), runner.WithHeadless(true))

	state, err := r.Run(context.Background(), eng, "city", nil)
	require.NoError(t, err)
	assert.Equal(t, "LIS", state.Values["city"])

	var first runner.JSONEvent
	line := strings.SplitN(out.String(), "\n", 2)[0]
	require.NoError(t, json.Unmarshal([]byte(line), &first))
	assert.Equal(t, "input", first.Kind)
	assert.Equal(t, "city", first.ID)
	assert.Len(t, first.Options, 2)
}

func TestRunner_MissingOptionSource(t *testing.T) {
	eng := newEngine(t)
	r := runner.NewRunner(
		runner.WithInputHandler(runner.NewJSONHandler(strings.NewReader(""), &bytes.Buffer{})),
		runner.WithRegistry(registry.NewRegistry()),
	)
	_, err := r.Run(context.Background(), eng, "city", nil)
	assert.ErrorIs(t, err, registry.ErrSourceNotFound)
}
