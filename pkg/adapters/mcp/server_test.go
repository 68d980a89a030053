package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const signupFlow = `
id: signup
nodes:
  - id: email
    type: input
    data: {name: email, label: Email, required: true, pattern: "^[^@]+@[^@]+$", errorMessage: Not an email}
  - id: newsletter
    type: input
    data: {name: newsletter, inputType: checkbox}
  - id: topics
    type: input
    data: {name: topics, required: true}
edges:
  - {id: e1, source: email, target: newsletter}
  - id: e2
    source: newsletter
    target: topics
    data:
      conditions: [{field: newsletter, operator: "===", value: true}]
`

func newServer(t *testing.T) *Server {
	t.Helper()
	eng, err := arbor.New("", arbor.WithLoader(memory.NewLoader(map[string]string{"signup": signupFlow})))
	require.NoError(t, err)
	return NewServer(eng, session.NewManager(memory.NewStore()))
}

func TestServer_SessionTools(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	resp, err := s.handleStart(ctx, req, map[string]any{"flow_id": "signup", "session_id": "s1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"email"}, resp.View.Visible)

	_, err = s.handleStart(ctx, req, map[string]any{"flow_id": "signup", "session_id": "s1"})
	assert.ErrorContains(t, err, "already exists")

	resp, err = s.handleSetValues(ctx, req, map[string]any{
		"session_id": "s1",
		"values":     map[string]any{"email": "nope", "newsletter": true},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"newsletter", "topics"}, resp.Diff.Shown)

	resp, err = s.handleSubmit(ctx, req, map[string]any{"session_id": "s1"})
	require.NoError(t, err)
	require.NotNil(t, resp.Result)
	assert.False(t, resp.Result.Valid)
	assert.Equal(t, "Not an email", resp.Result.Errors["email"])
	assert.Contains(t, resp.Result.Errors, "topics")

	_, err = s.handleSetValues(ctx, req, map[string]any{
		"session_id": "s1",
		"values":     map[string]any{"email": "ada@example.com", "newsletter": false},
	})
	require.NoError(t, err)

	resp, err = s.handleSubmit(ctx, req, map[string]any{"session_id": "s1"})
	require.NoError(t, err)
	assert.True(t, resp.Result.Valid)
	assert.Equal(t, domain.StatusSubmitted, resp.State.Status)

	resp, err = s.handleView(ctx, req, map[string]any{"session_id": "s1"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", resp.State.Values["email"])
	assert.Equal(t, []string{"email", "newsletter"}, resp.View.Visible)

	_, err = s.handleSetValues(ctx, req, map[string]any{"session_id": "s1", "values": map[string]any{"email": "x"}})
	assert.ErrorIs(t, err, domain.ErrFormSubmitted)
}

func TestServer_ArgumentErrors(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	_, err := s.handleStart(ctx, req, map[string]any{})
	assert.ErrorContains(t, err, "flow_id is required")

	_, err = s.handleStart(ctx, req, map[string]any{"flow_id": "signup", "bogus": 1})
	assert.ErrorContains(t, err, "invalid arguments")

	_, err = s.handleStart(ctx, req, map[string]any{"flow_id": "missing"})
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)

	_, err = s.handleSetValues(ctx, req, map[string]any{"session_id": "s1"})
	assert.ErrorContains(t, err, "values must not be empty")

	_, err = s.handleView(ctx, req, map[string]any{"session_id": "ghost"})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestServer_GeneratedSessionID(t *testing.T) {
	s := newServer(t)

	resp, err := s.handleStart(context.Background(), mcp.CallToolRequest{}, map[string]any{
		"flow_id": "signup",
		"values":  map[string]any{"email": "a@b"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.State.SessionID)
	assert.Equal(t, []string{"email", "newsletter"}, resp.View.Visible)
}

func TestServer_FlowChartResource(t *testing.T) {
	s := newServer(t)

	var req mcp.ReadResourceRequest
	req.Params.URI = "arbor://flows/signup"
	contents, err := s.readFlowChart(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Contains(t, text.Text, `email(("Email *"))`)
	assert.Contains(t, text.Text, "newsletter -- \"newsletter === true\" --> topics")

	req.Params.URI = "arbor://flows/unknown"
	_, err = s.readFlowChart(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)
}

func TestServer_ListsTools(t *testing.T) {
	s := newServer(t)

	msg := s.MCPServer().HandleMessage(context.Background(), json.RawMessage(
		`{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`))
	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	var out struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))

	var names []string
	for _, tool := range out.Result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"list_flows", "get_flow", "start_session", "set_values", "submit", "view_session"}, names)
}
