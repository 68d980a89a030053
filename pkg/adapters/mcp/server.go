package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/runner"
	"github.com/aretw0/arbor/pkg/session"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
)

const flowURIPrefix = "arbor://flows/"

// Engine defines the interface required by the MCP server to interact with arbor.
type Engine interface {
	ports.StatelessEngine
	Flows() ([]string, error)
}

// Server wraps the arbor Engine and exposes form sessions as MCP tools.
type Server struct {
	engine    Engine
	sessions  *session.Manager
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger. Stdio transports must not log to stdout.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		engine:   engine,
		sessions: sessions,
		logger:   logging.NewNop(),
		mcpServer: server.NewMCPServer("arbor-mcp", strings.TrimSpace(arbor.Version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://localhost" + addr
	if !strings.HasPrefix(addr, ":") {
		baseURL = "http://" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("mcp server listening (sse)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// startArgs are the arguments of start_session.
type startArgs struct {
	FlowID    string         `mapstructure:"flow_id"`
	SessionID string         `mapstructure:"session_id"`
	Values    map[string]any `mapstructure:"values"`
}

// sessionArgs are the arguments of the per-session tools.
type sessionArgs struct {
	SessionID string         `mapstructure:"session_id"`
	Values    map[string]any `mapstructure:"values"`
}

func decodeArgs(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(args); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_flows",
		mcp.WithDescription("List the form flows that can be started."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := s.engine.Flows()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(ids)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("get_flow",
		mcp.WithDescription("Get the merged graph of a flow for introspection."),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description("Flow ID")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		flowID, _ := request.GetArguments()["flow_id"].(string)
		g, err := s.engine.Inspect(ctx, flowID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("inspect failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(g)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Start a form session. Returns the state, the visible nodes and the diff."),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description("Flow to fill in")),
		mcp.WithString("session_id", mcp.Description("Session ID (generated when omitted)")),
		mcp.WithObject("values", mcp.Description("Initial values keyed by node ID")),
		mcp.WithOutputSchema[runner.RichResponse](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("set_values",
		mcp.WithDescription("Set field values of a session. Answers can reveal or hide other fields."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithObject("values", mcp.Required(), mcp.Description("Values keyed by node ID")),
		mcp.WithOutputSchema[runner.RichResponse](),
	), mcp.NewStructuredToolHandler(s.handleSetValues))

	s.mcpServer.AddTool(mcp.NewTool("submit",
		mcp.WithDescription("Validate the visible fields and submit the session when they are valid."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[runner.RichResponse](),
	), mcp.NewStructuredToolHandler(s.handleSubmit))

	s.mcpServer.AddTool(mcp.NewTool("view_session",
		mcp.WithDescription("Get the current state and visible nodes of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[runner.RichResponse](),
	), mcp.NewStructuredToolHandler(s.handleView))
}

// Handler methods for structured tools

func (s *Server) handleStart(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (runner.RichResponse, error) {
	var in startArgs
	if err := decodeArgs(args, &in); err != nil {
		return runner.RichResponse{}, err
	}
	if in.FlowID == "" {
		return runner.RichResponse{}, errors.New("flow_id is required")
	}
	values, err := sanitizeValues(in.Values)
	if err != nil {
		return runner.RichResponse{}, err
	}
	id := in.SessionID
	if id == "" {
		id = uuid.NewString()
	}

	var resp *runner.RichResponse
	_, err = s.sessions.LoadOrStart(ctx, id, func(ctx context.Context) (*domain.State, error) {
		rr, err := runner.StartAndView(ctx, s.engine, id, in.FlowID, values)
		if err != nil {
			return nil, err
		}
		resp = rr
		return rr.State, nil
	})
	if err != nil {
		return runner.RichResponse{}, fmt.Errorf("start failed: %w", err)
	}
	if resp == nil {
		return runner.RichResponse{}, fmt.Errorf("session %q already exists", id)
	}
	return *resp, nil
}

func (s *Server) handleSetValues(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (runner.RichResponse, error) {
	var in sessionArgs
	if err := decodeArgs(args, &in); err != nil {
		return runner.RichResponse{}, err
	}
	if len(in.Values) == 0 {
		return runner.RichResponse{}, errors.New("values must not be empty")
	}
	patch, err := sanitizeValues(in.Values)
	if err != nil {
		return runner.RichResponse{}, err
	}

	var resp *runner.RichResponse
	_, _, err = s.sessions.Update(ctx, in.SessionID, func(ctx context.Context, state *domain.State) (*domain.State, error) {
		rr, err := runner.ApplyAndView(ctx, s.engine, state, patch)
		if err != nil {
			return nil, err
		}
		resp = rr
		return rr.State, nil
	})
	if err != nil {
		s.logger.Warn("mcp set_values failed", "session_id", in.SessionID, "err", err)
		return runner.RichResponse{}, fmt.Errorf("set_values failed: %w", err)
	}
	return *resp, nil
}

func (s *Server) handleSubmit(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (runner.RichResponse, error) {
	var in sessionArgs
	if err := decodeArgs(args, &in); err != nil {
		return runner.RichResponse{}, err
	}

	var resp *runner.RichResponse
	_, _, err := s.sessions.Update(ctx, in.SessionID, func(ctx context.Context, state *domain.State) (*domain.State, error) {
		rr, err := runner.SubmitAndView(ctx, s.engine, state)
		if err != nil {
			return nil, err
		}
		resp = rr
		return rr.State, nil
	})
	if err != nil {
		return runner.RichResponse{}, fmt.Errorf("submit failed: %w", err)
	}
	return *resp, nil
}

func (s *Server) handleView(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (runner.RichResponse, error) {
	var in sessionArgs
	if err := decodeArgs(args, &in); err != nil {
		return runner.RichResponse{}, err
	}
	state, err := s.sessions.Load(ctx, in.SessionID)
	if err != nil {
		return runner.RichResponse{}, fmt.Errorf("load failed: %w", err)
	}
	view, err := s.engine.View(ctx, state)
	if err != nil {
		return runner.RichResponse{}, fmt.Errorf("view failed: %w", err)
	}
	return runner.RichResponse{State: state, View: view}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: arbor://flows
	s.mcpServer.AddResource(mcp.NewResource("arbor://flows", "Available Flows",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.engine.Flows()
		if err != nil {
			return nil, fmt.Errorf("failed to list flows: %w", err)
		}
		jsonBytes, _ := json.Marshal(ids)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "arbor://flows",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	// EXPOSE: arbor://flows/{flow_id} as a Mermaid chart
	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(flowURIPrefix+"{flow_id}", "Flow Chart",
		mcp.WithTemplateDescription("Mermaid flowchart of a flow"),
		mcp.WithTemplateMIMEType("text/vnd.mermaid"),
	), s.readFlowChart)
}

func (s *Server) readFlowChart(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	flowID := strings.TrimPrefix(uri, flowURIPrefix)
	if flowID == "" || flowID == uri {
		return nil, fmt.Errorf("invalid flow uri %q", uri)
	}
	g, err := s.engine.Inspect(ctx, flowID)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect flow: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/vnd.mermaid",
			Text:     graph.GenerateMermaid(g, nil),
		},
	}, nil
}

func sanitizeValues(values map[string]any) (domain.Values, error) {
	out := make(domain.Values, len(values))
	for k, v := range values {
		if str, ok := v.(string); ok {
			clean, err := runner.SanitizeInput(str)
			if err != nil {
				return nil, fmt.Errorf("input rejected for %q: %w", k, err)
			}
			v = clean
		}
		out[k] = v
	}
	return out, nil
}
