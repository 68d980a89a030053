package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/runner"
	"github.com/aretw0/arbor/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodySize bounds request bodies; single values are bounded by runner.SanitizeInput.
const maxBodySize = 1 << 20

// Engine is the evaluation core as seen by the HTTP boundary.
type Engine interface {
	ports.StatelessEngine
	Flows() ([]string, error)
}

// Server implements ServerInterface over a stateless engine and a session manager.
type Server struct {
	Engine   Engine
	Sessions *session.Manager
	Bus      ports.DiffBus
	Metrics  *observability.Metrics
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// Ensure Server implements ServerInterface
var _ ServerInterface = (*Server)(nil)

// Option configures the Server.
type Option func(*Server)

// WithBus sets the diff bus used for SSE (default: in-process bus).
func WithBus(bus ports.DiffBus) Option {
	return func(s *Server) {
		s.Bus = bus
	}
}

// WithMetrics records operation durations and exposes gatherer at /metrics.
func WithMetrics(m *observability.Metrics, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.Metrics = m
		s.Gatherer = gatherer
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.Logger = logger
		}
	}
}

// NewServer creates a Server with defaults for every unset option.
func NewServer(engine Engine, sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		Engine:   engine,
		Sessions: sessions,
		Logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Bus == nil {
		s.Bus = memory.NewBus()
	}
	return s
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, sessions *session.Manager, opts ...Option) http.Handler {
	server := NewServer(engine, sessions, opts...)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		spec, err := rawSpec()
		if err != nil {
			http.Error(w, "Failed to load spec", http.StatusInternalServerError)
			server.Logger.Error("failed to load OpenAPI spec", "err", err)
			return
		}
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(spec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if server.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(server.Gatherer, promhttp.HandlerOpts{}))
	}

	handler := HandlerFromMux(server, r)
	return enableCORS(handler)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Last-Event-ID")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Arbor API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

type startRequest struct {
	FlowID    string        `json:"flow_id"`
	SessionID string        `json:"session_id"`
	Values    domain.Values `json:"values"`
}

type applyRequest struct {
	Values domain.Values `json:"values"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := GetSwagger(); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "arbor-http",
		"version":     strings.TrimSpace(arbor.Version),
		"api_version": apiVersion,
	})
}

// ListFlows handles the GET /flows request.
func (s *Server) ListFlows(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.Flows()
	if err != nil {
		s.fail(w, "list flows", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

// GetFlow handles the GET /flows/{flowId} request.
func (s *Server) GetFlow(w http.ResponseWriter, r *http.Request, flowID string) {
	g, err := s.Engine.Inspect(r.Context(), flowID)
	if err != nil {
		s.fail(w, "inspect", err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// GetFlowMermaid handles the GET /flows/{flowId}/mermaid request.
func (s *Server) GetFlowMermaid(w http.ResponseWriter, r *http.Request, flowID string, params GetFlowMermaidParams) {
	g, err := s.Engine.Inspect(r.Context(), flowID)
	if err != nil {
		s.fail(w, "inspect", err)
		return
	}

	var overlay *graph.Overlay
	if params.SessionId != nil && *params.SessionId != "" {
		state, err := s.Sessions.Load(r.Context(), *params.SessionId)
		if err != nil {
			s.fail(w, "load session", err)
			return
		}
		if state.FlowID != flowID {
			writeProblem(w, http.StatusBadRequest, fmt.Sprintf("session %q belongs to flow %q", state.SessionID, state.FlowID))
			return
		}
		view, err := s.Engine.View(r.Context(), state)
		if err != nil {
			s.fail(w, "view", err)
			return
		}
		overlay = &graph.Overlay{Visible: view.Visible, ActiveEdges: view.ActiveEdges}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, graph.GenerateMermaid(g, overlay))
}

// StartSession handles the POST /sessions request.
// A session id is generated when the body does not carry one.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !s.decode(w, r, "StartRequest", &req) {
		return
	}
	values, err := sanitizeValues(req.Values)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, err.Error())
		return
	}
	id := req.SessionID
	if id == "" {
		id = uuid.NewString()
	}

	start := time.Now()
	var resp *runner.RichResponse
	_, err = s.Sessions.LoadOrStart(r.Context(), id, func(ctx context.Context) (*domain.State, error) {
		rr, err := runner.StartAndView(ctx, s.Engine, id, req.FlowID, values)
		if err != nil {
			return nil, err
		}
		resp = rr
		return rr.State, nil
	})
	s.observe("start", start, err)
	if err != nil {
		s.fail(w, "start", err)
		return
	}
	if resp == nil {
		writeProblem(w, http.StatusConflict, fmt.Sprintf("session %q already exists", id))
		return
	}

	s.publish(r.Context(), resp.Diff)
	writeJSON(w, http.StatusCreated, resp)
}

// GetSession handles the GET /sessions/{sessionId} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	state, err := s.Sessions.Load(r.Context(), sessionID)
	if err != nil {
		s.fail(w, "load session", err)
		return
	}
	view, err := s.Engine.View(r.Context(), state)
	if err != nil {
		s.fail(w, "view", err)
		return
	}
	writeJSON(w, http.StatusOK, runner.RichResponse{State: state, View: view})
}

// DeleteSession handles the DELETE /sessions/{sessionId} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := s.Sessions.Delete(r.Context(), sessionID); err != nil {
		s.fail(w, "delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplyValues handles the PATCH /sessions/{sessionId}/values request.
// The resulting diff is broadcast to the session's SSE subscribers.
func (s *Server) ApplyValues(w http.ResponseWriter, r *http.Request, sessionID string) {
	var req applyRequest
	if !s.decode(w, r, "ApplyRequest", &req) {
		return
	}
	patch, err := sanitizeValues(req.Values)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	var resp *runner.RichResponse
	_, _, err = s.Sessions.Update(r.Context(), sessionID, func(ctx context.Context, state *domain.State) (*domain.State, error) {
		rr, err := runner.ApplyAndView(ctx, s.Engine, state, patch)
		if err != nil {
			return nil, err
		}
		resp = rr
		return rr.State, nil
	})
	s.observe("apply", start, err)
	if err != nil {
		s.fail(w, "apply", err)
		return
	}

	s.publish(r.Context(), resp.Diff)
	writeJSON(w, http.StatusOK, resp)
}

// SubmitSession handles the POST /sessions/{sessionId}/submit request.
// An invalid submission is not an HTTP error: the result carries the field errors.
func (s *Server) SubmitSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	start := time.Now()
	var resp *runner.RichResponse
	_, _, err := s.Sessions.Update(r.Context(), sessionID, func(ctx context.Context, state *domain.State) (*domain.State, error) {
		rr, err := runner.SubmitAndView(ctx, s.Engine, state)
		if err != nil {
			return nil, err
		}
		resp = rr
		return rr.State, nil
	})
	s.observe("submit", start, err)
	if err != nil {
		s.fail(w, "submit", err)
		return
	}

	s.publish(r.Context(), resp.Diff)
	writeJSON(w, http.StatusOK, resp)
}

// SubscribeEvents handles the GET /sessions/{sessionId}/events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request, sessionID string, params SubscribeEventsParams) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.Logger.Error("streaming not supported")
		return
	}
	if _, err := s.Sessions.Load(r.Context(), sessionID); err != nil {
		s.fail(w, "load session", err)
		return
	}

	diffs, err := s.Bus.Subscribe(r.Context(), sessionID)
	if err != nil {
		s.fail(w, "subscribe", err)
		return
	}

	var watchList []string
	if params.Watch != nil && *params.Watch != "" {
		for _, f := range strings.Split(*params.Watch, ",") {
			watchList = append(watchList, strings.TrimSpace(f))
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.Logger.Info("sse client connected", "session_id", sessionID)

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("sse client disconnected", "session_id", sessionID)
			return
		case diff, ok := <-diffs:
			if !ok {
				return
			}
			if !watched(diff, watchList) {
				continue
			}
			data, err := json.Marshal(diff)
			if err != nil {
				s.Logger.Error("sse encode failed", "session_id", sessionID, "err", err)
				continue
			}
			fmt.Fprintf(w, "event: diff\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// watched reports whether diff touches one of the watched parts. An empty list
// watches everything.
func watched(diff *domain.ViewDiff, watchList []string) bool {
	if len(watchList) == 0 {
		return true
	}
	for _, field := range watchList {
		switch field {
		case "values":
			if len(diff.Values) > 0 {
				return true
			}
		case "errors":
			if len(diff.Errors) > 0 {
				return true
			}
		case "visibility":
			if len(diff.Shown) > 0 || len(diff.Hidden) > 0 {
				return true
			}
		case "status":
			if diff.Status != nil {
				return true
			}
		}
	}
	return false
}

// -- Helpers --

// decode reads the body, validates it against schema and unmarshals it into dst.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, schema string, dst any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if len(body) > maxBodySize {
		writeProblem(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return false
	}
	if err := validateBody(schema, body); err != nil {
		writeProblem(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		s.Logger.Warn("request rejected", "schema", schema, "err", err)
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// sanitizeValues applies the input policy to every string value of a patch.
func sanitizeValues(values domain.Values) (domain.Values, error) {
	out := make(domain.Values, len(values))
	for k, v := range values {
		if str, ok := v.(string); ok {
			clean, err := runner.SanitizeInput(str)
			if err != nil {
				return nil, fmt.Errorf("invalid value for %q: %w", k, err)
			}
			v = clean
		}
		out[k] = v
	}
	return out, nil
}

func (s *Server) publish(ctx context.Context, diff *domain.ViewDiff) {
	if diff == nil {
		return
	}
	if err := s.Bus.Publish(ctx, diff); err != nil {
		s.Logger.Warn("diff broadcast failed", "session_id", diff.SessionID, "err", err)
	}
}

func (s *Server) observe(op string, start time.Time, err error) {
	if s.Metrics != nil {
		s.Metrics.ObserveOperation(op, start, err)
	}
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.Logger.Error(op+" failed", "err", err)
	}
	writeProblem(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrFlowNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrFormSubmitted):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNoStartNode), errors.Is(err, domain.ErrSubflowCycle):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
