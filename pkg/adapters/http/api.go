package http

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface lists one method per operation of openapi.yaml.
type ServerInterface interface {
	// (GET /health)
	GetHealth(w http.ResponseWriter, r *http.Request)
	// (GET /info)
	GetInfo(w http.ResponseWriter, r *http.Request)
	// (GET /flows)
	ListFlows(w http.ResponseWriter, r *http.Request)
	// (GET /flows/{flowId})
	GetFlow(w http.ResponseWriter, r *http.Request, flowID string)
	// (GET /flows/{flowId}/mermaid)
	GetFlowMermaid(w http.ResponseWriter, r *http.Request, flowID string, params GetFlowMermaidParams)
	// (POST /sessions)
	StartSession(w http.ResponseWriter, r *http.Request)
	// (GET /sessions/{sessionId})
	GetSession(w http.ResponseWriter, r *http.Request, sessionID string)
	// (DELETE /sessions/{sessionId})
	DeleteSession(w http.ResponseWriter, r *http.Request, sessionID string)
	// (PATCH /sessions/{sessionId}/values)
	ApplyValues(w http.ResponseWriter, r *http.Request, sessionID string)
	// (POST /sessions/{sessionId}/submit)
	SubmitSession(w http.ResponseWriter, r *http.Request, sessionID string)
	// (GET /sessions/{sessionId}/events)
	SubscribeEvents(w http.ResponseWriter, r *http.Request, sessionID string, params SubscribeEventsParams)
}

// GetFlowMermaidParams defines parameters for GetFlowMermaid.
type GetFlowMermaidParams struct {
	// SessionId overlays the visibility of this session.
	SessionId *string `form:"sessionId,omitempty" json:"sessionId,omitempty"`
}

// SubscribeEventsParams defines parameters for SubscribeEvents.
type SubscribeEventsParams struct {
	// Watch is a comma separated filter over values, errors, visibility and status.
	Watch *string `form:"watch,omitempty" json:"watch,omitempty"`
}

// InvalidParamFormatError is reported when a parameter cannot be bound.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

// ServerInterfaceWrapper binds path and query parameters before calling the handler.
type ServerInterfaceWrapper struct {
	Handler          ServerInterface
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

func (siw *ServerInterfaceWrapper) pathParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	var value string
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &value,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: name, Err: err})
		return "", false
	}
	return value, true
}

func (siw *ServerInterfaceWrapper) GetFlow(w http.ResponseWriter, r *http.Request) {
	flowID, ok := siw.pathParam(w, r, "flowId")
	if !ok {
		return
	}
	siw.Handler.GetFlow(w, r, flowID)
}

func (siw *ServerInterfaceWrapper) GetFlowMermaid(w http.ResponseWriter, r *http.Request) {
	flowID, ok := siw.pathParam(w, r, "flowId")
	if !ok {
		return
	}
	var params GetFlowMermaidParams
	if err := runtime.BindQueryParameter("form", true, false, "sessionId", r.URL.Query(), &params.SessionId); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "sessionId", Err: err})
		return
	}
	siw.Handler.GetFlowMermaid(w, r, flowID, params)
}

func (siw *ServerInterfaceWrapper) GetSession(w http.ResponseWriter, r *http.Request) {
	if id, ok := siw.pathParam(w, r, "sessionId"); ok {
		siw.Handler.GetSession(w, r, id)
	}
}

func (siw *ServerInterfaceWrapper) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if id, ok := siw.pathParam(w, r, "sessionId"); ok {
		siw.Handler.DeleteSession(w, r, id)
	}
}

func (siw *ServerInterfaceWrapper) ApplyValues(w http.ResponseWriter, r *http.Request) {
	if id, ok := siw.pathParam(w, r, "sessionId"); ok {
		siw.Handler.ApplyValues(w, r, id)
	}
}

func (siw *ServerInterfaceWrapper) SubmitSession(w http.ResponseWriter, r *http.Request) {
	if id, ok := siw.pathParam(w, r, "sessionId"); ok {
		siw.Handler.SubmitSession(w, r, id)
	}
}

func (siw *ServerInterfaceWrapper) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := siw.pathParam(w, r, "sessionId")
	if !ok {
		return
	}
	var params SubscribeEventsParams
	if err := runtime.BindQueryParameter("form", true, false, "watch", r.URL.Query(), &params.Watch); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "watch", Err: err})
		return
	}
	siw.Handler.SubscribeEvents(w, r, id, params)
}

// HandlerFromMux registers every operation of si on r.
func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	wrapper := ServerInterfaceWrapper{
		Handler: si,
		ErrorHandlerFunc: func(w http.ResponseWriter, r *http.Request, err error) {
			writeProblem(w, http.StatusBadRequest, err.Error())
		},
	}

	r.Get("/health", si.GetHealth)
	r.Get("/info", si.GetInfo)
	r.Get("/flows", si.ListFlows)
	r.Get("/flows/{flowId}", wrapper.GetFlow)
	r.Get("/flows/{flowId}/mermaid", wrapper.GetFlowMermaid)
	r.Post("/sessions", si.StartSession)
	r.Get("/sessions/{sessionId}", wrapper.GetSession)
	r.Delete("/sessions/{sessionId}", wrapper.DeleteSession)
	r.Patch("/sessions/{sessionId}/values", wrapper.ApplyValues)
	r.Post("/sessions/{sessionId}/submit", wrapper.SubmitSession)
	r.Get("/sessions/{sessionId}/events", wrapper.SubscribeEvents)
	return r
}
