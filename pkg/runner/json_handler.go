package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// JSONEvent is one line written by JSONHandler.
type JSONEvent struct {
	Kind    string          `json:"kind"` // input, ui, group, flow or system
	ID      string          `json:"id,omitempty"`
	Depth   int             `json:"depth,omitempty"`
	Data    any             `json:"data,omitempty"`
	Value   any             `json:"value,omitempty"`
	Error   string          `json:"error,omitempty"`
	Options []domain.Option `json:"options,omitempty"`
	Message string          `json:"message,omitempty"`
}

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
// Answers are read one per line, either as a JSON string or as raw text.
type JSONHandler struct {
	Reader  *bufio.Reader
	Writer  io.Writer
	Encoder *json.Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) emit(kind string, rc ports.RenderContext, data domain.NodeData) error {
	return h.Encoder.Encode(JSONEvent{
		Kind:    kind,
		ID:      rc.Node.ID,
		Depth:   rc.Depth,
		Data:    data,
		Value:   rc.Value,
		Error:   rc.Error,
		Options: rc.Options,
	})
}

func (h *JSONHandler) RenderInput(_ context.Context, rc ports.RenderContext, data *domain.InputData) error {
	return h.emit(string(domain.NodeKindInput), rc, data)
}

func (h *JSONHandler) RenderUI(_ context.Context, rc ports.RenderContext, data *domain.UIData) error {
	return h.emit(string(domain.NodeKindUI), rc, data)
}

func (h *JSONHandler) RenderGroup(_ context.Context, rc ports.RenderContext, data *domain.GroupData) error {
	return h.emit(string(domain.NodeKindGroup), rc, data)
}

func (h *JSONHandler) RenderFlow(_ context.Context, rc ports.RenderContext, data *domain.FlowData) error {
	return h.emit(string(domain.NodeKindFlow), rc, data)
}

// Input reads one answer line. JSON strings are unquoted; anything else is returned as typed.
func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", err
	}
	text = strings.TrimSpace(text)

	var val string
	if err := json.Unmarshal([]byte(text), &val); err == nil {
		text = val
	}
	return SanitizeInput(text)
}

func (h *JSONHandler) SystemOutput(_ context.Context, msg string) error {
	return h.Encoder.Encode(JSONEvent{Kind: "system", Message: msg})
}
