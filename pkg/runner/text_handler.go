package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const defaultWidth = 40

// TextHandler renders nodes as plain (or ANSI styled) text and reads answers line by line.
type TextHandler struct {
	source      io.Reader
	interactive bool // true when reading from a terminal
	Reader      *bufio.Reader
	Writer      io.Writer
	Renderer    ContentRenderer

	out   *termenv.Output
	width int

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer for UI nodes.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithTextHandlerWidth fixes the width used for dividers.
func WithTextHandlerWidth(width int) TextHandlerOption {
	return func(h *TextHandler) {
		if width > 0 {
			h.width = width
		}
	}
}

// NewTextHandler creates a handler for standard text IO.
// Styling is enabled only when w is a color capable terminal.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		source:      r,
		interactive: isTerminal(r),
		Reader:      bufio.NewReader(r),
		Writer:      w,
		out:         termenv.NewOutput(w),
		width:       terminalWidth(w),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Interactive reports whether answers are typed at a terminal.
func (h *TextHandler) Interactive() bool {
	return h.interactive
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')

		// A last line without newline still counts.
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}

		if err != nil {
			if err == io.EOF {
				close(h.inputChan)
				return
			}
			h.inputChan <- inputResult{err: err}
			// Backoff for non-fatal errors to prevent CPU spikes on persistent failure
			time.Sleep(50 * time.Millisecond)
		}
	}
}

func (h *TextHandler) indent(depth int) string {
	return strings.Repeat("  ", depth)
}

func (h *TextHandler) content(s string) string {
	if h.Renderer == nil {
		return s
	}
	rendered, err := h.Renderer(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(rendered)
}

// RenderUI prints titles, dividers and text blocks.
func (h *TextHandler) RenderUI(_ context.Context, rc ports.RenderContext, data *domain.UIData) error {
	pad := h.indent(rc.Depth)
	switch data.UIType {
	case domain.UITypeTitle:
		_, err := fmt.Fprintf(h.Writer, "\n%s%s\n", pad, h.out.String(data.Content).Bold())
		return err
	case domain.UITypeDivider:
		_, err := fmt.Fprintf(h.Writer, "%s%s\n", pad, h.out.String(strings.Repeat("─", h.width)).Faint())
		return err
	}
	if data.Content == "" {
		return nil
	}
	_, err := fmt.Fprintf(h.Writer, "%s%s\n", pad, h.content(data.Content))
	return err
}

// RenderGroup prints the group label as a section header.
func (h *TextHandler) RenderGroup(_ context.Context, rc ports.RenderContext, data *domain.GroupData) error {
	label := data.Label
	if label == "" {
		label = rc.Node.ID
	}
	_, err := fmt.Fprintf(h.Writer, "\n%s%s\n", h.indent(rc.Depth), h.out.String(label).Bold().Underline())
	return err
}

// RenderFlow prints the label of a flow node that was not inlined.
func (h *TextHandler) RenderFlow(_ context.Context, rc ports.RenderContext, data *domain.FlowData) error {
	label := data.Label
	if label == "" {
		label = data.TargetID
	}
	_, err := fmt.Fprintf(h.Writer, "%s» %s\n", h.indent(rc.Depth), label)
	return err
}

// RenderInput prints the field prompt: label, current value, choices and error.
func (h *TextHandler) RenderInput(_ context.Context, rc ports.RenderContext, data *domain.InputData) error {
	pad := h.indent(rc.Depth)

	var b strings.Builder
	b.WriteString(pad)
	b.WriteString(h.out.String(rc.Node.DisplayName()).Bold().String())
	if data.Required {
		b.WriteString(h.out.String(" *").Foreground(h.out.Color("1")).String())
	}
	switch {
	case !domain.IsEmpty(rc.Value):
		fmt.Fprintf(&b, " [%v]", rc.Value)
	case data.Placeholder != "":
		b.WriteString(" " + h.out.String("("+data.Placeholder+")").Faint().String())
	}
	b.WriteString("\n")

	for i, opt := range rc.Options {
		fmt.Fprintf(&b, "%s  %d) %s\n", pad, i+1, opt.Label)
	}
	if rc.Error != "" {
		b.WriteString(pad + h.out.String("! "+rc.Error).Foreground(h.out.Color("1")).String() + "\n")
	}

	_, err := io.WriteString(h.Writer, b.String())
	return err
}

// Input prompts and reads one sanitized line. Lines that fail sanitization are
// reported and read again.
func (h *TextHandler) Input(ctx context.Context) (string, error) {
	h.initPump()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			fmt.Fprint(h.Writer, "> ")
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			clean, err := SanitizeInput(strings.TrimSpace(res.text))
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			return clean, nil
		}
	}
}

// SystemOutput prints a status line.
func (h *TextHandler) SystemOutput(_ context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, "\n%s\n", h.out.String("[arbor] "+msg).Faint())
	return err
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return min(width, 80)
		}
	}
	return defaultWidth
}
