package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/pkg/adapters/process"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/aretw0/arbor/pkg/runner"
)

// createLogger configures the application logger.
// In debug mode, it writes to Stderr (to separate from Stdout form UI).
func createLogger(debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.NewNop()
}

// printSystemMessage prints a standardized system message to w.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// parseValues decodes the --values JSON object and sanitizes every string in it.
func parseValues(raw string) (domain.Values, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var values domain.Values
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("error parsing --values JSON: %w", err)
	}
	for k, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		clean, err := runner.SanitizeInput(s)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", k, err)
		}
		values[k] = clean
	}
	return values, nil
}

// LoadRegistry registers the command option sources declared in path.
// An empty path yields an empty registry.
func LoadRegistry(path, baseDir string, logger *slog.Logger) (*registry.Registry, error) {
	reg := registry.NewRegistry()
	if path == "" {
		return reg, nil
	}
	sources, err := process.LoadSources(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load option sources: %w", err)
	}
	process.NewRunner(process.WithSources(sources), process.WithBaseDir(baseDir)).RegisterAll(reg)
	logger.Debug("option sources loaded", "path", path, "sources", reg.Names())
	return reg, nil
}

// createHandler picks the IO strategy of a run.
func createHandler(jsonMode bool, style string) (runner.IOHandler, error) {
	if jsonMode {
		return runner.NewJSONHandler(os.Stdin, os.Stdout), nil
	}
	render, err := tui.NewRenderer(style, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return runner.NewTextHandler(os.Stdin, os.Stdout, runner.WithTextHandlerRenderer(render)), nil
}

// logCompletion reports how a run ended.
func logCompletion(logger *slog.Logger, w io.Writer, state *domain.State, err error, quiet bool) {
	switch {
	case errors.Is(err, runner.ErrInterrupted):
		logger.Info("Session interrupted")
		if !quiet {
			printSystemMessage(w, "Interrupted. Progress is kept for the session.")
		}
	case err != nil:
		logger.Error("Session failed", "err", err)
	case state != nil && state.Status == domain.StatusSubmitted:
		logger.Info("Session submitted", "session_id", state.SessionID, "flow_id", state.FlowID)
	case state != nil:
		logger.Info("Session paused", "session_id", state.SessionID, "flow_id", state.FlowID)
		if !quiet && state.SessionID != "" {
			printSystemMessage(w, "Resume with --session %s.", state.SessionID)
		}
	}
}

// handleExecutionError maps a user interrupt to a clean exit.
func handleExecutionError(err error) error {
	if err == nil || errors.Is(err, runner.ErrInterrupted) {
		return nil
	}
	return err
}
