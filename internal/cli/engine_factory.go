package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/observability"
)

// EngineConfig holds the engine settings shared by every command.
type EngineConfig struct {
	RepoPath       string
	ValidationMode string
	Debug          bool
	TypeChecks     bool
	Hooks          domain.LifecycleHooks
}

// CreateEngine initializes an arbor engine with standard CLI conventions.
func CreateEngine(cfg EngineConfig, logger *slog.Logger) (*arbor.Engine, error) {
	mode, err := ParseValidationMode(cfg.ValidationMode)
	if err != nil {
		return nil, err
	}

	hooks := cfg.Hooks
	if cfg.Debug {
		hooks = hooks.Merge(observability.LoggingHooks(logger))
	}

	engineOpts := []arbor.Option{
		arbor.WithLogger(logger),
		arbor.WithLifecycleHooks(hooks),
		arbor.WithValidationMode(mode),
	}
	if cfg.TypeChecks {
		engineOpts = append(engineOpts, arbor.WithTypeChecks())
	}

	engine, err := arbor.New(cfg.RepoPath, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, nil
}

// ParseValidationMode accepts "", "onSubmit" and "onChange".
func ParseValidationMode(s string) (domain.ValidationMode, error) {
	switch domain.ValidationMode(s) {
	case "":
		return domain.ValidateOnSubmit, nil
	case domain.ValidateOnSubmit, domain.ValidateOnChange:
		return domain.ValidationMode(s), nil
	}
	return "", fmt.Errorf("unknown validation mode %q (want %q or %q)", s, domain.ValidateOnSubmit, domain.ValidateOnChange)
}

// DetermineEntryPoint picks the flow to run when none was named: "start", "main",
// "index", a flow named after the directory, or the only flow of the repository.
func DetermineEntryPoint(repoPath string, flows []string) string {
	candidates := []string{"start", "main", "index"}
	if abs, err := filepath.Abs(repoPath); err == nil {
		candidates = append(candidates, filepath.Base(abs))
	}
	for _, c := range candidates {
		if slices.Contains(flows, c) {
			return c
		}
	}
	if len(flows) == 1 {
		return flows[0]
	}
	return ""
}

// resolveFlow returns flowID, or the repository entry point when it is empty.
func resolveFlow(engine *arbor.Engine, repoPath, flowID string) (string, error) {
	if flowID != "" {
		return flowID, nil
	}
	flows, err := engine.Flows()
	if err != nil {
		return "", fmt.Errorf("failed to list flows: %w", err)
	}
	if id := DetermineEntryPoint(repoPath, flows); id != "" {
		return id, nil
	}
	if len(flows) == 0 {
		return "", fmt.Errorf("no flows found in %s", repoPath)
	}
	return "", fmt.Errorf("several flows found (%v); pick one with --flow", flows)
}

// sourcesPath returns explicit when set, else the conventional sources file of the
// repository when it exists.
func sourcesPath(repoPath, explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"sources.yaml", "sources.yml", "sources.json"} {
		candidate := filepath.Join(repoPath, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
