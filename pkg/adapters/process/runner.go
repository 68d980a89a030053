package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/registry"
)

// DefaultTimeout bounds a source command that sets no timeout of its own.
const DefaultTimeout = 5 * time.Second

var envKey = regexp.MustCompile(`[^A-Z0-9_]`)

// Runner executes option source commands.
// It follows a Strict Registry pattern for security (Allow-Listing): only commands
// loaded from the configuration file can run.
type Runner struct {
	sources map[string]SourceConfig
	baseDir string
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithSources populates the allow-list from a loaded config.
func WithSources(sources map[string]SourceConfig) RunnerOption {
	return func(r *Runner) {
		for name, src := range sources {
			src.Name = name
			r.sources[name] = src
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// NewRunner creates a new Process Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		sources: make(map[string]SourceConfig),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.sources[name] = SourceConfig{Name: name, Command: command, Args: args}
}

// RegisterAll exposes every allowed command as an option source of reg.
func (r *Runner) RegisterAll(reg *registry.Registry) {
	for name := range r.sources {
		reg.Register(name, r.Source(name))
	}
}

// Source returns an option source that runs the named command.
func (r *Runner) Source(name string) registry.OptionSource {
	return func(ctx context.Context, values domain.Values) ([]domain.Option, error) {
		return r.Run(ctx, name, values)
	}
}

// Run executes a registered command and parses its output into options.
//
// The current values reach the command twice: as a JSON object on stdin and as
// ARBOR_VALUE_<KEY> environment variables. Values are never passed as flags, which
// keeps user answers out of the command line.
//
// Stdout may be a JSON array of {label, value} objects, a JSON array of scalars, or
// plain text with one option per line.
func (r *Runner) Run(ctx context.Context, name string, values domain.Values) ([]domain.Option, error) {
	src, ok := r.sources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (not in the process allow-list)", registry.ErrSourceNotFound, name)
	}

	timeout := DefaultTimeout
	if src.Timeout != "" {
		d, err := time.ParseDuration(src.Timeout)
		if err != nil {
			return nil, fmt.Errorf("source %q: invalid timeout: %w", name, err)
		}
		timeout = d
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	input, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("source %q: failed to encode values: %w", name, err)
	}

	cmd := exec.CommandContext(ctx, src.Command, src.Args...)
	cmd.Dir = r.baseDir
	cmd.WaitDelay = time.Second
	cmd.Stdin = bytes.NewReader(input)
	cmd.Env = append(cmd.Environ(), environment(src.Environment, values)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("source %q timed out after %s: %w", name, timeout, ctx.Err())
		}
		return nil, fmt.Errorf("source %q failed: %w. Stderr: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return ParseOptions(stdout.Bytes())
}

func environment(static map[string]string, values domain.Values) []string {
	env := make([]string, 0, len(static)+len(values))
	for k, v := range static {
		env = append(env, k+"="+v)
	}
	for k, v := range values {
		var val string
		switch v.(type) {
		case string, int, int64, float64, bool:
			val = fmt.Sprintf("%v", v)
		case nil:
			val = ""
		default:
			if b, err := json.Marshal(v); err == nil {
				val = string(b)
			} else {
				val = fmt.Sprintf("%v", v)
			}
		}
		env = append(env, "ARBOR_VALUE_"+envKey.ReplaceAllString(strings.ToUpper(k), "_")+"="+val)
	}
	return env
}

// ParseOptions decodes command output into options.
func ParseOptions(out []byte) ([]domain.Option, error) {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var items []any
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("invalid options JSON: %w", err)
		}
		opts := make([]domain.Option, 0, len(items))
		for i, item := range items {
			switch v := item.(type) {
			case map[string]any:
				value, ok := v["value"]
				if !ok {
					return nil, fmt.Errorf("option #%d has no value", i)
				}
				label, _ := v["label"].(string)
				if label == "" {
					label = fmt.Sprint(value)
				}
				opts = append(opts, domain.Option{Label: label, Value: value})
			case nil:
				return nil, fmt.Errorf("option #%d is null", i)
			default:
				opts = append(opts, domain.Option{Label: fmt.Sprint(v), Value: v})
			}
		}
		return opts, nil
	}

	var opts []domain.Option
	for _, line := range strings.Split(string(trimmed), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		opts = append(opts, domain.Option{Label: line, Value: line})
	}
	return opts, nil
}
