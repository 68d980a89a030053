package cli

import (
	"context"
	"fmt"
)

// RunOptions contains all the configuration for the Run command.
type RunOptions struct {
	RepoPath       string
	FlowID         string
	SessionID      string
	Fresh          bool
	Values         string // Raw JSON object
	Headless       bool
	Watch          bool
	JSON           bool
	Debug          bool
	RedisURL       string
	SourcesPath    string
	ValidationMode string
	Style          string
}

// Execute handles the 'run' command logic, dispatching to Session or Watch mode.
func Execute(ctx context.Context, opts RunOptions) error {
	if opts.Watch {
		if opts.Headless || opts.JSON {
			return fmt.Errorf("--watch cannot be combined with --headless or --json")
		}
		return RunWatch(ctx, opts)
	}
	return RunSession(ctx, opts)
}
