package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/pkg/adapters/file"
	"github.com/aretw0/arbor/pkg/runner"
)

// RunSession fills one form in the terminal.
// With --session the progress is saved after every answer and a later run resumes it.
func RunSession(ctx context.Context, opts RunOptions) error {
	logger := createLogger(opts.Debug)
	quiet := opts.JSON || opts.Headless

	if !quiet {
		tui.PrintBanner(os.Stdout)
	}

	engine, err := CreateEngine(EngineConfig{
		RepoPath:       opts.RepoPath,
		ValidationMode: opts.ValidationMode,
		Debug:          opts.Debug,
	}, logger)
	if err != nil {
		return err
	}

	flowID, err := resolveFlow(engine, opts.RepoPath, opts.FlowID)
	if err != nil {
		return err
	}

	initial, err := parseValues(opts.Values)
	if err != nil {
		return err
	}

	reg, err := LoadRegistry(sourcesPath(opts.RepoPath, opts.SourcesPath), opts.RepoPath, logger)
	if err != nil {
		return err
	}

	handler, err := createHandler(opts.JSON, opts.Style)
	if err != nil {
		return err
	}

	runnerOpts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithHeadless(opts.Headless),
		runner.WithInputHandler(handler),
		runner.WithRegistry(reg),
	}

	if opts.SessionID != "" {
		p, err := SetupPersistence(ctx, PersistenceConfig{
			RedisURL: opts.RedisURL,
			Dir:      filepath.Join(opts.RepoPath, filepath.FromSlash(file.DefaultDir)),
		}, logger)
		if err != nil {
			return err
		}
		defer p.Close()

		if opts.Fresh {
			if err := p.Sessions.Delete(ctx, opts.SessionID); err != nil {
				return fmt.Errorf("failed to reset session: %w", err)
			}
		} else if prev, err := p.Sessions.Load(ctx, opts.SessionID); err == nil && !quiet {
			printSystemMessage(os.Stdout, "Resuming session '%s' (%d values).", opts.SessionID, len(prev.Values))
		}
		runnerOpts = append(runnerOpts,
			runner.WithSessions(p.Sessions),
			runner.WithSessionID(opts.SessionID),
		)
	}

	logger.Info("Starting session", "flow_id", flowID, "session_id", opts.SessionID)
	state, runErr := runner.NewRunner(runnerOpts...).Run(ctx, engine, flowID, initial)

	logCompletion(logger, os.Stdout, state, runErr, quiet)
	return handleExecutionError(runErr)
}
