package cli

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/pkg/adapters/file"
	"github.com/aretw0/arbor/pkg/runner"
)

// reloadDelay lets editors finish writing before the flow is parsed again.
const reloadDelay = 100 * time.Millisecond

// RunWatch runs a form in development mode: when a flow file changes the engine
// cache is dropped and the form restarts on the same session, so typed answers
// survive the reload.
func RunWatch(ctx context.Context, opts RunOptions) error {
	logger := createLogger(opts.Debug)
	tui.PrintBanner(os.Stdout)

	// Scope the default session by path so that two projects do not share it.
	if opts.SessionID == "" {
		hash := md5.Sum([]byte(opts.RepoPath))
		opts.SessionID = fmt.Sprintf("watch-%x", hash[:4])
	}

	engine, err := CreateEngine(EngineConfig{
		RepoPath:       opts.RepoPath,
		ValidationMode: opts.ValidationMode,
		Debug:          opts.Debug,
	}, logger)
	if err != nil {
		return err
	}

	p, err := SetupPersistence(ctx, PersistenceConfig{
		RedisURL: opts.RedisURL,
		Dir:      filepath.Join(opts.RepoPath, filepath.FromSlash(file.DefaultDir)),
	}, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	if opts.Fresh {
		_ = p.Sessions.Delete(ctx, opts.SessionID)
	}

	reg, err := LoadRegistry(sourcesPath(opts.RepoPath, opts.SourcesPath), opts.RepoPath, logger)
	if err != nil {
		return err
	}

	changes, err := engine.Watch(ctx)
	if err != nil {
		return err
	}

	// One handler for every iteration so that only one goroutine reads stdin.
	handler, err := createHandler(false, opts.Style)
	if err != nil {
		return err
	}
	r := runner.NewRunner(
		runner.WithLogger(logger),
		runner.WithInputHandler(handler),
		runner.WithRegistry(reg),
		runner.WithSessions(p.Sessions),
		runner.WithSessionID(opts.SessionID),
	)

	logger.Info("Starting watcher", "path", opts.RepoPath, "session_id", opts.SessionID)
	printSystemMessage(os.Stdout, "Watching '%s' on session '%s'.", opts.RepoPath, opts.SessionID)

	for {
		reload, err := watchIteration(ctx, engine, r, opts, changes, logger)
		if err != nil || !reload {
			return err
		}
		logger.Info("Watcher restarting")
	}
}

// watchIteration runs the form until it ends or a flow changes.
// It reports whether the caller should start over.
func watchIteration(ctx context.Context, engine *arbor.Engine, r *runner.Runner, opts RunOptions, changes <-chan string, logger *slog.Logger) (bool, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		err error
	}
	done := make(chan result, 1)

	go func() {
		flowID, err := resolveFlow(engine, opts.RepoPath, opts.FlowID)
		if err == nil {
			_, err = r.Run(runCtx, engine, flowID, nil)
		}
		done <- result{err}
	}()

	waitForChange := func() (bool, error) {
		select {
		case <-ctx.Done():
			return false, nil
		case id, ok := <-changes:
			if !ok {
				return false, nil
			}
			printSystemMessage(os.Stdout, "Change detected in '%s'.", id)
			time.Sleep(reloadDelay)
			return true, nil
		}
	}

	select {
	case <-ctx.Done():
		cancel()
		<-done
		return false, nil
	case id, ok := <-changes:
		cancel()
		<-done
		if !ok {
			return false, nil
		}
		fmt.Println()
		printSystemMessage(os.Stdout, "Change detected in '%s'.", id)
		time.Sleep(reloadDelay)
		return true, nil
	case res := <-done:
		switch {
		case errors.Is(res.err, runner.ErrInterrupted):
			return false, nil
		case res.err != nil:
			// A broken flow file is fixed by the next save.
			logger.Error("Runtime error", "err", res.err)
			printSystemMessage(os.Stdout, "Error: %v", res.err)
		default:
			printSystemMessage(os.Stdout, "Form finished.")
		}
		printSystemMessage(os.Stdout, "Waiting for changes...")
		return waitForChange()
	}
}
