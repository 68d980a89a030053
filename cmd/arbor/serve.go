package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/aretw0/arbor/internal/logging"
	httpAdapter "github.com/aretw0/arbor/pkg/adapters/http"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve [dir]",
	Short: "Start the HTTP server",
	Long: `Serves the flows of the directory over a JSON API: start sessions, patch values,
submit, read views, stream view diffs (SSE) and export Mermaid charts. Prometheus
metrics are exposed at /metrics.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")
		logFormat, _ := cmd.Flags().GetString("log-format")
		logLevel, _ := cmd.Flags().GetString("log-level")

		cfg := engineConfig(cmd, args)
		if cfg.Debug {
			logLevel = "debug"
		}
		level, err := logging.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logger := logging.NewWithFormat(os.Stderr, level, logging.Format(logFormat))

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics := observability.NewMetrics(reg)
		cfg.Hooks = metrics.Hooks()

		engine, err := cli.CreateEngine(cfg, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		p, err := cli.SetupPersistence(ctx, cli.PersistenceConfig{RedisURL: redisURL(cmd)}, logger)
		if err != nil {
			return err
		}
		defer p.Close()

		handler := httpAdapter.NewHandler(engine, p.Sessions,
			httpAdapter.WithBus(p.Bus),
			httpAdapter.WithMetrics(metrics, reg),
			httpAdapter.WithLogger(logger),
		)

		srv := &http.Server{
			Addr:              ":" + port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting arbor server", "addr", srv.Addr, "dir", cfg.RepoPath, "sessions", p.Backend)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			logger.Info("Start shutdown")

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("Arbor server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("log-format", "json", "Log format: json or text")
	serveCmd.Flags().String("log-level", "info", "Log level: debug, info, warn or error")
}
