package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp [dir]",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts arbor as an MCP Server so that agents can fill forms through tools
(list_flows, get_flow, start_session, set_values, submit, view_session) and read
flow charts as resources.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		cfg := engineConfig(cmd, args)
		level := slog.LevelInfo
		if cfg.Debug {
			level = slog.LevelDebug
		}
		// Logs go to stderr so they never corrupt JSON-RPC on stdout.
		logger := logging.New(level)

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

		srv := mcp.NewServer(engine, p.Sessions, mcp.WithLogger(logger))

		switch transport {
		case "stdio":
			logger.Info("Starting arbor MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			logger.Info("Starting arbor MCP server (sse)", "port", port)
			if err := srv.ServeSSE(ctx, fmt.Sprintf(":%d", port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("MCP server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport %q (supported: stdio, sse)", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
