package main

import (
	"context"
	"fmt"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [dir]",
	Short: "Export a flow as a Mermaid diagram",
	Long: `Outputs a Mermaid flowchart of the flow. With --values (or --session) the nodes
visible for those answers are highlighted and the followed edges drawn thicker.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg := engineConfig(cmd, args)
		logger := logging.NewNop()

		engine, err := cli.CreateEngine(cfg, logger)
		if err != nil {
			return err
		}

		flowID, _ := cmd.Flags().GetString("flow")
		rawValues, _ := cmd.Flags().GetString("values")
		sessionID, _ := cmd.Flags().GetString("session")

		overlay, flowID, err := cli.Overlay(ctx, engine, cli.OverlayOptions{
			RepoPath:  cfg.RepoPath,
			FlowID:    flowID,
			Values:    rawValues,
			SessionID: sessionID,
			RedisURL:  redisURL(cmd),
		}, logger)
		if err != nil {
			return err
		}

		g, err := engine.Inspect(ctx, flowID)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(g, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("flow", "f", "", "Flow to draw (default: the entry point)")
	graphCmd.Flags().String("values", "", "Answers (JSON object) used to highlight the visible path")
	graphCmd.Flags().StringP("session", "s", "", "Saved session used to highlight the visible path")
}

func redisURL(cmd *cobra.Command) string {
	url, _ := cmd.Flags().GetString("redis")
	return url
}
