package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [dir]",
	Short: "Fill a form interactively",
	Long: `Renders the visible part of a form, prompts for each pending field and submits
when nothing is left. With --session, progress is saved after every answer.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := engineConfig(cmd, args)
		opts := cli.RunOptions{
			RepoPath:       cfg.RepoPath,
			Debug:          cfg.Debug,
			ValidationMode: cfg.ValidationMode,
		}
		opts.RedisURL, _ = cmd.Flags().GetString("redis")
		opts.FlowID, _ = cmd.Flags().GetString("flow")
		opts.SessionID, _ = cmd.Flags().GetString("session")
		opts.Fresh, _ = cmd.Flags().GetBool("fresh")
		opts.Values, _ = cmd.Flags().GetString("values")
		opts.Headless, _ = cmd.Flags().GetBool("headless")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Watch, _ = cmd.Flags().GetBool("watch")
		opts.SourcesPath, _ = cmd.Flags().GetString("sources")
		opts.Style, _ = cmd.Flags().GetString("style")

		// Signals stop the server loops; the runner installs its own handler for prompts.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return cli.Execute(ctx, opts)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("flow", "f", "", "Flow to run (default: start, main, index or the only flow)")
	runCmd.Flags().StringP("session", "s", "", "Session id to persist and resume")
	runCmd.Flags().Bool("fresh", false, "Discard the saved session before running")
	runCmd.Flags().String("values", "", "Initial values as a JSON object keyed by node id")
	runCmd.Flags().Bool("headless", false, "Run in headless mode (no banner or titles)")
	runCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	runCmd.Flags().BoolP("watch", "w", false, "Run in development mode with hot-reload")
	runCmd.Flags().String("sources", "", "Option sources file (default: sources.yaml in the flow directory)")
	runCmd.Flags().String("style", "auto", "Markdown style for UI content (auto, dark, light, notty)")

	// 'run' is the default command.
	rootCmd.RunE = runCmd.RunE
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}
