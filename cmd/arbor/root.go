package main

import (
	"fmt"
	"os"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "Arbor evaluates decision-tree forms",
	Long: `Arbor loads form graphs (inputs, conditional edges, groups and sub-flows) from a
directory and fills them in the terminal, over HTTP or as MCP tools.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Directory containing the flow documents")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging to stderr")
	rootCmd.PersistentFlags().String("redis", os.Getenv("ARBOR_REDIS_URL"), "Redis URL for sessions (e.g. redis://localhost:6379/0)")
	rootCmd.PersistentFlags().String("validation-mode", "", "When custom validation runs: onSubmit (default) or onChange")
}

// repoPath returns --dir, or the first argument when --dir was not given.
func repoPath(cmd *cobra.Command, args []string) string {
	dir, _ := cmd.Flags().GetString("dir")
	if !cmd.Flags().Changed("dir") && len(args) > 0 {
		dir = args[0]
	}
	return dir
}

// engineConfig reads the persistent engine flags.
func engineConfig(cmd *cobra.Command, args []string) cli.EngineConfig {
	debug, _ := cmd.Flags().GetBool("debug")
	mode, _ := cmd.Flags().GetString("validation-mode")
	return cli.EngineConfig{
		RepoPath:       repoPath(cmd, args),
		ValidationMode: mode,
		Debug:          debug,
	}
}
