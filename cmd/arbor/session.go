package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/adapters/file"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persistent sessions",
	Long:  `List, inspect, and remove sessions saved by 'arbor run --session' (or in Redis with --redis).`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List saved sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openSessions(cmd)
		if err != nil {
			return err
		}
		defer p.Close()

		sessions, err := p.Sessions.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}
		if len(sessions) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No sessions found.")
			return nil
		}
		for _, s := range sessions {
			fmt.Fprintln(cmd.OutOrStdout(), "- "+s)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Print the state of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openSessions(cmd)
		if err != nil {
			return err
		}
		defer p.Close()

		state, err := p.Sessions.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("error loading session '%s': %w", args[0], err)
		}
		data, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openSessions(cmd)
		if err != nil {
			return err
		}
		defer p.Close()

		failed := 0
		for _, id := range args {
			if err := p.Sessions.Delete(cmd.Context(), id); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", id, err)
				failed++
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", id)
		}
		if failed > 0 {
			return fmt.Errorf("failed to remove %d session(s)", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
}

// openSessions targets <dir>/.arbor/sessions, or Redis when --redis is set.
func openSessions(cmd *cobra.Command) (*cli.Persistence, error) {
	dir, _ := cmd.Flags().GetString("dir")
	return cli.SetupPersistence(cmd.Context(), cli.PersistenceConfig{
		RedisURL: redisURL(cmd),
		Dir:      filepath.Join(dir, filepath.FromSlash(file.DefaultDir)),
	}, logging.NewNop())
}
