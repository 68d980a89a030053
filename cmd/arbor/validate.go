package main

import (
	"fmt"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/aretw0/arbor/internal/compiler"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/internal/validator"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Check flows for consistency",
	Long: `Parses the flow (or every flow of the directory), follows its sub-flow links and
reports schema errors, missing sub-flows and nodes no edge path can reach.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := cli.CreateEngine(engineConfig(cmd, args), logging.NewNop())
		if err != nil {
			return err
		}

		flows := []string{}
		if id, _ := cmd.Flags().GetString("flow"); id != "" {
			flows = append(flows, id)
		} else if flows, err = engine.Flows(); err != nil {
			return err
		}
		if len(flows) == 0 {
			return fmt.Errorf("no flows found")
		}

		parser := compiler.NewParser()
		failed := 0
		for _, id := range flows {
			if err := validator.ValidateFlow(engine.Loader(), parser, id); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "✗ %s: %v\n", id, err)
				failed++
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", id)
		}
		if failed > 0 {
			return fmt.Errorf("validation failed for %d of %d flows", failed, len(flows))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringP("flow", "f", "", "Validate only this flow and its sub-flows")
}
