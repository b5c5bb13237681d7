package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warp/budget-engine/api"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List or load demo scenarios",
}

var scenariosListCmd = &cobra.Command{
	Use:   "list",
	Short: "List demo scenarios",
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		for _, s := range api.Scenarios() {
			fmt.Fprintf(out, "  %-16s %s\n", s.ID, s.Description)
		}
		return nil
	},
}

var scenariosLoadCmd = &cobra.Command{
	Use:   "load <scenario-id>",
	Short: "Replace all data with a demo scenario",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenarioLoad,
}

func init() {
	scenariosCmd.AddCommand(scenariosListCmd, scenariosLoadCmd)
	rootCmd.AddCommand(scenariosCmd)
}

func runScenarioLoad(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	if err := a.handler.ApplyScenario(ctx, args[0]); err != nil {
		return err
	}

	derived, err := a.handler.Recompute(ctx)
	if err != nil {
		return err
	}
	accounts, err := a.store.ListAccounts(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  Loaded %s\n", args[0])
	return printSummary(cmd.OutOrStdout(), derived, accounts)
}
