package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/warp/budget-engine/budget"
)

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Recompute allocations for the current pay period and print a summary",
	RunE:  runRecompute,
}

func init() {
	rootCmd.AddCommand(recomputeCmd)
}

func runRecompute(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	derived, err := a.handler.Recompute(context.Background())
	if err != nil {
		return err
	}

	accounts, err := a.store.ListAccounts(context.Background())
	if err != nil {
		return err
	}
	return printSummary(cmd.OutOrStdout(), derived, accounts)
}

func printSummary(out io.Writer, d budget.Derived, accounts []budget.Account) error {
	names := make(map[budget.AccountID]string, len(accounts))
	for _, acc := range accounts {
		names[acc.ID] = acc.Name
	}

	fmt.Fprintf(out, "\n  Pay period %s\n\n", d.Period)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "  Account\tRequired\tAllocated\tShortfall\t")
	for _, s := range d.Accounts {
		name := names[s.AccountID]
		if name == "" {
			name = string(s.AccountID)
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t\n", name, s.Required, s.Allocated, s.Shortfall)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n  Funds:      %s\n", formatMoney(d.TotalFunds, d.Currency))
	fmt.Fprintf(out, "  Required:   %s\n", formatMoney(d.TotalRequired, d.Currency))
	fmt.Fprintf(out, "  Allocated:  %s\n", formatMoney(d.Allocated, d.Currency))
	fmt.Fprintf(out, "  Remainder:  %s\n\n", formatMoney(d.Remainder, d.Currency))
	return nil
}
