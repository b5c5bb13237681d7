package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warp/budget-engine/budget"
)

var flagAt string

var periodCmd = &cobra.Command{
	Use:   "period",
	Short: "Show the pay period containing a date",
	RunE:  runPeriod,
}

func init() {
	periodCmd.Flags().StringVar(&flagAt, "at", "", "Date as YYYY-MM-DD (default today)")
	rootCmd.AddCommand(periodCmd)
}

func runPeriod(cmd *cobra.Command, _ []string) error {
	at := budget.Today()
	if flagAt != "" {
		parsed, err := budget.ParseDate(flagAt)
		if err != nil {
			return fmt.Errorf("--at: %w", err)
		}
		at = parsed
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	cycle, err := a.store.GetPayCycle(context.Background())
	if err != nil {
		return err
	}

	period := cycle.PeriodFor(at)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "  Pay cycle:  %s\n", describeCycle(cycle))
	fmt.Fprintf(out, "  Date:       %s\n", at)
	fmt.Fprintf(out, "  Period:     %s (%d days)\n", period, period.Length())
	fmt.Fprintf(out, "  Next:       %s\n", cycle.NextPeriod(period))
	if errors.Is(cycle.Validate(), budget.ErrMissingLastPayDate) {
		fmt.Fprintf(out, "\n  No last pay date set; using the monthly rule.\n")
	}
	return nil
}

func describeCycle(c budget.PayCycle) string {
	c = c.Normalize()
	switch {
	case c.Frequency == budget.PayMonthly:
		return fmt.Sprintf("monthly on day %d", c.DayOfMonth)
	case c.LastPayDate != nil:
		return fmt.Sprintf("%s, last paid %s", c.Frequency, *c.LastPayDate)
	default:
		return string(c.Frequency)
	}
}
