package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"budget/internal/alert"
	"budget/internal/cli"
	"budget/internal/core"
	"budget/internal/services"
)

var (
	flagRecent   int
	flagDate     string
	flagCategory string
	flagSource   string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Totals, category breakdown, goals and recent expenses",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

var incomeCmd = &cobra.Command{
	Use:   "income",
	Short: "Record income",
}

var incomeAddCmd = &cobra.Command{
	Use:   "add NAME AMOUNT",
	Short: "Add an income record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := core.ParseAmount("amount", args[1])
		if err != nil {
			return err
		}
		date, err := core.ParseDate(flagDate)
		if err != nil {
			return err
		}
		res, err := current.ledger.AddIncome(cmd.Context(), args[0], amount, date)
		if err != nil {
			return err
		}
		return printResult(cmd, res, "Income added.")
	},
}

var expenseCmd = &cobra.Command{
	Use:   "expense",
	Short: "Record, list and delete expenses",
}

var expenseAddCmd = &cobra.Command{
	Use:   "add NAME AMOUNT",
	Short: "Add an expense",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := core.ParseAmount("amount", args[1])
		if err != nil {
			return err
		}
		date, err := core.ParseDate(flagDate)
		if err != nil {
			return err
		}
		res, err := current.ledger.AddExpense(cmd.Context(), core.ExpenseInput{
			Name:     args[0],
			Amount:   amount,
			Category: flagCategory,
			Date:     date,
			Source:   flagSource,
		})
		if err != nil {
			return err
		}
		return printResult(cmd, res, "Expense added.")
	},
}

var expenseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every expense, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		list, err := current.ledger.Expenses(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), cli.RenderExpenses("Expenses", list))
		return nil
	},
}

var expenseDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete an expense by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := current.ledger.DeleteExpense(cmd.Context(), strings.TrimSpace(args[0]))
		if err != nil {
			return err
		}
		return printResult(cmd, res, "Expense deleted.")
	},
}

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Manage savings goals",
}

var goalAddCmd = &cobra.Command{
	Use:   "add NAME TARGET",
	Short: "Add a savings goal",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := core.ParseAmount("target", args[1])
		if err != nil {
			return err
		}
		res, err := current.ledger.AddGoal(cmd.Context(), args[0], target)
		if err != nil {
			return err
		}
		return printResult(cmd, res, "Goal added.")
	},
}

var goalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List goals with their progress",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		goals, err := current.ledger.Goals(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), cli.RenderGoals(goals))
		return nil
	},
}

var goalContributeCmd = &cobra.Command{
	Use:   "contribute ID AMOUNT",
	Short: "Move money into a goal (recorded as an expense)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := core.ParseAmount("amount", args[1])
		if err != nil {
			return err
		}
		res, err := current.ledger.ContributeToGoal(cmd.Context(), args[0], amount)
		if err != nil {
			return err
		}
		return printResult(cmd, res, "Contribution recorded.")
	},
}

var thresholdCmd = &cobra.Command{
	Use:   "threshold",
	Short: "Low-balance alert threshold",
}

var thresholdSetCmd = &cobra.Command{
	Use:   "set VALUE",
	Short: "Set the alert threshold; the alert fires when the balance drops below it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := core.ParseThreshold(args[0])
		if err != nil {
			return err
		}
		res, err := current.ledger.SetAlertThreshold(cmd.Context(), value)
		if err != nil {
			return err
		}
		return printResult(cmd, res, "Threshold updated.")
	},
}

var alertCmd = &cobra.Command{
	Use:   "alert",
	Short: "Show the current alert state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ev, err := current.ledger.EvaluateAlert(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), cli.RenderAlert(ev))
		return nil
	},
}

func init() {
	summaryCmd.Flags().IntVar(&flagRecent, "recent", 0, "Number of recent expenses (defaults to RECENT_EXPENSES)")

	for _, c := range []*cobra.Command{incomeAddCmd, expenseAddCmd} {
		c.Flags().StringVar(&flagDate, "date", "", "Date as YYYY-MM-DD (defaults to today)")
	}
	expenseAddCmd.Flags().StringVarP(&flagCategory, "category", "c", "", "Expense category")
	expenseAddCmd.Flags().StringVarP(&flagSource, "source", "s", "", "Payment source")

	incomeCmd.AddCommand(incomeAddCmd)
	expenseCmd.AddCommand(expenseAddCmd, expenseListCmd, expenseDeleteCmd)
	goalCmd.AddCommand(goalAddCmd, goalListCmd, goalContributeCmd)
	thresholdCmd.AddCommand(thresholdSetCmd)

	rootCmd.AddCommand(summaryCmd, incomeCmd, expenseCmd, goalCmd, thresholdCmd, alertCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	recent := flagRecent
	if recent <= 0 {
		recent = current.cfg.RecentExpenses
	}
	sum, err := current.ledger.Summary(cmd.Context(), recent)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprint(out, cli.RenderSummary(sum))

	ev, err := current.ledger.EvaluateAlert(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(out, cli.RenderAlert(ev))
	return nil
}

func printResult(cmd *cobra.Command, res services.Result, msg string) error {
	out := cmd.OutOrStdout()
	t := core.ComputeTotals(res.Ledger)
	fmt.Fprintf(out, "%s Balance: %s\n", msg, t.CurrentBalance.Dollars())
	if res.Alert.State == alert.LowBalance {
		fmt.Fprintln(out, cli.RenderAlert(res.Alert))
	}
	return nil
}
