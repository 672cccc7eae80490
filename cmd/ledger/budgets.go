package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/household-ledger/internal/cli"
	"github.com/Veraticus/household-ledger/internal/model"
)

func budgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "budgets",
		Aliases: []string{"budget"},
		Short:   "Manage monthly budgets",
		Long: `A monthly budget overrides a category's default budget for one month.
The report compares each budgeted category's spending against its allocation.`,
	}

	cmd.AddCommand(setBudgetCmd())
	cmd.AddCommand(listBudgetsCmd())
	cmd.AddCommand(deleteBudgetCmd())
	cmd.AddCommand(budgetReportCmd())

	return cmd
}

func setBudgetCmd() *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:     "set <category-id> <amount>",
		Short:   "Set a category's budget for a month",
		Example: `  ledger budgets set food 30000 --month 2024-04`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			month = monthOrCurrent(month, time.Now())

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			budget, err := a.ledger.SetBudget(ctx, args[0], month, amount)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n",
				cli.FormatSuccess(fmt.Sprintf("Budget for %s in %s set to %s",
					budget.CategoryID, budget.Month, cli.FormatAmount(budget.Amount, a.currency(ctx)))),
				cli.SubtleStyle.Render(budget.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default: current month)")
	return cmd
}

func listBudgetsCmd() *cobra.Command {
	var (
		month string
		all   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List monthly budgets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if !all {
				month = monthOrCurrent(month, time.Now())
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			budgets, err := a.ledger.Budgets(ctx, month)
			if err != nil {
				return err
			}
			if len(budgets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.SubtitleStyle.Render("No monthly budgets set."))
				return nil
			}

			categories, err := a.ledger.Categories(ctx)
			if err != nil {
				return err
			}
			names := make(map[string]string, len(categories))
			for _, c := range categories {
				names[c.ID] = c.Name
			}

			currency := a.currency(ctx)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, strings.Join([]string{
				cli.HeaderStyle.Render("MONTH"),
				cli.HeaderStyle.Render("CATEGORY"),
				cli.HeaderStyle.Render("AMOUNT"),
				cli.HeaderStyle.Render("ID"),
			}, "\t"))
			for _, b := range budgets {
				name, ok := names[b.CategoryID]
				if !ok {
					name = model.UnknownCategoryName
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					b.Month, name, cli.FormatAmount(b.Amount, currency), cli.SubtleStyle.Render(b.ID))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default: current month)")
	cmd.Flags().BoolVar(&all, "all", false, "list budgets for every month")
	cmd.MarkFlagsMutuallyExclusive("month", "all")

	return cmd
}

func deleteBudgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <budget-id>",
		Short: "Delete a monthly budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.ledger.DeleteBudget(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted budget "+args[0]))
			return nil
		},
	}
}

func budgetReportCmd() *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Compare spending against budgets for a month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			month = monthOrCurrent(month, time.Now())

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.ledger.BudgetReport(ctx, month)
			if err != nil {
				return err
			}

			currency := a.currency(ctx)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("%s Budget report for %s", cli.ChartIcon, report.Month)))

			if len(report.Lines) > 0 {
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, strings.Join([]string{
					cli.HeaderStyle.Render("CATEGORY"),
					cli.HeaderStyle.Render("BUDGET"),
					cli.HeaderStyle.Render("SPENT"),
					cli.HeaderStyle.Render("REMAINING"),
				}, "\t"))
				for _, line := range report.Lines {
					allocated := cli.FormatAmount(line.Allocated, currency)
					if line.FromDefault {
						allocated += cli.SubtleStyle.Render(" (default)")
					}
					remaining := cli.SuccessStyle.Render(cli.FormatAmount(line.Remaining, currency))
					if line.Remaining < 0 {
						remaining = cli.ErrorStyle.Render(cli.FormatAmount(line.Remaining, currency))
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
						line.CategoryName, allocated, cli.FormatAmount(line.Spent, currency), remaining)
				}
				if err := w.Flush(); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(out, cli.SubtitleStyle.Render("No category budgets apply to this month."))
			}

			fmt.Fprintln(out)
			fmt.Fprintf(out, "Total spent: %s\n", cli.FormatAmount(report.TotalSpent, currency))
			if report.Ceiling != nil {
				msg := fmt.Sprintf("Monthly ceiling: %s", cli.FormatAmount(*report.Ceiling, currency))
				if report.OverCeiling() {
					fmt.Fprintln(out, cli.FormatWarning(msg+" (exceeded)"))
				} else {
					fmt.Fprintln(out, cli.FormatInfo(msg))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default: current month)")
	return cmd
}
