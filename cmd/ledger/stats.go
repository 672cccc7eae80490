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

func statsCmd() *cobra.Command {
	var (
		month   string
		txnType string
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show monthly totals and a per-category breakdown",
		Example: `  ledger stats
  ledger stats --month 2024-03 --type income`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			month = monthOrCurrent(month, time.Now())

			var t model.TransactionType
			if txnType != "" {
				parsed, err := parseType(txnType)
				if err != nil {
					return err
				}
				t = parsed
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.ledger.MonthlyStats(ctx, month)
			if err != nil {
				return err
			}
			breakdown, err := a.ledger.CategoryStats(ctx, month, t)
			if err != nil {
				return err
			}

			currency := a.currency(ctx)
			out := cmd.OutOrStdout()

			balance := cli.IncomeStyle.Render(cli.FormatAmount(stats.Balance, currency))
			if stats.Balance < 0 {
				balance = cli.ExpenseStyle.Render(cli.FormatAmount(stats.Balance, currency))
			}
			summary := strings.Join([]string{
				fmt.Sprintf("Income:        %s", cli.IncomeStyle.Render(cli.FormatAmount(stats.Income, currency))),
				fmt.Sprintf("Expense:       %s", cli.ExpenseStyle.Render(cli.FormatAmount(stats.Expense, currency))),
				fmt.Sprintf("Balance:       %s", balance),
				fmt.Sprintf("Transactions:  %d", stats.TransactionCount),
			}, "\n")
			fmt.Fprintln(out, cli.RenderBox(fmt.Sprintf("%s %s", cli.ChartIcon, stats.Month), summary))

			if len(breakdown) == 0 {
				return nil
			}

			var total int64
			for _, s := range breakdown {
				total += s.TotalAmount
			}

			fmt.Fprintln(out)
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, strings.Join([]string{
				cli.HeaderStyle.Render("CATEGORY"),
				cli.HeaderStyle.Render("TOTAL"),
				cli.HeaderStyle.Render("SHARE"),
				cli.HeaderStyle.Render("COUNT"),
			}, "\t"))
			for _, s := range breakdown {
				share := 0.0
				if total > 0 {
					share = float64(s.TotalAmount) / float64(total) * 100
				}
				fmt.Fprintf(w, "%s\t%s\t%5.1f%%\t%d\n",
					s.CategoryName,
					cli.FormatAmount(s.TotalAmount, currency),
					share,
					s.Count)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default: current month)")
	cmd.Flags().StringVarP(&txnType, "type", "t", "", "restrict the breakdown to expense or income")

	return cmd
}

func logCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the most recent changes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.audit.Recent(ctx, limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.SubtitleStyle.Render("No changes recorded."))
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, strings.Join([]string{
				cli.HeaderStyle.Render("WHEN"),
				cli.HeaderStyle.Render("ACTION"),
				cli.HeaderStyle.Render("ENTITY"),
				cli.HeaderStyle.Render("ID"),
			}, "\t"))
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					formatRelativeTime(e.Timestamp),
					actionStyle(e.Action),
					e.EntityType,
					cli.SubtleStyle.Render(e.EntityID))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show")
	return cmd
}

func actionStyle(action model.Action) string {
	switch action {
	case model.ActionCreate, model.ActionRestore:
		return cli.SuccessStyle.Render(string(action))
	case model.ActionDelete:
		return cli.ErrorStyle.Render(string(action))
	default:
		return cli.InfoStyle.Render(string(action))
	}
}

func maintainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "maintain",
		Short: "Purge expired trash and trim the action log",
		Long: `Run the housekeeping that also happens on every start: trashed transactions
past their retention period are removed and the action log is trimmed to
its configured size.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.ledger.RunMaintenance(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatSuccess("Maintenance complete"))
			fmt.Fprintf(out, "  Purged from trash:   %d\n", report.Purged)
			fmt.Fprintf(out, "  Log entries trimmed: %d\n", report.AuditTrimmed)
			return nil
		},
	}
}
