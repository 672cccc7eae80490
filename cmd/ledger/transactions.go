package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/household-ledger/internal/cli"
	"github.com/Veraticus/household-ledger/internal/model"
)

func addCmd() *cobra.Command {
	var (
		txnType    string
		date       string
		categoryID string
		memo       string
	)

	cmd := &cobra.Command{
		Use:   "add <amount>",
		Short: "Record an income or expense",
		Example: `  ledger add 1200 --category food --memo lunch
  ledger add 250000 --type income --category salary --date 2024-03-25`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			t, err := parseType(txnType)
			if err != nil {
				return err
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			txn, err := a.ledger.AddTransaction(ctx, model.Transaction{
				Amount:     amount,
				Date:       todayOr(date, time.Now()),
				CategoryID: categoryID,
				Memo:       memo,
				Type:       t,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n",
				cli.FormatSuccess("Added"),
				cli.FormatSigned(txn.Amount, txn.Type == model.TypeIncome, a.currency(ctx)),
				cli.SubtleStyle.Render(txn.ID))
			return nil
		},
	}

	cmd.Flags().StringVarP(&txnType, "type", "t", string(model.TypeExpense), "expense or income")
	cmd.Flags().StringVarP(&date, "date", "d", "", "date as YYYY-MM-DD (default: today)")
	cmd.Flags().StringVarP(&categoryID, "category", "c", "", "category ID")
	cmd.Flags().StringVarP(&memo, "memo", "m", "", "free-text note")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func listCmd() *cobra.Command {
	var (
		from, to, month string
		categories      string
		txnType         string
		memo            string
		sortBy          string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		Long:  `List transactions that are not in the trash. Filters combine; the default order is newest date first.`,
		Example: `  ledger list --month 2024-03
  ledger list --category food,transport --sort -amount
  ledger list --memo cafe --min 500`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			filter := model.TransactionFilter{
				TransactionQuery: model.TransactionQuery{
					From:        from,
					To:          to,
					CategoryIDs: splitList(categories),
				},
				Memo: memo,
			}
			if month != "" {
				if err := model.ValidateMonth(month); err != nil {
					return err
				}
				filter.From, filter.To = model.MonthRange(month)
			}
			if txnType != "" {
				t, err := parseType(txnType)
				if err != nil {
					return err
				}
				filter.Type = t
			}
			var err error
			if filter.MinAmount, err = changedAmount(cmd, "min"); err != nil {
				return err
			}
			if filter.MaxAmount, err = changedAmount(cmd, "max"); err != nil {
				return err
			}
			spec, err := parseSort(sortBy)
			if err != nil {
				return err
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			txns, err := a.ledger.ListTransactions(ctx, filter, spec)
			if err != nil {
				return err
			}
			if len(txns) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.SubtitleStyle.Render("No transactions found."))
				return nil
			}

			views, err := a.ledger.Describe(ctx, txns)
			if err != nil {
				return err
			}
			writeTransactions(cmd.OutOrStdout(), views, a.currency(ctx))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first date, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last date, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&month, "month", "", "restrict to a month (YYYY-MM)")
	cmd.Flags().StringVarP(&categories, "category", "c", "", "comma-separated category IDs")
	cmd.Flags().StringVarP(&txnType, "type", "t", "", "expense or income")
	cmd.Flags().String("min", "", "minimum amount, inclusive")
	cmd.Flags().String("max", "", "maximum amount, inclusive")
	cmd.Flags().StringVarP(&memo, "memo", "m", "", "case-insensitive memo search")
	cmd.Flags().StringVarP(&sortBy, "sort", "s", "", "date, amount, createdAt or category; prefix with - for descending")

	return cmd
}

func writeTransactions(out io.Writer, views []model.TransactionView, currency string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join([]string{
		cli.HeaderStyle.Render("DATE"),
		cli.HeaderStyle.Render("AMOUNT"),
		cli.HeaderStyle.Render("CATEGORY"),
		cli.HeaderStyle.Render("MEMO"),
		cli.HeaderStyle.Render("ID"),
	}, "\t"))

	for _, v := range views {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			v.Date,
			cli.FormatSigned(v.Amount, v.Type == model.TypeIncome, currency),
			v.CategoryName,
			shorten(v.Memo, 40),
			cli.SubtleStyle.Render(v.ID))
	}
	_ = w.Flush()
}

func editCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a transaction",
		Example: `  ledger edit 6f1c... --amount 1500
  ledger edit 6f1c... --category transport --memo "taxi home"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			patch := model.TransactionPatch{
				Date:         changedString(cmd, "date"),
				CategoryID:   changedString(cmd, "category"),
				Memo:         changedString(cmd, "memo"),
				ReceiptImage: changedString(cmd, "receipt"),
			}
			var err error
			if patch.Amount, err = changedAmount(cmd, "amount"); err != nil {
				return err
			}
			if s := changedString(cmd, "type"); s != nil {
				t, err := parseType(*s)
				if err != nil {
					return err
				}
				patch.Type = &t
			}
			if patch.IsEmpty() {
				return fmt.Errorf("nothing to change: pass at least one flag")
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			txn, err := a.ledger.UpdateTransaction(ctx, args[0], patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", cli.FormatSuccess("Updated"), cli.SubtleStyle.Render(txn.ID))
			return nil
		},
	}

	cmd.Flags().String("amount", "", "new amount")
	cmd.Flags().String("date", "", "new date (YYYY-MM-DD)")
	cmd.Flags().String("category", "", "new category ID")
	cmd.Flags().String("memo", "", "new memo")
	cmd.Flags().String("type", "", "expense or income")
	cmd.Flags().String("receipt", "", "receipt image as a data URI")

	return cmd
}

func deleteCmd() *cobra.Command {
	var permanent bool

	cmd := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Move transactions to the trash",
		Long: `Move transactions to the trash. Trashed transactions are hidden everywhere
and removed for good once their retention period ends. With --permanent,
transactions already in the trash are removed immediately.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			for _, id := range args {
				if permanent {
					if err := a.ledger.DeletePermanently(ctx, id); err != nil {
						return fmt.Errorf("%s: %w", id, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", cli.FormatSuccess("Deleted permanently"), id)
					continue
				}

				if _, err := a.ledger.SoftDelete(ctx, id); err != nil {
					return fmt.Errorf("%s: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", cli.TrashIcon, "Moved to trash", cli.SubtleStyle.Render(id))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&permanent, "permanent", false, "remove trashed transactions immediately")
	return cmd
}

func restoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>...",
		Short: "Bring transactions back from the trash",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			for _, id := range args {
				if _, err := a.ledger.Restore(ctx, id); err != nil {
					return fmt.Errorf("%s: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", cli.FormatSuccess("Restored"), id)
			}
			return nil
		},
	}
}

func trashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trash",
		Short: "List trashed transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			items, err := a.ledger.Trash(ctx)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.SubtitleStyle.Render("The trash is empty."))
				return nil
			}

			currency := a.currency(ctx)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, strings.Join([]string{
				cli.HeaderStyle.Render("DELETED"),
				cli.HeaderStyle.Render("DAYS LEFT"),
				cli.HeaderStyle.Render("DATE"),
				cli.HeaderStyle.Render("AMOUNT"),
				cli.HeaderStyle.Render("MEMO"),
				cli.HeaderStyle.Render("ID"),
			}, "\t"))
			for _, item := range items {
				days := fmt.Sprintf("%d", item.DaysRemaining)
				if item.DaysRemaining <= 3 {
					days = cli.WarningStyle.Render(days)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					item.DeletedAt.Local().Format("2006-01-02 15:04"),
					days,
					item.Date,
					cli.FormatSigned(item.Amount, item.Type == model.TypeIncome, currency),
					shorten(item.Memo, 30),
					cli.SubtleStyle.Render(item.ID))
			}
			return w.Flush()
		},
	}
}

func purgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Remove trashed transactions past their retention period",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.ledger.PurgeExpired(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Purged %d transaction(s)", n)))
			return nil
		},
	}
}
