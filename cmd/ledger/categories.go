package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Veraticus/household-ledger/internal/cli"
	"github.com/Veraticus/household-ledger/internal/model"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category", "cat"},
		Short:   "Manage categories",
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(editCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())
	cmd.AddCommand(reorderCategoriesCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	var recent int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories in display order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			var categories []model.Category
			if recent > 0 {
				categories, err = a.ledger.RecentCategories(ctx, recent)
			} else {
				categories, err = a.ledger.Categories(ctx)
			}
			if err != nil {
				return err
			}

			currency := a.currency(ctx)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, strings.Join([]string{
				cli.HeaderStyle.Render("ID"),
				cli.HeaderStyle.Render("NAME"),
				cli.HeaderStyle.Render("TYPE"),
				cli.HeaderStyle.Render("BUDGET"),
				cli.HeaderStyle.Render("ICON"),
				cli.HeaderStyle.Render("COLOR"),
			}, "\t"))
			for _, c := range categories {
				budget := cli.SubtleStyle.Render("-")
				if c.Budget != nil {
					budget = cli.FormatAmount(*c.Budget, currency)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					cli.SubtleStyle.Render(c.ID), c.Name, c.Type, budget, c.Icon, c.Color)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&recent, "recent", 0, "show the N most recently used categories instead")
	return cmd
}

func addCategoryCmd() *cobra.Command {
	var (
		catType string
		icon    string
		color   string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a category",
		Example: `  ledger categories add Pets --icon paw --color "#F59E0B" --budget 8000
  ledger categories add Side-job --type income`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			t, err := parseCategoryType(catType)
			if err != nil {
				return err
			}
			budget, err := changedAmount(cmd, "budget")
			if err != nil {
				return err
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			cat, err := a.ledger.CreateCategory(ctx, model.Category{
				Name:   args[0],
				Icon:   icon,
				Color:  color,
				Type:   t,
				Budget: budget,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n",
				cli.FormatSuccess("Created category "+cat.Name),
				cli.SubtleStyle.Render(cat.ID))
			return nil
		},
	}

	cmd.Flags().StringVarP(&catType, "type", "t", string(model.CategoryTypeExpense), "expense, income or both")
	cmd.Flags().StringVar(&icon, "icon", "", "icon name")
	cmd.Flags().StringVar(&color, "color", "", "hex color such as #6366F1")
	cmd.Flags().String("budget", "", "default monthly budget")

	return cmd
}

func editCategoryCmd() *cobra.Command {
	var clearBudget bool

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			patch := model.CategoryPatch{
				Name:        changedString(cmd, "name"),
				Icon:        changedString(cmd, "icon"),
				Color:       changedString(cmd, "color"),
				ClearBudget: clearBudget,
			}
			var err error
			if patch.Budget, err = changedAmount(cmd, "budget"); err != nil {
				return err
			}
			if s := changedString(cmd, "type"); s != nil {
				t, err := parseCategoryType(*s)
				if err != nil {
					return err
				}
				patch.Type = &t
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			cat, err := a.ledger.UpdateCategory(ctx, args[0], patch)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Updated category "+cat.Name))
			return nil
		},
	}

	cmd.Flags().String("name", "", "new name")
	cmd.Flags().String("icon", "", "new icon")
	cmd.Flags().String("color", "", "new hex color")
	cmd.Flags().String("type", "", "expense, income or both")
	cmd.Flags().String("budget", "", "new default monthly budget")
	cmd.Flags().BoolVar(&clearBudget, "clear-budget", false, "remove the default monthly budget")
	cmd.MarkFlagsMutuallyExclusive("budget", "clear-budget")

	return cmd
}

func deleteCategoryCmd() *cobra.Command {
	var (
		reassign string
		yes      bool
	)

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category",
		Long: `Delete a category together with its monthly budgets. Transactions in the
category move to --reassign, or to "uncategorized" when it is not given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			cat, err := a.ledger.GetCategory(ctx, args[0])
			if err != nil {
				return err
			}

			if !yes {
				disposition := model.CategoryDisposition{ReassignTo: reassign}
				prompter := cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
				ok, err := prompter.Confirm(ctx, fmt.Sprintf("Delete %q and move its transactions to %q?", cat.Name, disposition.Target()))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Canceled"))
					return nil
				}
			}

			moved, err := a.ledger.DeleteCategory(ctx, cat.ID, model.CategoryDisposition{ReassignTo: reassign})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
				fmt.Sprintf("Deleted category %s (%d transaction(s) moved)", cat.Name, moved)))
			return nil
		},
	}

	cmd.Flags().StringVar(&reassign, "reassign", "", "category ID that receives the transactions")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")

	return cmd
}

func reorderCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <id>...",
		Short: "Set the display order of all categories",
		Long:  `Set the display order. Every category ID must be given exactly once.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.ledger.ReorderCategories(ctx, args); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Reordered %d categories", len(args))))
			return nil
		},
	}
}
