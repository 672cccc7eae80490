package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/household-ledger/internal/cli"
)

func checkpointCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Manage database checkpoints",
		Long: `Checkpoints are consistent copies of the ledger database. One is taken
automatically before every overwrite import; create your own before risky
changes.`,
	}

	cmd.AddCommand(createCheckpointCmd())
	cmd.AddCommand(listCheckpointsCmd())
	cmd.AddCommand(deleteCheckpointCmd())

	return cmd
}

func createCheckpointCmd() *cobra.Command {
	var (
		tag         string
		description string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a checkpoint of the current database",
		Example: `  ledger checkpoint create
  ledger checkpoint create --tag before-cleanup --description "before deleting old categories"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			manager, err := a.store.Checkpoints()
			if err != nil {
				return err
			}

			info, err := manager.Create(ctx, tag, description)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Checkpoint created: %s", info.ID)))
			fmt.Fprintf(out, "  Size:         %s\n", formatFileSize(info.FileSize))
			fmt.Fprintf(out, "  Transactions: %d\n", info.RowCounts["transactions"])
			fmt.Fprintf(out, "  Categories:   %d\n", info.RowCounts["categories"])
			return nil
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "checkpoint name (default: timestamp)")
	cmd.Flags().StringVarP(&description, "description", "m", "", "note stored with the checkpoint")

	return cmd
}

func listCheckpointsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List checkpoints, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			manager, err := a.store.Checkpoints()
			if err != nil {
				return err
			}

			checkpoints, err := manager.List(ctx)
			if err != nil {
				return err
			}
			if len(checkpoints) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.SubtitleStyle.Render("No checkpoints in "+manager.Dir()))
				return nil
			}

			now := time.Now()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, strings.Join([]string{
				cli.HeaderStyle.Render("ID"),
				cli.HeaderStyle.Render("CREATED"),
				cli.HeaderStyle.Render("SIZE"),
				cli.HeaderStyle.Render("TRANSACTIONS"),
				cli.HeaderStyle.Render("CATEGORIES"),
				cli.HeaderStyle.Render("TYPE"),
			}, "\t"))
			for _, cp := range checkpoints {
				kind := "manual"
				if cp.IsAuto {
					kind = "auto"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
					cp.ID,
					relativeTime(cp.CreatedAt, now),
					formatFileSize(cp.FileSize),
					cp.RowCounts["transactions"],
					cp.RowCounts["categories"],
					cli.SubtitleStyle.Render(kind))
			}
			return w.Flush()
		},
	}
}

func deleteCheckpointCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <tag>",
		Short: "Delete a checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			manager, err := a.store.Checkpoints()
			if err != nil {
				return err
			}
			if err := manager.Delete(ctx, args[0]); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted checkpoint "+args[0]))
			return nil
		},
	}
}

func formatRelativeTime(t time.Time) string {
	return relativeTime(t, time.Now())
}

func relativeTime(t, now time.Time) string {
	d := now.Sub(t)

	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d.Minutes()), "minute") + " ago"
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour") + " ago"
	case d < 48*time.Hour:
		return "yesterday"
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(d.Hours()/24))
	default:
		return t.Local().Format("2006-01-02 15:04")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
