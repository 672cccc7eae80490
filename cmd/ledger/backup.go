package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/household-ledger/internal/backup"
	"github.com/Veraticus/household-ledger/internal/cli"
	"github.com/Veraticus/household-ledger/internal/storage"
)

func exportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every record to a JSON backup",
		Long: `Write transactions (including the trash), categories, settings and monthly
budgets to a single JSON document that "ledger import" can read back.`,
		Example: `  ledger export --output backup.json
  ledger export > backup.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := backup.NewManager(a.store).Export(ctx)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				return backup.WriteTo(cmd.OutOrStdout(), snap)
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			if err := backup.WriteTo(f, snap); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to close %s: %w", output, err)
			}

			fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess(fmt.Sprintf(
				"Exported %d transactions, %d categories and %d budgets to %s",
				len(snap.Data.Transactions), len(snap.Data.Categories), len(snap.Data.Budgets), output)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func importCmd() *cobra.Command {
	var (
		modeFlag string
		yes      bool
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a JSON backup",
		Long: `Import a backup written by "ledger export".

In merge mode (the default) records whose ID already exists are skipped and
categories are matched by name. In overwrite mode the whole ledger is
replaced; a checkpoint is taken first so the previous state can be recovered.`,
		Example: `  ledger import backup.json
  ledger import backup.json --mode overwrite --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			mode, err := backup.ParseMode(modeFlag)
			if err != nil {
				return err
			}

			snap, err := readSnapshot(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			var opts []backup.Option
			if mode == backup.ModeOverwrite {
				if !yes {
					prompter := cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
					ok, err := prompter.Confirm(ctx, "Replace the entire ledger with this backup?")
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Canceled"))
						return nil
					}
				}

				checkpoints, err := a.store.Checkpoints()
				switch {
				case err == nil:
					opts = append(opts, backup.WithCheckpointer(checkpoints))
				case errors.Is(err, storage.ErrCheckpointUnsupported):
					slog.Warn("importing without a checkpoint", "error", err)
				default:
					return err
				}
			}

			result, err := backup.NewManager(a.store, opts...).Import(ctx, snap, mode)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %s (%s)", args[0], result.Mode)))
			fmt.Fprintf(out, "  Transactions: %d added, %d skipped\n", result.TransactionsAdded, result.TransactionsSkipped)
			fmt.Fprintf(out, "  Categories:   %d added, %d skipped\n", result.CategoriesAdded, result.CategoriesSkipped)
			fmt.Fprintf(out, "  Budgets:      %d added, %d skipped\n", result.BudgetsAdded, result.BudgetsSkipped)
			if result.SettingsApplied {
				fmt.Fprintln(out, "  Settings:     replaced")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&modeFlag, "mode", string(backup.ModeMerge), "merge or overwrite")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the overwrite confirmation")

	return cmd
}

// readSnapshot reads a backup from path, or from stdin when path is "-".
func readSnapshot(path string, stdin io.Reader) (*backup.Snapshot, error) {
	if path == "-" {
		return backup.Read(stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("failed to close backup file", "path", path, "error", err)
		}
	}()

	return backup.Read(f)
}
