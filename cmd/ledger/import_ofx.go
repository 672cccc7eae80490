package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Veraticus/household-ledger/internal/cli"
	"github.com/Veraticus/household-ledger/internal/common"
	"github.com/Veraticus/household-ledger/internal/model"
	"github.com/Veraticus/household-ledger/internal/ofx"
)

func importOFXCmd() *cobra.Command {
	var (
		categoryID string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "import-ofx <file>...",
		Short: "Import transactions from OFX/QFX bank statements",
		Long: `Import transactions from OFX or QFX files exported by a bank.

Withdrawals become expenses and deposits become income. Every transaction is
filed under --category (default "uncategorized"). Each transaction gets an ID
derived from its account and bank reference, so importing the same statement
twice adds nothing.`,
		Example: `  ledger import-ofx ~/Downloads/statement.ofx
  ledger import-ofx ~/Downloads/*.qfx --category daily-goods
  ledger import-ofx march.ofx --dry-run`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			files, err := expandPatterns(args)
			if err != nil {
				return err
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if categoryID != "" {
				if _, err := a.ledger.GetCategory(ctx, categoryID); err != nil {
					return fmt.Errorf("category %q: %w", categoryID, err)
				}
			}

			parser := ofx.NewParser(ofx.WithCategory(categoryID))
			out := cmd.OutOrStdout()

			bar := progressbar.NewOptions(len(files),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("[cyan][bold]Reading statements...[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					if _, err := fmt.Fprintln(cmd.ErrOrStderr()); err != nil {
						slog.Warn("failed to write newline after progress bar", "error", err)
					}
				}),
			)

			var (
				all     []model.Transaction
				seen    = make(map[string]bool)
				skipped int
				failed  int
			)
			for _, path := range files {
				stmt, err := parseStatement(ctx, parser, path)
				if err != nil {
					common.LogError(err, "failed to parse statement", common.Fields{"file": path})
					failed++
				} else {
					skipped += stmt.Skipped
					for _, txn := range stmt.Transactions {
						if seen[txn.ID] {
							continue
						}
						seen[txn.ID] = true
						all = append(all, txn)
					}
					slog.Debug("parsed statement",
						"file", filepath.Base(path),
						"accounts", stmt.Accounts,
						"transactions", len(stmt.Transactions),
						"skipped", stmt.Skipped)
				}
				if err := bar.Add(1); err != nil {
					slog.Debug("failed to update progress bar", "error", err)
				}
			}

			if len(all) == 0 {
				fmt.Fprintln(out, cli.FormatWarning("No transactions found"))
				return nil
			}

			if dryRun {
				views, err := a.ledger.Describe(ctx, all)
				if err != nil {
					return err
				}
				writeTransactions(out, views, a.currency(ctx))
				fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Dry run: %d transaction(s) not saved", len(all))))
				return nil
			}

			counts, err := a.ledger.ImportTransactions(ctx, all)
			if err != nil {
				return err
			}

			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d transaction(s), %d already present",
				counts.TransactionsAdded, counts.TransactionsSkipped)))
			if skipped > 0 {
				fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%d entries with unusable amounts were ignored", skipped)))
			}
			if failed > 0 {
				fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d file(s) could not be read", failed)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&categoryID, "category", "c", "", "category ID for imported transactions")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "show what would be imported without saving")

	return cmd
}

func parseStatement(ctx context.Context, parser *ofx.Parser, path string) (*ofx.Statement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("failed to close statement", "file", path, "error", err)
		}
	}()

	return parser.ParseFile(ctx, f)
}

// expandPatterns resolves glob patterns to a sorted, de-duplicated file
// list. A pattern that matches nothing is used as a literal path if it
// exists.
func expandPatterns(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err != nil {
				slog.Warn("no files found matching pattern", "pattern", pattern)
				continue
			}
			matches = []string{pattern}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}

	if len(files) == 0 {
		return nil, errors.New("no files found to import")
	}
	sort.Strings(files)
	return files, nil
}
