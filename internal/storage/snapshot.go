package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/household-ledger/internal/model"
)

// ReplaceAll clears transactions, categories and budgets and inserts the
// dataset in their place. Settings are replaced in place when the dataset
// carries exactly one record and are otherwise left alone. The whole
// operation is one database transaction.
func (s *SQLiteStorage) ReplaceAll(ctx context.Context, data *model.Dataset) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if data == nil {
		return fmt.Errorf("%w: dataset", ErrNilParameter)
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"transactions", "categories", "budgets"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}

		for i := range data.Categories {
			if _, err := insertCategoryTx(ctx, tx, &data.Categories[i], false); err != nil {
				return err
			}
		}
		for i := range data.Transactions {
			if err := insertTransactionTx(ctx, tx, &data.Transactions[i], false); err != nil {
				return err
			}
		}
		for i := range data.Budgets {
			if _, err := insertBudgetTx(ctx, tx, &data.Budgets[i], false); err != nil {
				return err
			}
		}

		if len(data.Settings) == 1 {
			return saveSettingsTx(ctx, tx, &data.Settings[0])
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("replaced dataset",
		"transactions", len(data.Transactions),
		"categories", len(data.Categories),
		"budgets", len(data.Budgets))
	return nil
}

// MergeAll inserts the dataset without clearing anything. A record whose id
// already exists is skipped. An incoming category whose name matches an
// existing one (ignoring case) is skipped as well, and the dataset's
// transactions and budgets pointing at it are moved to the existing id.
// Budgets are also skipped when their category already has one for the month.
func (s *SQLiteStorage) MergeAll(ctx context.Context, data *model.Dataset) (*model.MergeCounts, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%w: dataset", ErrNilParameter)
	}

	var counts model.MergeCounts
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		byName, err := existingCategoryNames(ctx, tx)
		if err != nil {
			return err
		}

		remap := make(map[string]string)
		for i := range data.Categories {
			cat := data.Categories[i]
			if existingID, ok := byName[strings.ToLower(strings.TrimSpace(cat.Name))]; ok && existingID != cat.ID {
				remap[cat.ID] = existingID
				counts.CategoriesSkipped++
				continue
			}

			inserted, err := insertCategoryTx(ctx, tx, &cat, true)
			if err != nil {
				return err
			}
			if !inserted {
				counts.CategoriesSkipped++
				continue
			}
			byName[strings.ToLower(strings.TrimSpace(cat.Name))] = cat.ID
			counts.CategoriesAdded++
		}

		for i := range data.Transactions {
			txn := data.Transactions[i]
			if target, ok := remap[txn.CategoryID]; ok {
				txn.CategoryID = target
			}
			inserted, err := insertTransactionResult(ctx, tx, &txn, true)
			if err != nil {
				return err
			}
			if inserted {
				counts.TransactionsAdded++
			} else {
				counts.TransactionsSkipped++
			}
		}

		for i := range data.Budgets {
			b := data.Budgets[i]
			if target, ok := remap[b.CategoryID]; ok {
				b.CategoryID = target
			}

			var taken int
			if err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM budgets WHERE category_id = ? AND month = ?`,
				b.CategoryID, b.Month,
			).Scan(&taken); err != nil {
				return fmt.Errorf("failed to check budget %s: %w", b.ID, err)
			}
			if taken > 0 {
				counts.BudgetsSkipped++
				continue
			}

			inserted, err := insertBudgetTx(ctx, tx, &b, true)
			if err != nil {
				return err
			}
			if inserted {
				counts.BudgetsAdded++
			} else {
				counts.BudgetsSkipped++
			}
		}

		if len(data.Settings) == 1 {
			return saveSettingsTx(ctx, tx, &data.Settings[0])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("merged dataset",
		"transactions_added", counts.TransactionsAdded,
		"transactions_skipped", counts.TransactionsSkipped,
		"categories_added", counts.CategoriesAdded,
		"categories_skipped", counts.CategoriesSkipped,
		"budgets_added", counts.BudgetsAdded,
		"budgets_skipped", counts.BudgetsSkipped)
	return &counts, nil
}

// existingCategoryNames maps lowercased category names to their ids.
func existingCategoryNames(ctx context.Context, q queryable) (map[string]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name FROM categories`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	names := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		names[strings.ToLower(strings.TrimSpace(name))] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return names, nil
}
