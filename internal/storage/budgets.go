package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/household-ledger/internal/common"
	"github.com/Veraticus/household-ledger/internal/model"
)

const budgetColumns = `id, category_id, month, amount, created_at, updated_at`

// AddBudget inserts a monthly budget.
func (s *SQLiteStorage) AddBudget(ctx context.Context, budget *model.Budget) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBudgetRecord(budget); err != nil {
		return err
	}
	_, err := insertBudgetTx(ctx, s.db, budget, false)
	return err
}

func insertBudgetTx(ctx context.Context, q queryable, b *model.Budget, ignoreExisting bool) (bool, error) {
	verb := "INSERT"
	if ignoreExisting {
		verb = "INSERT OR IGNORE"
	}

	res, err := q.ExecContext(ctx, verb+` INTO budgets (`+budgetColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.CategoryID, b.Month, b.Amount, utc(b.CreatedAt), utc(b.UpdatedAt))
	if err != nil {
		return false, mapWriteError(err, "budget", b.ID)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// GetBudget returns a budget by its ID.
func (s *SQLiteStorage) GetBudget(ctx context.Context, id string) (*model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getBudgetWhere(ctx, `id = ?`, id)
}

// GetBudgetFor returns the budget for a category in a month.
func (s *SQLiteStorage) GetBudgetFor(ctx context.Context, categoryID, month string) (*model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getBudgetWhere(ctx, `category_id = ? AND month = ?`, categoryID, month)
}

func (s *SQLiteStorage) getBudgetWhere(ctx context.Context, where string, args ...any) (*model.Budget, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE `+where+` ORDER BY rowid LIMIT 1`, args...)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: budget", common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query budget: %w", err)
	}
	return b, nil
}

// GetBudgets returns the budgets for month, or every budget when month is empty.
func (s *SQLiteStorage) GetBudgets(ctx context.Context, month string) ([]model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + budgetColumns + ` FROM budgets`
	var args []any
	if month != "" {
		query += ` WHERE month = ?`
		args = append(args, month)
	}
	query += ` ORDER BY month, rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer rows.Close()

	var budgets []model.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budgets: %w", err)
	}
	return budgets, nil
}

// UpdateBudget changes a budget's amount.
func (s *SQLiteStorage) UpdateBudget(ctx context.Context, budget *model.Budget) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBudgetRecord(budget); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `UPDATE budgets SET amount = ?, updated_at = ? WHERE id = ?`,
		budget.Amount, utc(budget.UpdatedAt), budget.ID)
	if err != nil {
		return fmt.Errorf("failed to update budget %s: %w", budget.ID, err)
	}
	return expectAffected(res, "budget", budget.ID)
}

// DeleteBudget removes a budget.
func (s *SQLiteStorage) DeleteBudget(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete budget %s: %w", id, err)
	}
	return expectAffected(res, "budget", id)
}

func scanBudget(row scanner) (*model.Budget, error) {
	var b model.Budget
	if err := row.Scan(&b.ID, &b.CategoryID, &b.Month, &b.Amount, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return &b, nil
}
