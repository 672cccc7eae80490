package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/household-ledger/internal/common"
	"github.com/Veraticus/household-ledger/internal/model"
)

const categoryColumns = `id, name, icon, color, type, budget, sort_order, created_at, updated_at`

// GetCategories returns all categories in display order.
func (s *SQLiteStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY sort_order, rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, *cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}

// GetCategory returns a category by its ID.
func (s *SQLiteStorage) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	cat, err := scanCategory(s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: category %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return cat, nil
}

// AddCategory inserts a new category.
func (s *SQLiteStorage) AddCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategoryRecord(category); err != nil {
		return err
	}
	_, err := insertCategoryTx(ctx, s.db, category, false)
	return err
}

func insertCategoryTx(ctx context.Context, q queryable, cat *model.Category, ignoreExisting bool) (bool, error) {
	verb := "INSERT"
	if ignoreExisting {
		verb = "INSERT OR IGNORE"
	}

	res, err := q.ExecContext(ctx, verb+` INTO categories (`+categoryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cat.ID,
		cat.Name,
		cat.Icon,
		cat.Color,
		string(cat.Type),
		nullableInt(cat.Budget),
		cat.Order,
		utc(cat.CreatedAt),
		utc(cat.UpdatedAt),
	)
	if err != nil {
		return false, mapWriteError(err, "category", cat.ID)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// UpdateCategory overwrites a category's mutable fields.
func (s *SQLiteStorage) UpdateCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategoryRecord(category); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE categories
		SET name = ?, icon = ?, color = ?, type = ?, budget = ?, sort_order = ?, updated_at = ?
		WHERE id = ?`,
		category.Name,
		category.Icon,
		category.Color,
		string(category.Type),
		nullableInt(category.Budget),
		category.Order,
		utc(category.UpdatedAt),
		category.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update category %s: %w", category.ID, err)
	}
	return expectAffected(res, "category", category.ID)
}

// DeleteCategory moves every transaction referencing id (trashed ones
// included) to reassignTo, drops the category's monthly budgets and removes
// the category. All of it happens in one database transaction.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, id, reassignTo string) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(id, "id"); err != nil {
		return 0, err
	}
	if err := validateString(reassignTo, "reassignTo"); err != nil {
		return 0, err
	}

	var moved int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete category %s: %w", id, err)
		}
		if err := expectAffected(res, "category", id); err != nil {
			return err
		}

		res, err = tx.ExecContext(ctx, `UPDATE transactions SET category_id = ? WHERE category_id = ?`, reassignTo, id)
		if err != nil {
			return fmt.Errorf("failed to reassign transactions: %w", err)
		}
		if moved, err = res.RowsAffected(); err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM budgets WHERE category_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete budgets for category %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.Info("deleted category", "id", id, "reassigned_to", reassignTo, "transactions_moved", moved)
	return moved, nil
}

// ReorderCategories sets each listed category's order to its index in ids.
// Every id must exist.
func (s *SQLiteStorage) ReorderCategories(ctx context.Context, ids []string, updatedAt time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `UPDATE categories SET sort_order = ?, updated_at = ? WHERE id = ?`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for i, id := range ids {
			res, err := stmt.ExecContext(ctx, i, utc(updatedAt), id)
			if err != nil {
				return fmt.Errorf("failed to reorder category %s: %w", id, err)
			}
			if err := expectAffected(res, "category", id); err != nil {
				return err
			}
		}
		return nil
	})
}

// NextCategoryOrder returns one past the highest order in use.
func (s *SQLiteStorage) NextCategoryOrder(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var next int
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(sort_order) + 1, 0) FROM categories`).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to query category order: %w", err)
	}
	return next, nil
}

func scanCategory(row scanner) (*model.Category, error) {
	var (
		cat     model.Category
		catType string
		budget  sql.NullInt64
	)
	if err := row.Scan(
		&cat.ID,
		&cat.Name,
		&cat.Icon,
		&cat.Color,
		&catType,
		&budget,
		&cat.Order,
		&cat.CreatedAt,
		&cat.UpdatedAt,
	); err != nil {
		return nil, err
	}

	cat.Type = model.CategoryType(catType)
	cat.Budget = intPtr(budget)
	cat.CreatedAt = cat.CreatedAt.UTC()
	cat.UpdatedAt = cat.UpdatedAt.UTC()
	return &cat, nil
}
