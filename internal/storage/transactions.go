package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/household-ledger/internal/common"
	"github.com/Veraticus/household-ledger/internal/model"
)

const transactionColumns = `id, amount, date, category_id, memo, receipt_image, type, created_at, updated_at, deleted_at`

// AddTransaction inserts a single transaction.
func (s *SQLiteStorage) AddTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransactionRecord(txn); err != nil {
		return err
	}
	return insertTransactionTx(ctx, s.db, txn, false)
}

// AddTransactions inserts transactions in one database transaction. Nothing
// is written if any insert fails.
func (s *SQLiteStorage) AddTransactions(ctx context.Context, txns []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	for i := range txns {
		if err := validateTransactionRecord(&txns[i]); err != nil {
			return fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}
	if len(txns) == 0 {
		return nil
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for i := range txns {
			if err := insertTransactionTx(ctx, tx, &txns[i], false); err != nil {
				return err
			}
		}
		return nil
	})
}

// insertTransactionTx writes one row. With ignoreExisting the insert is
// skipped when the id is taken, and the returned error is nil.
func insertTransactionTx(ctx context.Context, q queryable, txn *model.Transaction, ignoreExisting bool) error {
	_, err := insertTransactionResult(ctx, q, txn, ignoreExisting)
	return err
}

func insertTransactionResult(ctx context.Context, q queryable, txn *model.Transaction, ignoreExisting bool) (bool, error) {
	verb := "INSERT"
	if ignoreExisting {
		verb = "INSERT OR IGNORE"
	}

	res, err := q.ExecContext(ctx, verb+` INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID,
		txn.Amount,
		txn.Date,
		txn.CategoryID,
		txn.Memo,
		txn.ReceiptImage,
		string(txn.Type),
		utc(txn.CreatedAt),
		utc(txn.UpdatedAt),
		nullableTime(txn.DeletedAt),
	)
	if err != nil {
		return false, mapWriteError(err, "transaction", txn.ID)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// GetTransaction retrieves a transaction by ID, including trashed ones.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: transaction %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// UpdateTransaction replaces every column of the transaction with txn's values.
func (s *SQLiteStorage) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransactionRecord(txn); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET amount = ?, date = ?, category_id = ?, memo = ?, receipt_image = ?,
		    type = ?, updated_at = ?, deleted_at = ?
		WHERE id = ?`,
		txn.Amount,
		txn.Date,
		txn.CategoryID,
		txn.Memo,
		txn.ReceiptImage,
		string(txn.Type),
		utc(txn.UpdatedAt),
		nullableTime(txn.DeletedAt),
		txn.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", txn.ID, err)
	}
	return expectAffected(res, "transaction", txn.ID)
}

// DeleteTransaction physically removes a transaction.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", id, err)
	}
	return expectAffected(res, "transaction", id)
}

// DeleteTransactions physically removes the given transactions and reports
// how many existed.
func (s *SQLiteStorage) DeleteTransactions(ctx context.Context, ids []string) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	var deleted int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `DELETE FROM transactions WHERE id = ?`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, id := range ids {
			res, err := stmt.ExecContext(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to delete transaction %s: %w", id, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to read affected rows: %w", err)
			}
			deleted += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// GetAllTransactions returns every transaction, trashed ones included, in
// insertion order.
func (s *SQLiteStorage) GetAllTransactions(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryTransactions(ctx, `SELECT `+transactionColumns+` FROM transactions ORDER BY rowid`)
}

// QueryTransactions returns non-deleted transactions matching every set
// filter, in insertion order.
func (s *SQLiteStorage) QueryTransactions(ctx context.Context, query model.TransactionQuery) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	where := []string{"deleted_at IS NULL"}
	var args []any

	if query.From != "" {
		where = append(where, "date >= ?")
		args = append(args, query.From)
	}
	if query.To != "" {
		where = append(where, "date <= ?")
		args = append(args, query.To)
	}
	if len(query.CategoryIDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(query.CategoryIDs)), ",")
		where = append(where, "category_id IN ("+placeholders+")")
		for _, id := range query.CategoryIDs {
			args = append(args, id)
		}
	}
	if query.MinAmount != nil {
		where = append(where, "amount >= ?")
		args = append(args, *query.MinAmount)
	}
	if query.MaxAmount != nil {
		where = append(where, "amount <= ?")
		args = append(args, *query.MaxAmount)
	}
	if query.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(query.Type))
	}

	sqlQuery := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY rowid`

	txns, err := s.queryTransactions(ctx, sqlQuery, args...)
	if err != nil {
		return nil, err
	}
	slog.Debug("queried transactions", "count", len(txns), "filters", len(where)-1)
	return txns, nil
}

// GetDeletedTransactions returns the trash, most recently deleted first.
func (s *SQLiteStorage) GetDeletedTransactions(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryTransactions(ctx, `SELECT `+transactionColumns+` FROM transactions
		WHERE deleted_at IS NOT NULL
		ORDER BY deleted_at DESC, rowid`)
}

// GetTransactionsDeletedBefore returns trashed transactions whose deletion
// time is strictly before cutoff.
func (s *SQLiteStorage) GetTransactionsDeletedBefore(ctx context.Context, cutoff time.Time) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryTransactions(ctx, `SELECT `+transactionColumns+` FROM transactions
		WHERE deleted_at IS NOT NULL AND deleted_at < ?
		ORDER BY deleted_at, rowid`, utc(cutoff))
}

// GetRecentTransactions returns up to limit non-deleted transactions, most
// recently created first.
func (s *SQLiteStorage) GetRecentTransactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}
	return s.queryTransactions(ctx, `SELECT `+transactionColumns+` FROM transactions
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
}

// GetMonthlyTotals sums non-deleted transactions dated within [from, to].
func (s *SQLiteStorage) GetMonthlyTotals(ctx context.Context, from, to string) (*model.MonthlyStats, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var stats model.MonthlyStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN type = ? THEN amount END), 0),
			COALESCE(SUM(CASE WHEN type = ? THEN amount END), 0),
			COUNT(*)
		FROM transactions
		WHERE deleted_at IS NULL AND date >= ? AND date <= ?`,
		string(model.TypeIncome), string(model.TypeExpense), from, to,
	).Scan(&stats.Income, &stats.Expense, &stats.TransactionCount)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly totals: %w", err)
	}

	stats.Balance = stats.Income - stats.Expense
	return &stats, nil
}

// GetCategoryTotals groups non-deleted transactions dated within [from, to]
// by category, largest total first. Transactions whose category no longer
// exists are left out. An empty txnType includes both types.
func (s *SQLiteStorage) GetCategoryTotals(ctx context.Context, from, to string, txnType model.TransactionType) ([]model.CategoryStat, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT c.id, c.name, c.icon, c.color, SUM(t.amount) AS total, COUNT(*)
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.deleted_at IS NULL AND t.date >= ? AND t.date <= ?`
	args := []any{from, to}
	if txnType != "" {
		query += ` AND t.type = ?`
		args = append(args, string(txnType))
	}
	query += `
		GROUP BY c.id
		ORDER BY total DESC, c.sort_order ASC, c.id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query category totals: %w", err)
	}
	defer rows.Close()

	var stats []model.CategoryStat
	for rows.Next() {
		var st model.CategoryStat
		if err := rows.Scan(&st.CategoryID, &st.CategoryName, &st.Icon, &st.Color, &st.TotalAmount, &st.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category totals: %w", err)
	}
	return stats, nil
}

func (s *SQLiteStorage) queryTransactions(ctx context.Context, query string, args ...any) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txns []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txns, nil
}

func scanTransaction(row scanner) (*model.Transaction, error) {
	var (
		txn       model.Transaction
		txnType   string
		deletedAt sql.NullTime
	)
	err := row.Scan(
		&txn.ID,
		&txn.Amount,
		&txn.Date,
		&txn.CategoryID,
		&txn.Memo,
		&txn.ReceiptImage,
		&txnType,
		&txn.CreatedAt,
		&txn.UpdatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	txn.Type = model.TransactionType(txnType)
	txn.CreatedAt = txn.CreatedAt.UTC()
	txn.UpdatedAt = txn.UpdatedAt.UTC()
	txn.DeletedAt = timePtr(deletedAt)
	return &txn, nil
}
