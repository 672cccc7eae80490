package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/household-ledger/internal/common"
	"github.com/Veraticus/household-ledger/internal/model"
)

func TestSQLiteStorage_TransactionCRUD(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	txn := makeTestTransaction(1, 1500, "2024-03-05", "food", model.TypeExpense)
	require.NoError(t, store.AddTransaction(ctx, &txn))

	got, err := store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, txn.Amount, got.Amount)
	assert.Equal(t, txn.Date, got.Date)
	assert.Equal(t, txn.Memo, got.Memo)
	assert.Equal(t, model.TypeExpense, got.Type)
	assert.True(t, txn.CreatedAt.Equal(got.CreatedAt))
	assert.Nil(t, got.DeletedAt)

	deletedAt := testBaseTime.Add(time.Hour)
	got.Amount = 2000
	got.DeletedAt = &deletedAt
	got.UpdatedAt = deletedAt
	require.NoError(t, store.UpdateTransaction(ctx, got))

	updated, err := store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), updated.Amount)
	require.NotNil(t, updated.DeletedAt)
	assert.True(t, deletedAt.Equal(*updated.DeletedAt))

	require.NoError(t, store.DeleteTransaction(ctx, txn.ID))
	_, err = store.GetTransaction(ctx, txn.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, store.DeleteTransaction(ctx, txn.ID), common.ErrNotFound)
}

func TestSQLiteStorage_TransactionDuplicateID(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	txn := makeTestTransaction(1, 100, "2024-03-01", "food", model.TypeExpense)
	require.NoError(t, store.AddTransaction(ctx, &txn))

	err := store.AddTransaction(ctx, &txn)
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)
}

func TestSQLiteStorage_TransactionBatchOperations(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	batch := []model.Transaction{
		makeTestTransaction(1, 100, "2024-03-01", "food", model.TypeExpense),
		makeTestTransaction(2, 200, "2024-03-02", "food", model.TypeExpense),
		makeTestTransaction(3, 300, "2024-03-03", "food", model.TypeExpense),
	}
	require.NoError(t, store.AddTransactions(ctx, batch))

	all, err := store.GetAllTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// A failing batch writes nothing.
	bad := []model.Transaction{
		makeTestTransaction(4, 400, "2024-03-04", "food", model.TypeExpense),
		makeTestTransaction(1, 100, "2024-03-01", "food", model.TypeExpense),
	}
	assert.ErrorIs(t, store.AddTransactions(ctx, bad), common.ErrDuplicateEntry)
	_, err = store.GetTransaction(ctx, "txn-004")
	assert.ErrorIs(t, err, common.ErrNotFound)

	deleted, err := store.DeleteTransactions(ctx, []string{"txn-001", "txn-002", "missing"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
}

func TestSQLiteStorage_TransactionFiltering(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	deletedAt := testBaseTime
	trashed := makeTestTransaction(6, 700, "2024-03-15", "food", model.TypeExpense)
	trashed.DeletedAt = &deletedAt

	require.NoError(t, store.AddTransactions(ctx, []model.Transaction{
		makeTestTransaction(1, 300, "2024-03-01", "food", model.TypeExpense),
		makeTestTransaction(2, 5000, "2024-03-10", "salary", model.TypeIncome),
		makeTestTransaction(3, 100, "2024-03-31", "transport", model.TypeExpense),
		makeTestTransaction(4, 200, "2024-04-01", "food", model.TypeExpense),
		makeTestTransaction(5, 900, "2024-02-29", "transport", model.TypeExpense),
		trashed,
	}))

	minAmount := int64(200)
	maxAmount := int64(900)

	tests := []struct {
		name  string
		query model.TransactionQuery
		want  []string
	}{
		{
			name: "no filters excludes trash",
			want: []string{"txn-001", "txn-002", "txn-003", "txn-004", "txn-005"},
		},
		{
			name:  "inclusive date range",
			query: model.TransactionQuery{From: "2024-03-01", To: "2024-03-31"},
			want:  []string{"txn-001", "txn-002", "txn-003"},
		},
		{
			name:  "open start",
			query: model.TransactionQuery{To: "2024-03-01"},
			want:  []string{"txn-001", "txn-005"},
		},
		{
			name:  "category set",
			query: model.TransactionQuery{CategoryIDs: []string{"transport", "salary"}},
			want:  []string{"txn-002", "txn-003", "txn-005"},
		},
		{
			name:  "amount range",
			query: model.TransactionQuery{MinAmount: &minAmount, MaxAmount: &maxAmount},
			want:  []string{"txn-001", "txn-004", "txn-005"},
		},
		{
			name:  "type",
			query: model.TransactionQuery{Type: model.TypeIncome},
			want:  []string{"txn-002"},
		},
		{
			name: "combined",
			query: model.TransactionQuery{
				From:        "2024-03-01",
				CategoryIDs: []string{"food"},
				MinAmount:   &minAmount,
				Type:        model.TypeExpense,
			},
			want: []string{"txn-001", "txn-004"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txns, err := store.QueryTransactions(ctx, tt.query)
			require.NoError(t, err)

			ids := make([]string, 0, len(txns))
			for _, txn := range txns {
				ids = append(ids, txn.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestSQLiteStorage_Trash(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	old := testBaseTime.Add(-31 * 24 * time.Hour)
	recent := testBaseTime.Add(-29 * 24 * time.Hour)

	a := makeTestTransaction(1, 100, "2024-01-01", "food", model.TypeExpense)
	a.DeletedAt = &old
	b := makeTestTransaction(2, 200, "2024-01-02", "food", model.TypeExpense)
	b.DeletedAt = &recent
	c := makeTestTransaction(3, 300, "2024-01-03", "food", model.TypeExpense)
	require.NoError(t, store.AddTransactions(ctx, []model.Transaction{a, b, c}))

	trash, err := store.GetDeletedTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, trash, 2)
	assert.Equal(t, "txn-002", trash[0].ID)

	cutoff := testBaseTime.Add(-30 * 24 * time.Hour)
	expired, err := store.GetTransactionsDeletedBefore(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "txn-001", expired[0].ID)
}

func TestSQLiteStorage_RecentTransactions(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.AddTransactions(ctx, []model.Transaction{
		makeTestTransaction(1, 100, "2024-03-01", "a", model.TypeExpense),
		makeTestTransaction(3, 100, "2024-03-01", "c", model.TypeExpense),
		makeTestTransaction(2, 100, "2024-03-01", "b", model.TypeExpense),
	}))

	recent, err := store.GetRecentTransactions(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "txn-003", recent[0].ID)
	assert.Equal(t, "txn-002", recent[1].ID)

	none, err := store.GetRecentTransactions(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteStorage_MonthlyTotals(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	deletedAt := testBaseTime
	trashed := makeTestTransaction(4, 9999, "2024-03-20", "food", model.TypeExpense)
	trashed.DeletedAt = &deletedAt

	require.NoError(t, store.AddTransactions(ctx, []model.Transaction{
		makeTestTransaction(1, 5000, "2024-03-05", "salary", model.TypeIncome),
		makeTestTransaction(2, 1000, "2024-03-10", "food", model.TypeExpense),
		makeTestTransaction(3, 700, "2024-04-01", "food", model.TypeExpense),
		trashed,
	}))

	stats, err := store.GetMonthlyTotals(ctx, "2024-03-01", "2024-03-31")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), stats.Income)
	assert.Equal(t, int64(1000), stats.Expense)
	assert.Equal(t, int64(4000), stats.Balance)
	assert.Equal(t, 2, stats.TransactionCount)

	empty, err := store.GetMonthlyTotals(ctx, "2023-01-01", "2023-01-31")
	require.NoError(t, err)
	assert.Zero(t, empty.Income)
	assert.Zero(t, empty.TransactionCount)
}

func TestSQLiteStorage_CategoryTotals(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	food := makeTestCategory("food", "Food", 0)
	transport := makeTestCategory("transport", "Transport", 1)
	require.NoError(t, store.AddCategory(ctx, &food))
	require.NoError(t, store.AddCategory(ctx, &transport))

	require.NoError(t, store.AddTransactions(ctx, []model.Transaction{
		makeTestTransaction(1, 300, "2024-03-01", "food", model.TypeExpense),
		makeTestTransaction(2, 200, "2024-03-02", "food", model.TypeExpense),
		makeTestTransaction(3, 800, "2024-03-03", "transport", model.TypeExpense),
		makeTestTransaction(4, 999, "2024-03-04", "gone", model.TypeExpense),
		makeTestTransaction(5, 5000, "2024-03-05", "food", model.TypeIncome),
	}))

	stats, err := store.GetCategoryTotals(ctx, "2024-03-01", "2024-03-31", model.TypeExpense)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "transport", stats[0].CategoryID)
	assert.Equal(t, int64(800), stats[0].TotalAmount)
	assert.Equal(t, "Food", stats[1].CategoryName)
	assert.Equal(t, int64(500), stats[1].TotalAmount)
	assert.Equal(t, 2, stats[1].Count)

	both, err := store.GetCategoryTotals(ctx, "2024-03-01", "2024-03-31", "")
	require.NoError(t, err)
	require.Len(t, both, 2)
	assert.Equal(t, int64(5500), both[0].TotalAmount)
}
