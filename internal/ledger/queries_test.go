package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/household-ledger/internal/ledger"
	"github.com/Veraticus/household-ledger/internal/model"
	"github.com/Veraticus/household-ledger/internal/testutil"
)

func amounts(txns []model.Transaction) []int64 {
	out := make([]int64, len(txns))
	for i, txn := range txns {
		out[i] = txn.Amount
	}
	return out
}

func memos(txns []model.Transaction) []string {
	out := make([]string, len(txns))
	for i, txn := range txns {
		out[i] = txn.Memo
	}
	return out
}

func TestLedger_ListTransactionsSortByAmount(t *testing.T) {
	tl := testutil.SetupTestLedger(t)
	ctx := context.Background()

	for _, amount := range []int64{300, 100, 200} {
		tl.MustAdd(testutil.Expense(amount, "2024-03-01", "food", ""))
	}

	asc, err := tl.Ledger.ListTransactions(ctx, model.TransactionFilter{}, model.SortSpec{Field: model.SortByAmount})
	require.NoError(t, err)
	assert.Equal(t, []int64{100, 200, 300}, amounts(asc))

	desc, err := tl.Ledger.ListTransactions(ctx, model.TransactionFilter{}, model.SortSpec{Field: model.SortByAmount, Descending: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{300, 200, 100}, amounts(desc))
}

func TestLedger_ListTransactionsDefaultSortAndTies(t *testing.T) {
	tl := testutil.SetupTestLedger(t)
	ctx := context.Background()

	tl.MustAdd(testutil.Expense(100, "2024-03-01", "food", "first"))
	tl.MustAdd(testutil.Expense(100, "2024-03-05", "food", "second"))
	tl.MustAdd(testutil.Expense(100, "2024-03-01", "food", "third"))
	tl.MustAdd(testutil.Expense(100, "2024-03-05", "food", "fourth"))

	txns, err := tl.Ledger.ListTransactions(ctx, model.TransactionFilter{}, model.SortSpec{})
	require.NoError(t, err)
	assert.Equal(t, []string{"second", "fourth", "first", "third"}, memos(txns))

	byAmount, err := tl.Ledger.ListTransactions(ctx, model.TransactionFilter{}, model.SortSpec{Field: model.SortByAmount, Descending: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third", "fourth"}, memos(byAmount), "ties keep insertion order")
}

func TestLedger_ListTransactionsSortByCreatedAtAndCategory(t *testing.T) {
	tl := testutil.SetupTestLedger(t)
	ctx := context.Background()

	tl.MustAdd(testutil.Expense(100, "2024-03-01", "transport", "a"))
	tl.Clock.Advance(time.Minute)
	tl.MustAdd(testutil.Expense(100, "2024-03-01", "food", "b"))
	tl.Clock.Advance(time.Minute)
	tl.MustAdd(testutil.Expense(100, "2024-03-01", "medical", "c"))

	byCreated, err := tl.Ledger.ListTransactions(ctx, model.TransactionFilter{}, model.SortSpec{Field: model.SortByCreatedAt, Descending: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, memos(byCreated))

	byCategory, err := tl.Ledger.ListTransactions(ctx, model.TransactionFilter{}, model.SortSpec{Field: model.SortByCategory})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, memos(byCategory))
}

func TestLedger_ListTransactionsFilters(t *testing.T) {
	tl := testutil.SetupTestLedger(t)
	ctx := context.Background()

	tl.MustAdd(testutil.Expense(450, "2024-03-02", "food", "Café latte"))
	tl.MustAdd(testutil.Expense(3200, "2024-03-05", "food", "Supermarket"))
	tl.MustAdd(testutil.Expense(220, "2024-03-09", "transport", "Bus"))
	tl.MustAdd(testutil.Income(250000, "2024-03-25", "salary", "March salary"))
	tl.MustAdd(testutil.Expense(980, "2024-04-01", "food", "CAFÉ lunch"))

	tests := []struct {
		name   string
		filter model.TransactionFilter
		want   []string
	}{
		{
			name:   "memo is case insensitive",
			filter: model.TransactionFilter{Memo: "café"},
			want:   []string{"CAFÉ lunch", "Café latte"},
		},
		{
			name:   "date range is inclusive",
			filter: model.TransactionFilter{TransactionQuery: model.TransactionQuery{From: "2024-03-05", To: "2024-03-25"}},
			want:   []string{"March salary", "Bus", "Supermarket"},
		},
		{
			name: "category and amount",
			filter: model.TransactionFilter{TransactionQuery: model.TransactionQuery{
				CategoryIDs: []string{"food"},
				MinAmount:   ptr(int64(450)),
				MaxAmount:   ptr(int64(980)),
			}},
			want: []string{"CAFÉ lunch", "Café latte"},
		},
		{
			name:   "type",
			filter: model.TransactionFilter{TransactionQuery: model.TransactionQuery{Type: model.TypeIncome}},
			want:   []string{"March salary"},
		},
		{
			name: "every filter at once",
			filter: model.TransactionFilter{
				TransactionQuery: model.TransactionQuery{
					From:        "2024-03-01",
					To:          "2024-03-31",
					CategoryIDs: []string{"food", "transport"},
					MaxAmount:   ptr(int64(1000)),
					Type:        model.TypeExpense,
				},
				Memo: "a",
			},
			want: []string{"Café latte"},
		},
		{
			name:   "no match",
			filter: model.TransactionFilter{Memo: "rent"},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txns, err := tl.Ledger.ListTransactions(ctx, tt.filter, model.SortSpec{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, memos(txns))
		})
	}
}

func TestLedger_ListTransactionsRejectsBadInput(t *testing.T) {
	tl := testutil.SetupTestLedger(t)
	ctx := context.Background()

	_, err := tl.Ledger.ListTransactions(ctx, model.TransactionFilter{}, model.SortSpec{Field: "memo"})
	assert.ErrorIs(t, err, ledger.ErrInvalidSort)

	_, err = tl.Ledger.ListTransactions(ctx, model.TransactionFilter{TransactionQuery: model.TransactionQuery{From: "03/01/2024"}}, model.SortSpec{})
	assert.ErrorIs(t, err, model.ErrInvalidDate)
}

func TestLedger_MonthlyStats(t *testing.T) {
	tl := testutil.SetupTestLedger(t)
	ctx := context.Background()

	tl.MustAdd(testutil.Expense(1000, "2024-03-15", "food", ""))
	tl.MustAdd(testutil.Income(5000, "2024-03-01", "salary", ""))
	tl.MustAdd(testutil.Expense(700, "2024-04-01", "food", ""))
	tl.MustAdd(testutil.Expense(300, "2024-03-31", "missing-category", ""))

	stats, err := tl.Ledger.MonthlyStats(ctx, "2024-03")
	require.NoError(t, err)
	assert.Equal(t, model.MonthlyStats{
		Month:            "2024-03",
		Income:           5000,
		Expense:          1300,
		Balance:          3700,
		TransactionCount: 3,
	}, *stats)

	_, err = tl.Ledger.MonthlyStats(ctx, "2024-13")
	assert.ErrorIs(t, err, model.ErrInvalidMonth)
}

func TestLedger_MonthlyStatsExample(t *testing.T) {
	tl := testutil.SetupTestLedger(t)
	ctx := context.Background()

	tl.MustAdd(testutil.Expense(1000, "2024-03-15", "food", ""))
	tl.MustAdd(testutil.Income(5000, "2024-03-01", "salary", ""))

	stats, err := tl.Ledger.MonthlyStats(ctx, "2024-03")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), stats.Income)
	assert.Equal(t, int64(1000), stats.Expense)
	assert.Equal(t, int64(4000), stats.Balance)
	assert.Equal(t, 2, stats.TransactionCount)
}

func TestLedger_CategoryStats(t *testing.T) {
	tl := testutil.SetupTestLedger(t)
	ctx := context.Background()

	tl.MustAdd(testutil.Expense(1000, "2024-03-02", "food", ""))
	tl.MustAdd(testutil.Expense(500, "2024-03-03", "food", ""))
	tl.MustAdd(testutil.Expense(2000, "2024-03-04", "transport", ""))
	tl.MustAdd(testutil.Expense(9000, "2024-03-05", "deleted-category", ""))
	tl.MustAdd(testutil.Income(5000, "2024-03-25", "salary", ""))

	stats, err := tl.Ledger.CategoryStats(ctx, "2024-03", model.TypeExpense)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, model.CategoryStat{
		CategoryID:   "transport",
		CategoryName: "Transport",
		Icon:         "train",
		Color:        "#3B82F6",
		TotalAmount:  2000,
		Count:        1,
	}, stats[0])
	assert.Equal(t, "food", stats[1].CategoryID)
	assert.Equal(t, int64(1500), stats[1].TotalAmount)
	assert.Equal(t, 2, stats[1].Count)

	all, err := tl.Ledger.CategoryStats(ctx, "2024-03", "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "salary", all[0].CategoryID)

	_, err = tl.Ledger.CategoryStats(ctx, "2024-03", "transfer")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestLedger_RecentCategories(t *testing.T) {
	tl := testutil.SetupTestLedgerWithOptions(t, testutil.TestLedgerOptions{RecentWindow: 4})
	ctx := context.Background()

	add := func(categoryID string) {
		tl.Clock.Advance(time.Minute)
		tl.MustAdd(testutil.Expense(100, "2024-03-01", categoryID, ""))
	}
	add("medical") // outside the window
	add("food")
	add("vanished")
	add("transport")
	add("food")

	cats, err := tl.Ledger.RecentCategories(ctx, 5)
	require.NoError(t, err)

	ids := make([]string, len(cats))
	for i, cat := range cats {
		ids[i] = cat.ID
	}
	assert.Equal(t, []string{"food", "transport"}, ids)

	one, err := tl.Ledger.RecentCategories(ctx, 1)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "food", one[0].ID)

	none, err := tl.Ledger.RecentCategories(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLedger_Describe(t *testing.T) {
	tl := testutil.SetupTestLedger(t)
	ctx := context.Background()

	known := tl.MustAdd(testutil.Expense(100, "2024-03-01", "food", ""))
	unknown := tl.MustAdd(testutil.Expense(100, "2024-03-01", "gone", ""))

	views, err := tl.Ledger.Describe(ctx, []model.Transaction{*known, *unknown})
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "Food", views[0].CategoryName)
	assert.Equal(t, "utensils", views[0].CategoryIcon)
	assert.Equal(t, model.UnknownCategoryName, views[1].CategoryName)
	assert.Equal(t, model.DefaultCategoryColor, views[1].CategoryColor)
}
