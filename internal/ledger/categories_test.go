package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/household-ledger/internal/common"
	"github.com/Veraticus/household-ledger/internal/ledger"
	"github.com/Veraticus/household-ledger/internal/model"
	"github.com/Veraticus/household-ledger/internal/testutil"
)

func categoryIDs(cats []model.Category) []string {
	ids := make([]string, len(cats))
	for i, cat := range cats {
		ids[i] = cat.ID
	}
	return ids
}

func TestLedger_InitSeedsDefaults(t *testing.T) {
	tl := testutil.SetupTestLedgerWithOptions(t, testutil.TestLedgerOptions{SkipInit: true})
	ctx := context.Background()

	report, err := tl.Ledger.Init(ctx)
	require.NoError(t, err)
	assert.True(t, report.SettingsSeeded)
	assert.Equal(t, 10, report.CategoriesSeed)

	cats, err := tl.Ledger.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 10)
	assert.Equal(t, "food", cats[0].ID)
	assert.Equal(t, model.CategoryTypeIncome, cats[9].Type)

	again, err := tl.Ledger.Init(ctx)
	require.NoError(t, err)
	assert.False(t, again.SettingsSeeded)
	assert.Zero(t, again.CategoriesSeed)

	cats, err = tl.Ledger.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 10)
}

func TestLedger_CreateCategory(t *testing.T) {
	tl := testutil.SetupTestLedger(t)
	ctx := context.Background()

	created, err := tl.Ledger.CreateCategory(ctx, model.Category{Name: "  Pets ", Type: model.CategoryTypeExpense})
	require.NoError(t, err)
	assert.Equal(t, "id-1", created.ID)
	assert.Equal(t, "Pets", created.Name)
	assert.Equal(t, model.DefaultCategoryIcon, created.Icon)
	assert.Equal(t, model.DefaultCategoryColor, created.Color)
	assert.Equal(t, 10, created.Order)

	logs, err := tl.Ledger.ActionLog(ctx, 1)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.EntityCategory, logs[0].EntityType)
	assert.Equal(t, model.ActionCreate, logs[0].Action)
}

func TestLedger_CreateCategoryValidation(t *testing.T) {
	tests := []struct {
		name    string
		cat     model.Category
		wantErr error
	}{
		{
			name:    "duplicate name ignoring case",
			cat:     model.Category{Name: "food", Type: model.CategoryTypeExpense},
			wantErr: model.ErrDuplicateCategoryName,
		},
		{
			name:    "empty name",
			cat:     model.Category{Name: "   ", Type: model.CategoryTypeExpense},
			wantErr: model.ErrInvalidCategory,
		},
		{
			name:    "name too long",
			cat:     model.Category{Name: "abcdefghijklmnopqrstu", Type: model.CategoryTypeExpense},
			wantErr: model.ErrInvalidCategory,
		},
		{
			name:    "bad color",
			cat:     model.Category{Name: "Pets", Color: "blue", Type: model.CategoryTypeExpense},
			wantErr: model.ErrInvalidCategory,
		},
		{
			name:    "budget out of range",
			cat:     model.Category{Name: "Pets", Type: model.CategoryTypeExpense, Budget: ptr(int64(10_000_000))},
			wantErr: model.ErrInvalidCategory,
		},
		{
			name:    "unknown type",
			cat:     model.Category{Name: "Pets", Type: "savings"},
			wantErr: model.ErrInvalidCategory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := testutil.SetupTestLedger(t)
			ctx := context.Background()

			_, err := tl.Ledger.CreateCategory(ctx, tt.cat)
			require.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, model.ErrValidation)

			cats, err := tl.Ledger.Categories(ctx)
			require.NoError(t, err)
			assert.Len(t, cats, 10)
		})
	}
}

func TestLedger_UpdateCategory(t *testing.T) {
	tl := testutil.SetupTestLedger(t)
	ctx := context.Background()

	updated, err := tl.Ledger.UpdateCategory(ctx, "food", model.CategoryPatch{
		Name:   ptr("Groceries"),
		Budget: ptr(int64(40000)),
	})
	require.NoError(t, err)
	assert.Equal(t, "Groceries", updated.Name)
	require.NotNil(t, updated.Budget)
	assert.Equal(t, int64(40000), *updated.Budget)

	// Renaming to its own name in another case is allowed.
	_, err = tl.Ledger.UpdateCategory(ctx, "food", model.CategoryPatch{Name: ptr("GROCERIES")})
	require.NoError(t, err)

	_, err = tl.Ledger.UpdateCategory(ctx, "food", model.CategoryPatch{Name: ptr("transport")})
	assert.ErrorIs(t, err, model.ErrDuplicateCategoryName)

	cleared, err := tl.Ledger.UpdateCategory(ctx, "food", model.CategoryPatch{ClearBudget: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.Budget)

	_, err = tl.Ledger.UpdateCategory(ctx, "missing", model.CategoryPatch{Name: ptr("X")})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestLedger_ReorderCategories(t *testing.T) {
	tl := testutil.SetupTestLedger(t)
	ctx := context.Background()

	cats, err := tl.Ledger.Categories(ctx)
	require.NoError(t, err)
	ids := categoryIDs(cats)

	reversed := make([]string, len(ids))
	for i, id := range ids {
		reversed[len(ids)-1-i] = id
	}
	require.NoError(t, tl.Ledger.ReorderCategories(ctx, reversed))

	cats, err = tl.Ledger.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, reversed, categoryIDs(cats))

	assert.ErrorIs(t, tl.Ledger.ReorderCategories(ctx, reversed[:3]), model.ErrInvalidCategory)

	dup := append([]string{}, reversed...)
	dup[1] = dup[0]
	assert.ErrorIs(t, tl.Ledger.ReorderCategories(ctx, dup), model.ErrInvalidCategory)
}

func TestLedger_DeleteCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("reassign to another category", func(t *testing.T) {
		tl := testutil.SetupTestLedger(t)
		txn := tl.MustAdd(testutil.Expense(100, "2024-03-01", "food", ""))

		moved, err := tl.Ledger.DeleteCategory(ctx, "food", model.CategoryDisposition{ReassignTo: "other"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), moved)

		got, err := tl.Ledger.GetTransaction(ctx, txn.ID)
		require.NoError(t, err)
		assert.Equal(t, "other", got.CategoryID)

		_, err = tl.Ledger.GetCategory(ctx, "food")
		assert.ErrorIs(t, err, common.ErrNotFound)

		logs, err := tl.Ledger.ActionLog(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, model.ActionDelete, logs[0].Action)
		assert.Equal(t, "food", logs[0].EntityID)
	})

	t.Run("leave uncategorized", func(t *testing.T) {
		tl := testutil.SetupTestLedger(t)
		txn := tl.MustAdd(testutil.Expense(100, "2024-03-01", "food", ""))

		_, err := tl.Ledger.DeleteCategory(ctx, "food", model.CategoryDisposition{})
		require.NoError(t, err)

		got, err := tl.Ledger.GetTransaction(ctx, txn.ID)
		require.NoError(t, err)
		assert.Equal(t, model.UncategorizedID, got.CategoryID)

		views, err := tl.Ledger.Describe(ctx, []model.Transaction{*got})
		require.NoError(t, err)
		assert.Equal(t, model.UnknownCategoryName, views[0].CategoryName)
	})

	t.Run("invalid targets", func(t *testing.T) {
		tl := testutil.SetupTestLedger(t)

		_, err := tl.Ledger.DeleteCategory(ctx, "food", model.CategoryDisposition{ReassignTo: "food"})
		assert.ErrorIs(t, err, ledger.ErrInvalidReassign)

		_, err = tl.Ledger.DeleteCategory(ctx, "food", model.CategoryDisposition{ReassignTo: "nowhere"})
		assert.ErrorIs(t, err, ledger.ErrInvalidReassign)

		_, err = tl.Ledger.DeleteCategory(ctx, "nowhere", model.CategoryDisposition{})
		assert.ErrorIs(t, err, common.ErrNotFound)

		_, err = tl.Ledger.GetCategory(ctx, "food")
		assert.NoError(t, err)
	})
}
