package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/household-ledger/internal/ledger"
	"github.com/Veraticus/household-ledger/internal/model"
	"github.com/Veraticus/household-ledger/internal/testutil"
)

func TestLedger_Settings(t *testing.T) {
	tl := testutil.SetupTestLedger(t)
	ctx := context.Background()

	settings, err := tl.Ledger.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.SettingsID, settings.ID)
	assert.Equal(t, "JPY", settings.Currency)
	assert.Equal(t, model.WeekStartSunday, settings.WeekStart)
	assert.Equal(t, model.ThemeSystem, settings.Theme)
	assert.False(t, settings.PasscodeEnabled)

	updated, err := tl.Ledger.UpdateSettings(ctx, model.SettingsPatch{
		Currency:      ptr("USD"),
		Theme:         ptr(model.ThemeDark),
		MonthlyBudget: ptr(int64(300000)),
	})
	require.NoError(t, err)
	assert.Equal(t, "USD", updated.Currency)
	assert.Equal(t, model.ThemeDark, updated.Theme)
	assert.Equal(t, "ja", updated.Language)

	_, err = tl.Ledger.UpdateSettings(ctx, model.SettingsPatch{Currency: ptr("dollars")})
	assert.ErrorIs(t, err, model.ErrInvalidSettings)

	reloaded, err := tl.Ledger.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "USD", reloaded.Currency)
	require.NotNil(t, reloaded.MonthlyBudget)

	cleared, err := tl.Ledger.UpdateSettings(ctx, model.SettingsPatch{ClearMonthlyBudget: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.MonthlyBudget)
}

func TestLedger_GetSettingsCreatesMissingRecord(t *testing.T) {
	tl := testutil.SetupTestLedgerWithOptions(t, testutil.TestLedgerOptions{SkipInit: true})

	settings, err := tl.Ledger.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "JPY", settings.Currency)
}

func TestLedger_Passcode(t *testing.T) {
	tl := testutil.SetupTestLedger(t)
	ctx := context.Background()

	_, err := tl.Ledger.VerifyPasscode(ctx, "1234")
	assert.ErrorIs(t, err, ledger.ErrPasscodeDisabled)

	assert.ErrorIs(t, tl.Ledger.SetPasscode(ctx, "12"), ledger.ErrInvalidPasscode)

	require.NoError(t, tl.Ledger.SetPasscode(ctx, "2468"))

	settings, err := tl.Ledger.GetSettings(ctx)
	require.NoError(t, err)
	assert.True(t, settings.PasscodeEnabled)
	assert.NotEqual(t, "2468", settings.PasscodeHash)

	ok, err := tl.Ledger.VerifyPasscode(ctx, "2468")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = tl.Ledger.VerifyPasscode(ctx, "1357")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, tl.Ledger.ClearPasscode(ctx))
	settings, err = tl.Ledger.GetSettings(ctx)
	require.NoError(t, err)
	assert.False(t, settings.PasscodeEnabled)
	assert.Empty(t, settings.PasscodeHash)
}

func TestLedger_Budgets(t *testing.T) {
	tl := testutil.SetupTestLedger(t)
	ctx := context.Background()

	first, err := tl.Ledger.SetBudget(ctx, "food", "2024-03", 30000)
	require.NoError(t, err)

	second, err := tl.Ledger.SetBudget(ctx, "food", "2024-03", 35000)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(35000), second.Amount)

	budgets, err := tl.Ledger.Budgets(ctx, "2024-03")
	require.NoError(t, err)
	require.Len(t, budgets, 1)

	_, err = tl.Ledger.SetBudget(ctx, "nowhere", "2024-03", 100)
	assert.ErrorIs(t, err, model.ErrInvalidBudget)
	_, err = tl.Ledger.SetBudget(ctx, "food", "March", 100)
	assert.ErrorIs(t, err, model.ErrInvalidBudget)
	_, err = tl.Ledger.SetBudget(ctx, "food", "2024-03", -1)
	assert.ErrorIs(t, err, model.ErrInvalidBudget)

	require.NoError(t, tl.Ledger.DeleteBudget(ctx, first.ID))
	budgets, err = tl.Ledger.Budgets(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, budgets)
}

func TestLedger_BudgetReport(t *testing.T) {
	tl := testutil.SetupTestLedger(t)
	ctx := context.Background()

	_, err := tl.Ledger.UpdateCategory(ctx, "transport", model.CategoryPatch{Budget: ptr(int64(10000))})
	require.NoError(t, err)
	_, err = tl.Ledger.UpdateCategory(ctx, "food", model.CategoryPatch{Budget: ptr(int64(20000))})
	require.NoError(t, err)
	_, err = tl.Ledger.SetBudget(ctx, "food", "2024-03", 25000)
	require.NoError(t, err)
	_, err = tl.Ledger.UpdateSettings(ctx, model.SettingsPatch{MonthlyBudget: ptr(int64(30000))})
	require.NoError(t, err)

	tl.MustAdd(testutil.Expense(26000, "2024-03-03", "food", ""))
	tl.MustAdd(testutil.Expense(4000, "2024-03-04", "transport", ""))
	tl.MustAdd(testutil.Expense(1000, "2024-03-05", "medical", ""))
	tl.MustAdd(testutil.Income(250000, "2024-03-25", "salary", ""))

	report, err := tl.Ledger.BudgetReport(ctx, "2024-03")
	require.NoError(t, err)
	assert.Equal(t, int64(31000), report.TotalSpent)
	assert.True(t, report.OverCeiling())

	require.Len(t, report.Lines, 2)
	assert.Equal(t, model.BudgetLine{
		CategoryID:   "food",
		CategoryName: "Food",
		Allocated:    25000,
		Spent:        26000,
		Remaining:    -1000,
	}, report.Lines[0])
	assert.Equal(t, model.BudgetLine{
		CategoryID:   "transport",
		CategoryName: "Transport",
		Allocated:    10000,
		Spent:        4000,
		Remaining:    6000,
		FromDefault:  true,
	}, report.Lines[1])
}
