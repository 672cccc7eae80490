package ledger_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/household-ledger/internal/common"
	"github.com/Veraticus/household-ledger/internal/ledger"
	"github.com/Veraticus/household-ledger/internal/model"
	"github.com/Veraticus/household-ledger/internal/testutil"
)

const day = 24 * time.Hour

func listIDs(t *testing.T, l *ledger.Ledger) []string {
	t.Helper()
	txns, err := l.ListTransactions(context.Background(), model.TransactionFilter{}, model.SortSpec{})
	require.NoError(t, err)

	ids := make([]string, 0, len(txns))
	for _, txn := range txns {
		ids = append(ids, txn.ID)
	}
	return ids
}

func TestLedger_SoftDeleteAndRestore(t *testing.T) {
	tl := testutil.SetupTestLedger(t)
	ctx := context.Background()

	added := tl.MustAdd(testutil.Expense(800, "2024-03-10", "food", ""))
	assert.Contains(t, listIDs(t, tl.Ledger), added.ID)

	tl.Clock.Advance(time.Minute)
	deleted, err := tl.Ledger.SoftDelete(ctx, added.ID)
	require.NoError(t, err)
	require.NotNil(t, deleted.DeletedAt)
	assert.Equal(t, tl.Clock.Now(), *deleted.DeletedAt)
	assert.Equal(t, tl.Clock.Now(), deleted.UpdatedAt)
	assert.NotContains(t, listIDs(t, tl.Ledger), added.ID)

	stats, err := tl.Ledger.MonthlyStats(ctx, "2024-03")
	require.NoError(t, err)
	assert.Zero(t, stats.TransactionCount, "trashed transactions are excluded from stats")

	_, err = tl.Ledger.SoftDelete(ctx, added.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	restored, err := tl.Ledger.Restore(ctx, added.ID)
	require.NoError(t, err)
	assert.Nil(t, restored.DeletedAt)
	assert.Contains(t, listIDs(t, tl.Ledger), added.ID)

	_, err = tl.Ledger.Restore(ctx, added.ID)
	assert.ErrorIs(t, err, ledger.ErrNotInTrash)

	logs, err := tl.Ledger.ActionLog(ctx, 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, model.ActionRestore, logs[0].Action)
	assert.JSONEq(t, `{"restored":true}`, string(logs[0].Payload))
	assert.Equal(t, model.ActionDelete, logs[1].Action)
}

func TestLedger_PurgeExpired(t *testing.T) {
	tl := testutil.SetupTestLedger(t)
	ctx := context.Background()

	old := tl.MustAdd(testutil.Expense(100, "2024-01-01", "food", "old"))
	recent := tl.MustAdd(testutil.Expense(200, "2024-01-02", "food", "recent"))

	tl.Clock.Set(testutil.Epoch.Add(-31 * day))
	_, err := tl.Ledger.SoftDelete(ctx, old.ID)
	require.NoError(t, err)

	tl.Clock.Set(testutil.Epoch.Add(-29 * day))
	_, err = tl.Ledger.SoftDelete(ctx, recent.ID)
	require.NoError(t, err)

	tl.Clock.Set(testutil.Epoch)
	purged, err := tl.Ledger.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	_, err = tl.Ledger.GetTransaction(ctx, old.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	kept, err := tl.Ledger.GetTransaction(ctx, recent.ID)
	require.NoError(t, err)
	assert.True(t, kept.IsDeleted())

	again, err := tl.Ledger.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, again)

	logs, err := tl.Ledger.ActionLog(ctx, 1)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, old.ID, logs[0].EntityID)

	var payload struct {
		Record model.Transaction `json:"record"`
		Purged bool              `json:"purged"`
	}
	require.NoError(t, json.Unmarshal(logs[0].Payload, &payload))
	assert.True(t, payload.Purged)
	assert.Equal(t, "old", payload.Record.Memo)
}

func TestLedger_InitPurgesExpiredTrash(t *testing.T) {
	tl := testutil.SetupTestLedger(t)
	ctx := context.Background()

	added := tl.MustAdd(testutil.Expense(100, "2024-01-01", "food", ""))
	_, err := tl.Ledger.SoftDelete(ctx, added.ID)
	require.NoError(t, err)

	tl.Clock.Advance(31 * day)
	report, err := tl.Ledger.Init(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Purged)
	assert.False(t, report.SettingsSeeded)
	assert.Zero(t, report.CategoriesSeed)
}

func TestLedger_CustomRetention(t *testing.T) {
	tl := testutil.SetupTestLedgerWithOptions(t, testutil.TestLedgerOptions{Retention: 7 * day})
	ctx := context.Background()
	assert.Equal(t, 7*day, tl.Ledger.Retention())

	added := tl.MustAdd(testutil.Expense(100, "2024-01-01", "food", ""))
	_, err := tl.Ledger.SoftDelete(ctx, added.ID)
	require.NoError(t, err)

	tl.Clock.Advance(8 * day)
	purged, err := tl.Ledger.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)
}

func TestLedger_Trash(t *testing.T) {
	tl := testutil.SetupTestLedger(t)
	ctx := context.Background()

	first := tl.MustAdd(testutil.Expense(100, "2024-03-01", "food", ""))
	second := tl.MustAdd(testutil.Expense(200, "2024-03-02", "food", ""))
	tl.MustAdd(testutil.Expense(300, "2024-03-03", "food", ""))

	_, err := tl.Ledger.SoftDelete(ctx, first.ID)
	require.NoError(t, err)
	tl.Clock.Advance(10 * day)
	_, err = tl.Ledger.SoftDelete(ctx, second.ID)
	require.NoError(t, err)
	tl.Clock.Advance(12 * time.Hour)

	items, err := tl.Ledger.Trash(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)
	assert.Equal(t, 30, items[0].DaysRemaining)
	assert.Equal(t, first.ID, items[1].ID)
	assert.Equal(t, 20, items[1].DaysRemaining)
}

func TestLedger_DeletePermanently(t *testing.T) {
	tl := testutil.SetupTestLedger(t)
	ctx := context.Background()

	added := tl.MustAdd(testutil.Expense(100, "2024-03-01", "food", ""))
	assert.ErrorIs(t, tl.Ledger.DeletePermanently(ctx, added.ID), ledger.ErrNotInTrash)

	_, err := tl.Ledger.SoftDelete(ctx, added.ID)
	require.NoError(t, err)
	require.NoError(t, tl.Ledger.DeletePermanently(ctx, added.ID))

	_, err = tl.Ledger.GetTransaction(ctx, added.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
