package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/household-ledger/internal/common"
	"github.com/Veraticus/household-ledger/internal/model"
)

var testBaseTime = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

func makeTestTransaction(num int, amount int64, date string, categoryID string, txnType model.TransactionType) model.Transaction {
	created := testBaseTime.Add(time.Duration(num) * time.Minute)
	return model.Transaction{
		ID:         fmt.Sprintf("txn-%03d", num),
		Amount:     amount,
		Date:       date,
		CategoryID: categoryID,
		Memo:       fmt.Sprintf("Transaction #%d", num),
		Type:       txnType,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}

func makeTestCategory(id, name string, order int) model.Category {
	return model.Category{
		ID:        id,
		Name:      name,
		Icon:      model.DefaultCategoryIcon,
		Color:     model.DefaultCategoryColor,
		Type:      model.CategoryTypeExpense,
		Order:     order,
		CreatedAt: testBaseTime,
		UpdatedAt: testBaseTime,
	}
}

func TestNewSQLiteStorage(t *testing.T) {
	t.Run("creates parent directory", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "nested", "dir", "ledger.db")
		store, err := NewSQLiteStorage(dbPath)
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		assert.Equal(t, dbPath, store.Path())
	})

	t.Run("in-memory database", func(t *testing.T) {
		store, err := NewSQLiteStorage(":memory:")
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		require.NoError(t, store.Migrate(context.Background()))
		_, err = store.GetCategories(context.Background())
		require.NoError(t, err)
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := NewSQLiteStorage("  ")
		assert.ErrorIs(t, err, ErrEmptyString)
	})
}

func TestSQLiteStorage_Migrations(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(ExpectedSchemaVersion), version)

	// Running again is a no-op.
	require.NoError(t, store.Migrate(ctx))
	version, err = store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(ExpectedSchemaVersion), version)
}

func TestSQLiteStorage_SchemaVersionFreshDatabase(t *testing.T) {
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "fresh.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	version, err := store.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Zero(t, version)
}

func TestSQLiteStorage_Settings(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.GetSettings(ctx)
	assert.ErrorIs(t, err, common.ErrNotFound)

	settings := model.DefaultSettings()
	settings.UpdatedAt = testBaseTime
	require.NoError(t, store.SaveSettings(ctx, &settings))

	got, err := store.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "JPY", got.Currency)
	assert.Equal(t, model.SettingsID, got.ID)
	assert.Nil(t, got.MonthlyBudget)

	ceiling := int64(200000)
	settings.Currency = "USD"
	settings.MonthlyBudget = &ceiling
	settings.ID = 42
	require.NoError(t, store.SaveSettings(ctx, &settings))

	got, err = store.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "USD", got.Currency)
	assert.Equal(t, model.SettingsID, got.ID)
	require.NotNil(t, got.MonthlyBudget)
	assert.Equal(t, ceiling, *got.MonthlyBudget)

	var rows int
	require.NoError(t, store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM settings`).Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestSQLiteStorage_Budgets(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	b := model.Budget{
		ID:         "b1",
		CategoryID: "food",
		Month:      "2024-03",
		Amount:     30000,
		CreatedAt:  testBaseTime,
		UpdatedAt:  testBaseTime,
	}
	require.NoError(t, store.AddBudget(ctx, &b))
	assert.ErrorIs(t, store.AddBudget(ctx, &b), common.ErrDuplicateEntry)

	got, err := store.GetBudgetFor(ctx, "food", "2024-03")
	require.NoError(t, err)
	assert.Equal(t, "b1", got.ID)

	_, err = store.GetBudgetFor(ctx, "food", "2024-04")
	assert.ErrorIs(t, err, common.ErrNotFound)

	b.Amount = 45000
	b.UpdatedAt = testBaseTime.Add(time.Hour)
	require.NoError(t, store.UpdateBudget(ctx, &b))
	got, err = store.GetBudget(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, int64(45000), got.Amount)

	other := b
	other.ID = "b2"
	other.Month = "2024-04"
	require.NoError(t, store.AddBudget(ctx, &other))

	march, err := store.GetBudgets(ctx, "2024-03")
	require.NoError(t, err)
	assert.Len(t, march, 1)

	all, err := store.GetBudgets(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, store.DeleteBudget(ctx, "b1"))
	assert.ErrorIs(t, store.DeleteBudget(ctx, "b1"), common.ErrNotFound)
}

func TestSQLiteStorage_ActionLogs(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		entry := &model.ActionLog{
			Action:     model.ActionCreate,
			EntityType: model.EntityTransaction,
			EntityID:   fmt.Sprintf("txn-%d", i),
			Payload:    []byte(`{"amount":100}`),
			Timestamp:  testBaseTime.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, store.AppendActionLog(ctx, entry))
		assert.NotZero(t, entry.ID)
	}

	count, err := store.CountActionLogs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	deleted, err := store.DeleteOldestActionLogs(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	logs, err := store.GetActionLogs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "txn-4", logs[0].EntityID)
	assert.Equal(t, "txn-2", logs[2].EntityID)
	assert.JSONEq(t, `{"amount":100}`, string(logs[0].Payload))

	limited, err := store.GetActionLogs(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteStorage_ActionLogTimestampTies(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	for _, id := range []string{"first", "second", "third"} {
		require.NoError(t, store.AppendActionLog(ctx, &model.ActionLog{
			Action:     model.ActionUpdate,
			EntityType: model.EntityCategory,
			EntityID:   id,
			Timestamp:  testBaseTime,
		}))
	}

	_, err := store.DeleteOldestActionLogs(ctx, 1)
	require.NoError(t, err)

	logs, err := store.GetActionLogs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "third", logs[0].EntityID)
	assert.Equal(t, "second", logs[1].EntityID)
	assert.Equal(t, "null", string(logs[1].Payload))
}

func TestSQLiteStorage_NilContext(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	//nolint:staticcheck // exercising nil context validation
	_, err := store.GetCategories(nil)
	assert.ErrorIs(t, err, ErrNilContext)
}
