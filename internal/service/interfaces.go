// Package service defines the interfaces between the ledger's components.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/household-ledger/internal/model"
)

// TransactionStore persists transactions.
type TransactionStore interface {
	AddTransaction(ctx context.Context, txn *model.Transaction) error
	AddTransactions(ctx context.Context, txns []model.Transaction) error
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	DeleteTransactions(ctx context.Context, ids []string) (int64, error)
	GetAllTransactions(ctx context.Context) ([]model.Transaction, error)
	QueryTransactions(ctx context.Context, query model.TransactionQuery) ([]model.Transaction, error)
	GetDeletedTransactions(ctx context.Context) ([]model.Transaction, error)
	GetTransactionsDeletedBefore(ctx context.Context, cutoff time.Time) ([]model.Transaction, error)
	GetRecentTransactions(ctx context.Context, limit int) ([]model.Transaction, error)
	GetMonthlyTotals(ctx context.Context, from, to string) (*model.MonthlyStats, error)
	GetCategoryTotals(ctx context.Context, from, to string, txnType model.TransactionType) ([]model.CategoryStat, error)
}

// CategoryStore persists categories.
type CategoryStore interface {
	AddCategory(ctx context.Context, category *model.Category) error
	GetCategory(ctx context.Context, id string) (*model.Category, error)
	GetCategories(ctx context.Context) ([]model.Category, error)
	UpdateCategory(ctx context.Context, category *model.Category) error
	// DeleteCategory points referencing transactions at reassignTo and removes
	// the category. It returns the number of transactions moved.
	DeleteCategory(ctx context.Context, id, reassignTo string) (int64, error)
	ReorderCategories(ctx context.Context, ids []string, updatedAt time.Time) error
	NextCategoryOrder(ctx context.Context) (int, error)
}

// SettingsStore persists the settings singleton.
type SettingsStore interface {
	GetSettings(ctx context.Context) (*model.Settings, error)
	SaveSettings(ctx context.Context, settings *model.Settings) error
}

// BudgetStore persists monthly budgets.
type BudgetStore interface {
	AddBudget(ctx context.Context, budget *model.Budget) error
	GetBudget(ctx context.Context, id string) (*model.Budget, error)
	GetBudgetFor(ctx context.Context, categoryID, month string) (*model.Budget, error)
	GetBudgets(ctx context.Context, month string) ([]model.Budget, error)
	UpdateBudget(ctx context.Context, budget *model.Budget) error
	DeleteBudget(ctx context.Context, id string) error
}

// ActionLogStore persists the audit trail.
type ActionLogStore interface {
	AppendActionLog(ctx context.Context, entry *model.ActionLog) error
	CountActionLogs(ctx context.Context) (int, error)
	DeleteOldestActionLogs(ctx context.Context, n int) (int64, error)
	GetActionLogs(ctx context.Context, limit int) ([]model.ActionLog, error)
}

// SnapshotStore applies whole datasets.
type SnapshotStore interface {
	// ReplaceAll clears transactions, categories and budgets and inserts the
	// dataset's records in their place.
	ReplaceAll(ctx context.Context, data *model.Dataset) error
	// MergeAll inserts the dataset's records, skipping ids that already exist.
	MergeAll(ctx context.Context, data *model.Dataset) (*model.MergeCounts, error)
}

// ActionRecorder receives the audit side effect of ledger mutations.
type ActionRecorder interface {
	// Record appends an entry. Failures are handled by the recorder and never
	// reach the caller.
	Record(ctx context.Context, action model.Action, entityType model.EntityType, entityID string, payload any)
	Trim(ctx context.Context) (int64, error)
	Recent(ctx context.Context, limit int) ([]model.ActionLog, error)
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	TransactionStore
	CategoryStore
	SettingsStore
	BudgetStore
	ActionLogStore
	SnapshotStore

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
