// Package backup exports the ledger to a versioned JSON document and imports
// such documents back, either replacing or merging with the stored data.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/household-ledger/internal/common"
	"github.com/Veraticus/household-ledger/internal/model"
	"github.com/Veraticus/household-ledger/internal/storage"
)

// CurrentVersion is the snapshot format written by Export.
const CurrentVersion = 1

// Mode selects how Import combines a snapshot with the stored data.
type Mode string

// Import modes.
const (
	ModeOverwrite Mode = "overwrite"
	ModeMerge     Mode = "merge"
)

// ParseMode converts a user supplied mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeOverwrite:
		return ModeOverwrite, nil
	case ModeMerge:
		return ModeMerge, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Import errors.
var (
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")
	ErrInvalidMode        = errors.New("invalid import mode")
	ErrInvalidSnapshot    = fmt.Errorf("%w: invalid snapshot", model.ErrValidation)
)

// Snapshot is the export document.
type Snapshot struct {
	ExportDate time.Time     `json:"exportDate"`
	Data       model.Dataset `json:"data"`
	Version    int           `json:"version"`
}

// Result reports what an import did.
type Result struct {
	Mode Mode `json:"mode"`
	model.MergeCounts
	SettingsApplied bool `json:"settingsApplied"`
}

// Store is the part of the storage layer the manager needs.
type Store interface {
	GetAllTransactions(ctx context.Context) ([]model.Transaction, error)
	GetCategories(ctx context.Context) ([]model.Category, error)
	GetSettings(ctx context.Context) (*model.Settings, error)
	GetBudgets(ctx context.Context, month string) ([]model.Budget, error)
	ReplaceAll(ctx context.Context, data *model.Dataset) error
	MergeAll(ctx context.Context, data *model.Dataset) (*model.MergeCounts, error)
}

// Checkpointer saves a copy of the database before a destructive import.
type Checkpointer interface {
	AutoCheckpoint(ctx context.Context, operation string) (*storage.CheckpointInfo, error)
}

// Manager runs exports and imports.
type Manager struct {
	store        Store
	checkpointer Checkpointer
	now          func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the clock used for export dates.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithCheckpointer makes overwrite imports take a checkpoint first.
func WithCheckpointer(c Checkpointer) Option {
	return func(m *Manager) {
		m.checkpointer = c
	}
}

// NewManager creates a manager over store.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Export collects every record, trashed transactions included.
func (m *Manager) Export(ctx context.Context) (*Snapshot, error) {
	txns, err := m.store.GetAllTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export transactions: %w", err)
	}
	categories, err := m.store.GetCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export categories: %w", err)
	}
	budgets, err := m.store.GetBudgets(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to export budgets: %w", err)
	}

	settings := []model.Settings{}
	s, err := m.store.GetSettings(ctx)
	switch {
	case err == nil:
		settings = append(settings, *s)
	case errors.Is(err, common.ErrNotFound):
	default:
		return nil, fmt.Errorf("failed to export settings: %w", err)
	}

	snap := &Snapshot{
		Version:    CurrentVersion,
		ExportDate: m.now().UTC(),
		Data: model.Dataset{
			Transactions: nonNil(txns),
			Categories:   nonNil(categories),
			Settings:     settings,
			Budgets:      nonNil(budgets),
		},
	}

	slog.Info("exported ledger",
		"transactions", len(snap.Data.Transactions),
		"categories", len(snap.Data.Categories),
		"budgets", len(snap.Data.Budgets))
	return snap, nil
}

// WriteTo encodes snap as indented JSON.
func WriteTo(w io.Writer, snap *Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// Read decodes and validates a snapshot document.
func Read(r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	if err := Validate(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Import validates snap and applies it. Nothing is written unless every
// record is valid.
func (m *Manager) Import(ctx context.Context, snap *Snapshot, mode Mode) (*Result, error) {
	if mode != ModeOverwrite && mode != ModeMerge {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	if err := Validate(snap); err != nil {
		return nil, err
	}

	result := &Result{
		Mode:            mode,
		SettingsApplied: len(snap.Data.Settings) == 1,
	}

	if mode == ModeMerge {
		counts, err := m.store.MergeAll(ctx, &snap.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to merge snapshot: %w", err)
		}
		result.MergeCounts = *counts
		return result, nil
	}

	if m.checkpointer != nil {
		info, err := m.checkpointer.AutoCheckpoint(ctx, "import")
		if err != nil {
			return nil, fmt.Errorf("failed to checkpoint before import: %w", err)
		}
		slog.Info("created checkpoint before overwrite", "checkpoint", info.ID)
	}

	if err := m.store.ReplaceAll(ctx, &snap.Data); err != nil {
		return nil, fmt.Errorf("failed to replace data: %w", err)
	}
	result.TransactionsAdded = len(snap.Data.Transactions)
	result.CategoriesAdded = len(snap.Data.Categories)
	result.BudgetsAdded = len(snap.Data.Budgets)
	return result, nil
}

// Validate checks the snapshot version and every record in it. The first
// failure is reported with the collection and index it came from.
func Validate(snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: empty document", ErrInvalidSnapshot)
	}
	if snap.Version != CurrentVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, snap.Version)
	}

	data := &snap.Data
	seen := make(map[string]bool, len(data.Transactions))
	for i := range data.Transactions {
		txn := &data.Transactions[i]
		if err := checkRecord(txn.ID, txn.CreatedAt, txn.UpdatedAt, seen); err != nil {
			return invalid("transactions", i, err)
		}
		if err := txn.Validate(); err != nil {
			return invalid("transactions", i, err)
		}
	}

	seen = make(map[string]bool, len(data.Categories))
	names := make(map[string]bool, len(data.Categories))
	for i := range data.Categories {
		cat := &data.Categories[i]
		if err := checkRecord(cat.ID, cat.CreatedAt, cat.UpdatedAt, seen); err != nil {
			return invalid("categories", i, err)
		}
		if err := cat.Validate(); err != nil {
			return invalid("categories", i, err)
		}
		key := strings.ToLower(strings.TrimSpace(cat.Name))
		if names[key] {
			return invalid("categories", i, fmt.Errorf("%w: %q", model.ErrDuplicateCategoryName, cat.Name))
		}
		names[key] = true
	}

	seen = make(map[string]bool, len(data.Budgets))
	months := make(map[string]bool, len(data.Budgets))
	for i := range data.Budgets {
		b := &data.Budgets[i]
		if err := checkRecord(b.ID, b.CreatedAt, b.UpdatedAt, seen); err != nil {
			return invalid("budgets", i, err)
		}
		if err := b.Validate(); err != nil {
			return invalid("budgets", i, err)
		}
		key := b.CategoryID + "/" + b.Month
		if months[key] {
			return invalid("budgets", i, fmt.Errorf("duplicate budget for %s", key))
		}
		months[key] = true
	}

	for i := range data.Settings {
		if err := data.Settings[i].Validate(); err != nil {
			return invalid("settings", i, err)
		}
	}
	return nil
}

func checkRecord(id string, created, updated time.Time, seen map[string]bool) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("missing id")
	}
	if seen[id] {
		return fmt.Errorf("duplicate id %q", id)
	}
	seen[id] = true
	if created.IsZero() || updated.IsZero() {
		return errors.New("missing timestamps")
	}
	return nil
}

func invalid(collection string, index int, err error) error {
	return fmt.Errorf("%w: %s[%d]: %w", ErrInvalidSnapshot, collection, index, err)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
