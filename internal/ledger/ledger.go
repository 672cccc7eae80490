// Package ledger implements the household ledger on top of a Storage: entity
// validation, the trash lifecycle, queries and aggregates, budgets and
// settings. Every transaction and category mutation is handed to an
// ActionRecorder after it succeeds.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/household-ledger/internal/common"
	"github.com/Veraticus/household-ledger/internal/model"
	"github.com/Veraticus/household-ledger/internal/service"
)

// Ledger errors.
var (
	ErrNotInTrash       = errors.New("transaction is not in the trash")
	ErrInTrash          = fmt.Errorf("%w: transaction is in the trash", common.ErrNotFound)
	ErrInvalidSort      = fmt.Errorf("%w: unknown sort field", model.ErrValidation)
	ErrInvalidPasscode  = fmt.Errorf("%w: passcode must be 4 to 32 characters", model.ErrValidation)
	ErrPasscodeDisabled = errors.New("passcode is not enabled")
	ErrInvalidReassign  = fmt.Errorf("%w: invalid reassignment target", model.ErrValidation)
)

// Config holds tunables for the ledger.
type Config struct {
	Clock func() time.Time
	NewID func() string
	// TrashRetention is how long a soft-deleted transaction survives.
	TrashRetention time.Duration
	// RecentWindow is how many recent transactions RecentCategories scans.
	RecentWindow int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Clock:          time.Now,
		NewID:          uuid.NewString,
		TrashRetention: 30 * 24 * time.Hour,
		RecentWindow:   50,
	}
}

// Ledger is the persistence-facing API of the household ledger.
type Ledger struct {
	store        service.Storage
	recorder     service.ActionRecorder
	now          func() time.Time
	newID        func() string
	retention    time.Duration
	recentWindow int
}

// New creates a ledger with the default configuration.
func New(store service.Storage, recorder service.ActionRecorder) *Ledger {
	return NewWithConfig(store, recorder, DefaultConfig())
}

// NewWithConfig creates a ledger with custom configuration. Zero fields fall
// back to their defaults.
func NewWithConfig(store service.Storage, recorder service.ActionRecorder, config Config) *Ledger {
	defaults := DefaultConfig()
	if config.Clock == nil {
		config.Clock = defaults.Clock
	}
	if config.NewID == nil {
		config.NewID = defaults.NewID
	}
	if config.TrashRetention <= 0 {
		config.TrashRetention = defaults.TrashRetention
	}
	if config.RecentWindow <= 0 {
		config.RecentWindow = defaults.RecentWindow
	}

	return &Ledger{
		store:        store,
		recorder:     recorder,
		now:          config.Clock,
		newID:        config.NewID,
		retention:    config.TrashRetention,
		recentWindow: config.RecentWindow,
	}
}

// Retention returns how long trashed transactions are kept.
func (l *Ledger) Retention() time.Duration {
	return l.retention
}

// MaintenanceReport summarizes one maintenance run.
type MaintenanceReport struct {
	Purged         int
	AuditTrimmed   int64
	SettingsSeeded bool
	CategoriesSeed int
}

// Init prepares a freshly opened store: it creates the settings record and
// the default categories when missing, then runs maintenance.
func (l *Ledger) Init(ctx context.Context) (*MaintenanceReport, error) {
	seeded, err := l.ensureSettings(ctx)
	if err != nil {
		return nil, err
	}

	categories, err := l.seedDefaultCategories(ctx)
	if err != nil {
		return nil, err
	}

	report, err := l.RunMaintenance(ctx)
	if err != nil {
		return nil, err
	}
	report.SettingsSeeded = seeded
	report.CategoriesSeed = categories

	slog.Debug("ledger initialized",
		"settings_seeded", seeded,
		"categories_seeded", categories,
		"purged", report.Purged)
	return report, nil
}

// RunMaintenance purges expired trash and trims the audit log.
func (l *Ledger) RunMaintenance(ctx context.Context) (*MaintenanceReport, error) {
	purged, err := l.PurgeExpired(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to purge trash: %w", err)
	}

	trimmed, err := l.recorder.Trim(ctx)
	if err != nil {
		slog.Warn("failed to trim audit log", "error", err)
	}

	return &MaintenanceReport{Purged: purged, AuditTrimmed: trimmed}, nil
}

// ActionLog returns up to limit audit entries, newest first.
func (l *Ledger) ActionLog(ctx context.Context, limit int) ([]model.ActionLog, error) {
	return l.recorder.Recent(ctx, limit)
}

func (l *Ledger) timestamp() time.Time {
	return l.now().UTC()
}
