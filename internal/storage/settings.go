package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/household-ledger/internal/common"
	"github.com/Veraticus/household-ledger/internal/model"
)

// GetSettings returns the settings singleton, or ErrNotFound before it has
// been saved for the first time.
func (s *SQLiteStorage) GetSettings(ctx context.Context) (*model.Settings, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		settings  model.Settings
		weekStart string
		theme     string
		budget    sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, currency, week_start, theme, passcode_enabled, passcode_hash,
		       monthly_budget, language, updated_at
		FROM settings
		WHERE id = ?`, model.SettingsID,
	).Scan(
		&settings.ID,
		&settings.Currency,
		&weekStart,
		&theme,
		&settings.PasscodeEnabled,
		&settings.PasscodeHash,
		&budget,
		&settings.Language,
		&settings.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: settings", common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}

	settings.WeekStart = model.WeekStart(weekStart)
	settings.Theme = model.Theme(theme)
	settings.MonthlyBudget = intPtr(budget)
	settings.UpdatedAt = settings.UpdatedAt.UTC()
	return &settings, nil
}

// SaveSettings upserts the settings singleton. The record id is always
// SettingsID regardless of settings.ID.
func (s *SQLiteStorage) SaveSettings(ctx context.Context, settings *model.Settings) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if settings == nil {
		return fmt.Errorf("%w: settings", ErrNilParameter)
	}
	return saveSettingsTx(ctx, s.db, settings)
}

func saveSettingsTx(ctx context.Context, q queryable, settings *model.Settings) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO settings (id, currency, week_start, theme, passcode_enabled, passcode_hash,
		                      monthly_budget, language, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			currency = excluded.currency,
			week_start = excluded.week_start,
			theme = excluded.theme,
			passcode_enabled = excluded.passcode_enabled,
			passcode_hash = excluded.passcode_hash,
			monthly_budget = excluded.monthly_budget,
			language = excluded.language,
			updated_at = excluded.updated_at`,
		model.SettingsID,
		settings.Currency,
		string(settings.WeekStart),
		string(settings.Theme),
		settings.PasscodeEnabled,
		settings.PasscodeHash,
		nullableInt(settings.MonthlyBudget),
		settings.Language,
		utc(settings.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
