package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/household-ledger/internal/audit"
	"github.com/Veraticus/household-ledger/internal/common"
	"github.com/Veraticus/household-ledger/internal/config"
	"github.com/Veraticus/household-ledger/internal/ledger"
	"github.com/Veraticus/household-ledger/internal/model"
	"github.com/Veraticus/household-ledger/internal/storage"
)

// app is an opened, migrated and initialized ledger.
type app struct {
	store  *storage.SQLiteStorage
	ledger *ledger.Ledger
	audit  *audit.Logger
	cfg    *config.LedgerConfig
}

// openApp opens the configured database and prepares the ledger.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadLedgerConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return nil, common.NewUserError("could not open the ledger database", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	auditLogger := audit.NewLogger(store, audit.WithMaxEntries(cfg.AuditMaxLogs))
	l := ledger.NewWithConfig(store, auditLogger, ledger.Config{
		TrashRetention: cfg.TrashRetention,
		RecentWindow:   cfg.RecentWindow,
	})

	report, err := l.Init(ctx)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize ledger: %w", err)
	}
	slog.Debug("ledger ready",
		"db", cfg.DatabasePath,
		"purged", report.Purged,
		"audit_trimmed", report.AuditTrimmed)

	return &app{store: store, ledger: l, audit: auditLogger, cfg: cfg}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Warn("failed to close database", "error", err)
	}
}

// currency returns the configured display currency.
func (a *app) currency(ctx context.Context) string {
	settings, err := a.ledger.GetSettings(ctx)
	if err != nil {
		return ""
	}
	return settings.Currency
}

func parseType(s string) (model.TransactionType, error) {
	t := model.TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown type %q (want expense or income)", model.ErrInvalidTransaction, s)
	}
	return t, nil
}

func parseCategoryType(s string) (model.CategoryType, error) {
	t := model.CategoryType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown type %q (want expense, income or both)", model.ErrInvalidCategory, s)
	}
	return t, nil
}

// parseSort reads "field" or "-field"; the minus sign sorts descending.
func parseSort(s string) (model.SortSpec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.SortSpec{}, nil
	}

	spec := model.SortSpec{}
	if strings.HasPrefix(s, "-") {
		spec.Descending = true
		s = s[1:]
	}
	spec.Field = model.SortField(s)
	if spec.Field == "" || !spec.Valid() {
		return model.SortSpec{}, fmt.Errorf("%w: %q", ledger.ErrInvalidSort, s)
	}
	return spec, nil
}

func parseAmount(s string) (int64, error) {
	v, err := strconv.ParseInt(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q is not a whole number", model.ErrValidation, s)
	}
	return v, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// monthOrCurrent returns month, or the current month when it is empty.
func monthOrCurrent(month string, now time.Time) string {
	if month == "" {
		return now.Format(model.MonthLayout)
	}
	return month
}

func todayOr(date string, now time.Time) string {
	if date == "" {
		return now.Format(model.DateLayout)
	}
	return date
}

// changedString returns a pointer to the flag value if the user set it.
func changedString(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

// changedAmount parses an amount flag if the user set it.
func changedAmount(cmd *cobra.Command, name string) (*int64, error) {
	s := changedString(cmd, name)
	if s == nil {
		return nil, nil
	}
	v, err := parseAmount(*s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func formatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
