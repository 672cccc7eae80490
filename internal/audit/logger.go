// Package audit records an append-only trail of ledger mutations.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/household-ledger/internal/common"
	"github.com/Veraticus/household-ledger/internal/model"
	"github.com/Veraticus/household-ledger/internal/service"
)

// DefaultMaxEntries is the number of entries retained after trimming.
const DefaultMaxEntries = 500

// Logger appends action log entries and keeps the log bounded.
type Logger struct {
	store      service.ActionLogStore
	now        func() time.Time
	maxEntries int
}

// Option configures a Logger.
type Option func(*Logger)

// WithMaxEntries sets the retention count. Values below one are ignored.
func WithMaxEntries(n int) Option {
	return func(l *Logger) {
		if n > 0 {
			l.maxEntries = n
		}
	}
}

// WithClock sets the time source used for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLogger creates a logger writing to store.
func NewLogger(store service.ActionLogStore, opts ...Option) *Logger {
	l := &Logger{
		store:      store,
		now:        time.Now,
		maxEntries: DefaultMaxEntries,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// MaxEntries returns the retention count.
func (l *Logger) MaxEntries() int {
	return l.maxEntries
}

// Record appends one entry and trims the log. It never fails: the mutation
// being described has already happened, so problems are only logged.
func (l *Logger) Record(ctx context.Context, action model.Action, entityType model.EntityType, entityID string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("failed to encode audit payload",
			"action", action, "entity_type", entityType, "entity_id", entityID, "error", err)
		raw = []byte("null")
	}

	entry := &model.ActionLog{
		Timestamp:  l.now().UTC(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Payload:    raw,
	}
	if err := l.store.AppendActionLog(ctx, entry); err != nil {
		common.LogError(err, "failed to append audit entry", common.Fields{
			"action":      action,
			"entity_type": entityType,
			"entity_id":   entityID,
		})
		return
	}

	if _, err := l.Trim(ctx); err != nil {
		slog.Warn("failed to trim audit log", "error", err)
	}
}

// Trim removes the oldest entries beyond the retention count and returns
// how many were removed.
func (l *Logger) Trim(ctx context.Context) (int64, error) {
	count, err := l.store.CountActionLogs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count audit entries: %w", err)
	}
	if count <= l.maxEntries {
		return 0, nil
	}

	removed, err := l.store.DeleteOldestActionLogs(ctx, count-l.maxEntries)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old audit entries: %w", err)
	}
	slog.Debug("trimmed audit log", "removed", removed, "max", l.maxEntries)
	return removed, nil
}

// Recent returns up to limit entries, newest first. A limit of zero or less
// returns every entry.
func (l *Logger) Recent(ctx context.Context, limit int) ([]model.ActionLog, error) {
	logs, err := l.store.GetActionLogs(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}
	return logs, nil
}
