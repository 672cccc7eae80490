package storage

import (
	"context"
	"fmt"

	"github.com/Veraticus/household-ledger/internal/model"
)

// AppendActionLog inserts an audit entry and sets entry.ID.
func (s *SQLiteStorage) AppendActionLog(ctx context.Context, entry *model.ActionLog) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("%w: action log", ErrNilParameter)
	}

	payload := string(entry.Payload)
	if payload == "" {
		payload = "null"
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO action_logs (action, entity_type, entity_id, payload, timestamp)
		VALUES (?, ?, ?, ?, ?)`,
		string(entry.Action),
		string(entry.EntityType),
		entry.EntityID,
		payload,
		utc(entry.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("failed to append action log: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read action log id: %w", err)
	}
	entry.ID = id
	return nil
}

// CountActionLogs returns the number of stored audit entries.
func (s *SQLiteStorage) CountActionLogs(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM action_logs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count action logs: %w", err)
	}
	return n, nil
}

// DeleteOldestActionLogs removes the n entries with the oldest timestamps.
// Entries sharing a timestamp go in insertion order.
func (s *SQLiteStorage) DeleteOldestActionLogs(ctx context.Context, n int) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, nil
	}

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM action_logs
		WHERE id IN (
			SELECT id FROM action_logs ORDER BY timestamp ASC, id ASC LIMIT ?
		)`, n)
	if err != nil {
		return 0, fmt.Errorf("failed to trim action logs: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return deleted, nil
}

// GetActionLogs returns up to limit entries, newest first. A limit of zero
// or less returns every entry.
func (s *SQLiteStorage) GetActionLogs(ctx context.Context, limit int) ([]model.ActionLog, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action, entity_type, entity_id, payload, timestamp
		FROM action_logs
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query action logs: %w", err)
	}
	defer rows.Close()

	var logs []model.ActionLog
	for rows.Next() {
		var (
			entry      model.ActionLog
			action     string
			entityType string
			payload    string
		)
		if err := rows.Scan(&entry.ID, &action, &entityType, &entry.EntityID, &payload, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan action log: %w", err)
		}
		entry.Action = model.Action(action)
		entry.EntityType = model.EntityType(entityType)
		entry.Payload = []byte(payload)
		entry.Timestamp = entry.Timestamp.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating action logs: %w", err)
	}
	return logs, nil
}
