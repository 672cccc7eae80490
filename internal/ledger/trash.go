package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/Veraticus/household-ledger/internal/model"
)

// SoftDelete moves an active transaction to the trash.
func (l *Ledger) SoftDelete(ctx context.Context, id string) (*model.Transaction, error) {
	txn, err := l.activeTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	now := l.timestamp()
	txn.DeletedAt = &now
	txn.UpdatedAt = now
	if err := l.store.UpdateTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to delete transaction: %w", err)
	}

	l.recorder.Record(ctx, model.ActionDelete, model.EntityTransaction, txn.ID, txn)
	return txn, nil
}

// Restore brings a trashed transaction back.
func (l *Ledger) Restore(ctx context.Context, id string) (*model.Transaction, error) {
	txn, err := l.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if !txn.IsDeleted() {
		return nil, fmt.Errorf("%w: %s", ErrNotInTrash, id)
	}

	txn.DeletedAt = nil
	txn.UpdatedAt = l.timestamp()
	if err := l.store.UpdateTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to restore transaction: %w", err)
	}

	l.recorder.Record(ctx, model.ActionRestore, model.EntityTransaction, txn.ID, map[string]bool{"restored": true})
	return txn, nil
}

// PurgeExpired permanently removes transactions that have been in the trash
// longer than the retention period and returns how many were removed.
func (l *Ledger) PurgeExpired(ctx context.Context) (int, error) {
	cutoff := l.timestamp().Add(-l.retention)
	expired, err := l.store.GetTransactionsDeletedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to find expired transactions: %w", err)
	}
	if len(expired) == 0 {
		return 0, nil
	}

	ids := make([]string, len(expired))
	for i, txn := range expired {
		ids[i] = txn.ID
	}
	if _, err := l.store.DeleteTransactions(ctx, ids); err != nil {
		return 0, fmt.Errorf("failed to purge transactions: %w", err)
	}

	for _, txn := range expired {
		l.recorder.Record(ctx, model.ActionDelete, model.EntityTransaction, txn.ID, purgePayload{Purged: true, Record: txn})
	}

	slog.Info("purged expired transactions", "count", len(expired), "cutoff", cutoff)
	return len(expired), nil
}

// DeletePermanently removes a trashed transaction without waiting for the
// retention period.
func (l *Ledger) DeletePermanently(ctx context.Context, id string) error {
	txn, err := l.store.GetTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get transaction: %w", err)
	}
	if !txn.IsDeleted() {
		return fmt.Errorf("%w: %s", ErrNotInTrash, id)
	}

	if err := l.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	l.recorder.Record(ctx, model.ActionDelete, model.EntityTransaction, id, purgePayload{Purged: true, Record: *txn})
	return nil
}

// Trash lists trashed transactions, most recently deleted first, with the
// whole days left before each is purged.
func (l *Ledger) Trash(ctx context.Context) ([]model.TrashItem, error) {
	deleted, err := l.store.GetDeletedTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list trash: %w", err)
	}

	now := l.timestamp()
	items := make([]model.TrashItem, 0, len(deleted))
	for _, txn := range deleted {
		items = append(items, model.TrashItem{
			Transaction:   txn,
			DaysRemaining: daysRemaining(*txn.DeletedAt, now, l.retention),
		})
	}
	return items, nil
}

func daysRemaining(deletedAt, now time.Time, retention time.Duration) int {
	left := deletedAt.Add(retention).Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Hours() / 24))
}

type purgePayload struct {
	Record model.Transaction `json:"record"`
	Purged bool              `json:"purged"`
}
