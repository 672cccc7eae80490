package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/household-ledger/internal/model"
)

// AddTransaction validates and stores a new transaction. The ID is generated
// when empty; timestamps are always set here.
func (l *Ledger) AddTransaction(ctx context.Context, txn model.Transaction) (*model.Transaction, error) {
	txn.Memo = strings.TrimSpace(txn.Memo)
	if err := txn.Validate(); err != nil {
		return nil, err
	}

	if txn.ID == "" {
		txn.ID = l.newID()
	}
	now := l.timestamp()
	txn.CreatedAt = now
	txn.UpdatedAt = now
	txn.DeletedAt = nil

	if err := l.store.AddTransaction(ctx, &txn); err != nil {
		return nil, fmt.Errorf("failed to add transaction: %w", err)
	}

	l.recorder.Record(ctx, model.ActionCreate, model.EntityTransaction, txn.ID, txn)
	slog.Debug("added transaction", "id", txn.ID, "amount", txn.Amount, "type", txn.Type)
	return &txn, nil
}

// ImportTransactions stores externally sourced transactions, skipping any
// whose ID already exists. Every record is validated before anything is
// written. Imported records are not audited individually.
func (l *Ledger) ImportTransactions(ctx context.Context, txns []model.Transaction) (*model.MergeCounts, error) {
	now := l.timestamp()
	prepared := make([]model.Transaction, len(txns))
	for i, txn := range txns {
		txn.Memo = strings.TrimSpace(txn.Memo)
		if err := txn.Validate(); err != nil {
			return nil, fmt.Errorf("transaction at index %d: %w", i, err)
		}
		if txn.ID == "" {
			txn.ID = l.newID()
		}
		txn.CreatedAt = now
		txn.UpdatedAt = now
		txn.DeletedAt = nil
		prepared[i] = txn
	}

	counts, err := l.store.MergeAll(ctx, &model.Dataset{Transactions: prepared})
	if err != nil {
		return nil, fmt.Errorf("failed to import transactions: %w", err)
	}
	return counts, nil
}

// GetTransaction returns a transaction by ID, whether active or trashed.
func (l *Ledger) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	txn, err := l.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// UpdateTransaction applies a partial update to an active transaction.
// Trashed transactions must be restored first.
func (l *Ledger) UpdateTransaction(ctx context.Context, id string, patch model.TransactionPatch) (*model.Transaction, error) {
	txn, err := l.activeTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := *txn
	if patch.Memo != nil {
		trimmed := strings.TrimSpace(*patch.Memo)
		patch.Memo = &trimmed
	}
	changes := txn.Apply(patch)
	if err := txn.Validate(); err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return txn, nil
	}

	txn.UpdatedAt = l.timestamp()
	if err := l.store.UpdateTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}

	l.recorder.Record(ctx, model.ActionUpdate, model.EntityTransaction, txn.ID, model.UpdatePayload{
		Changes:  changes,
		Previous: previous,
	})
	return txn, nil
}

func (l *Ledger) activeTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	txn, err := l.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if txn.IsDeleted() {
		return nil, fmt.Errorf("%w: %s", ErrInTrash, id)
	}
	return txn, nil
}
