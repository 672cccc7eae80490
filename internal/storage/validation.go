// Package storage provides the data persistence layer for the ledger.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/household-ledger/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrInvalidTransaction = errors.New("invalid transaction record")
	ErrInvalidCategory    = errors.New("invalid category record")
	ErrInvalidBudget      = errors.New("invalid budget record")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTransactionRecord checks the fields the table requires. Domain
// rules are enforced by the ledger before anything reaches the store.
func validateTransactionRecord(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if txn.Date == "" {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if txn.CreatedAt.IsZero() || txn.UpdatedAt.IsZero() {
		return fmt.Errorf("%w: missing timestamps", ErrInvalidTransaction)
	}
	return nil
}

func validateCategoryRecord(cat *model.Category) error {
	if cat == nil {
		return fmt.Errorf("%w: category", ErrNilParameter)
	}
	if cat.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidCategory)
	}
	if strings.TrimSpace(cat.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidCategory)
	}
	return nil
}

func validateBudgetRecord(b *model.Budget) error {
	if b == nil {
		return fmt.Errorf("%w: budget", ErrNilParameter)
	}
	if b.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidBudget)
	}
	if b.CategoryID == "" || b.Month == "" {
		return fmt.Errorf("%w: missing category or month", ErrInvalidBudget)
	}
	return nil
}
