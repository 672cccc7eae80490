// Package model defines the core domain models used throughout the application.
package model

import (
	"fmt"
	"strings"
	"time"
)

// TransactionType indicates whether money left or entered the household.
type TransactionType string

const (
	// TypeExpense represents money spent.
	TypeExpense TransactionType = "expense"
	// TypeIncome represents money received.
	TypeIncome TransactionType = "income"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == TypeExpense || t == TypeIncome
}

// UncategorizedID is the sentinel category id left on transactions whose
// category was deleted without reassignment.
const UncategorizedID = "uncategorized"

// Transaction is a single income or expense entry.
type Transaction struct {
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	DeletedAt    *time.Time      `json:"deletedAt,omitempty"`
	ID           string          `json:"id"`
	Date         string          `json:"date"`
	CategoryID   string          `json:"categoryId"`
	Memo         string          `json:"memo,omitempty"`
	ReceiptImage string          `json:"receiptImage,omitempty"` // data URI
	Type         TransactionType `json:"type"`
	Amount       int64           `json:"amount"`
}

// IsDeleted reports whether the transaction is in the trash.
func (t *Transaction) IsDeleted() bool {
	return t.DeletedAt != nil
}

// Validate checks the user-editable fields against the domain limits.
func (t *Transaction) Validate() error {
	if err := validateAmount(t.Amount); err != nil {
		return err
	}
	if err := ValidateDate(t.Date); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return fmt.Errorf("%w: missing category", ErrInvalidTransaction)
	}
	if !t.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTransaction, t.Type)
	}
	if runeLen(t.Memo) > MaxMemoLength {
		return fmt.Errorf("%w: memo exceeds %d characters", ErrInvalidTransaction, MaxMemoLength)
	}
	if t.ReceiptImage != "" && !strings.HasPrefix(t.ReceiptImage, "data:") {
		return fmt.Errorf("%w: receipt image must be a data URI", ErrInvalidTransaction)
	}
	return nil
}

// TransactionPatch is a partial update. Nil fields are left unchanged.
type TransactionPatch struct {
	Amount       *int64
	Date         *string
	CategoryID   *string
	Memo         *string
	ReceiptImage *string
	Type         *TransactionType
}

// IsEmpty reports whether the patch changes nothing.
func (p TransactionPatch) IsEmpty() bool {
	return p.Amount == nil && p.Date == nil && p.CategoryID == nil &&
		p.Memo == nil && p.ReceiptImage == nil && p.Type == nil
}

// Apply writes the patch onto t and returns the fields it changed, keyed by
// their JSON names.
func (t *Transaction) Apply(p TransactionPatch) map[string]any {
	changes := make(map[string]any)
	if p.Amount != nil && *p.Amount != t.Amount {
		t.Amount = *p.Amount
		changes["amount"] = t.Amount
	}
	if p.Date != nil && *p.Date != t.Date {
		t.Date = *p.Date
		changes["date"] = t.Date
	}
	if p.CategoryID != nil && *p.CategoryID != t.CategoryID {
		t.CategoryID = *p.CategoryID
		changes["categoryId"] = t.CategoryID
	}
	if p.Memo != nil && *p.Memo != t.Memo {
		t.Memo = *p.Memo
		changes["memo"] = t.Memo
	}
	if p.ReceiptImage != nil && *p.ReceiptImage != t.ReceiptImage {
		t.ReceiptImage = *p.ReceiptImage
		changes["receiptImage"] = t.ReceiptImage
	}
	if p.Type != nil && *p.Type != t.Type {
		t.Type = *p.Type
		changes["type"] = t.Type
	}
	return changes
}

// TransactionView pairs a transaction with its resolved category for display.
type TransactionView struct {
	Transaction
	CategoryName  string `json:"categoryName"`
	CategoryIcon  string `json:"categoryIcon"`
	CategoryColor string `json:"categoryColor"`
}

// UnknownCategoryName is shown for transactions whose category no longer exists.
const UnknownCategoryName = "Unknown category"
