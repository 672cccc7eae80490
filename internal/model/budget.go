package model

import (
	"fmt"
	"strings"
	"time"
)

// Budget is a per-category allocation for one month. It overrides the
// category's default budget for that month.
type Budget struct {
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	ID         string    `json:"id"`
	CategoryID string    `json:"categoryId"`
	Month      string    `json:"month"`
	Amount     int64     `json:"amount"`
}

// Validate checks the budget fields.
func (b *Budget) Validate() error {
	if strings.TrimSpace(b.CategoryID) == "" {
		return fmt.Errorf("%w: missing category", ErrInvalidBudget)
	}
	if err := ValidateMonth(b.Month); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBudget, err)
	}
	return validateBudgetAmount(ErrInvalidBudget, b.Amount)
}

// BudgetLine reports one category's budget use for a month.
type BudgetLine struct {
	CategoryID   string `json:"categoryId"`
	CategoryName string `json:"categoryName"`
	Allocated    int64  `json:"allocated"`
	Spent        int64  `json:"spent"`
	Remaining    int64  `json:"remaining"`
	FromDefault  bool   `json:"fromDefault"` // allocation came from Category.Budget
}

// BudgetReport summarizes budget use for a month.
type BudgetReport struct {
	Ceiling    *int64       `json:"ceiling,omitempty"`
	Month      string       `json:"month"`
	Lines      []BudgetLine `json:"lines"`
	TotalSpent int64        `json:"totalSpent"`
}

// OverCeiling reports whether total expenses exceed the overall ceiling.
func (r *BudgetReport) OverCeiling() bool {
	return r.Ceiling != nil && r.TotalSpent > *r.Ceiling
}
