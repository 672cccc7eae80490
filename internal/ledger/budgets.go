package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/household-ledger/internal/common"
	"github.com/Veraticus/household-ledger/internal/model"
)

// SetBudget creates or replaces the budget of a category for a month.
func (l *Ledger) SetBudget(ctx context.Context, categoryID, month string, amount int64) (*model.Budget, error) {
	budget := model.Budget{CategoryID: categoryID, Month: month, Amount: amount}
	if err := budget.Validate(); err != nil {
		return nil, err
	}
	if _, err := l.store.GetCategory(ctx, categoryID); err != nil {
		return nil, fmt.Errorf("%w: category %q: %w", model.ErrInvalidBudget, categoryID, err)
	}

	now := l.timestamp()
	existing, err := l.store.GetBudgetFor(ctx, categoryID, month)
	switch {
	case err == nil:
		existing.Amount = amount
		existing.UpdatedAt = now
		if err := l.store.UpdateBudget(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to update budget: %w", err)
		}
		return existing, nil
	case errors.Is(err, common.ErrNotFound):
	default:
		return nil, fmt.Errorf("failed to get budget: %w", err)
	}

	budget.ID = l.newID()
	budget.CreatedAt = now
	budget.UpdatedAt = now
	if err := l.store.AddBudget(ctx, &budget); err != nil {
		return nil, fmt.Errorf("failed to add budget: %w", err)
	}
	return &budget, nil
}

// DeleteBudget removes a monthly budget.
func (l *Ledger) DeleteBudget(ctx context.Context, id string) error {
	if err := l.store.DeleteBudget(ctx, id); err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
	}
	return nil
}

// Budgets returns the budgets for month, or all budgets when month is empty.
func (l *Ledger) Budgets(ctx context.Context, month string) ([]model.Budget, error) {
	if month != "" {
		if err := model.ValidateMonth(month); err != nil {
			return nil, err
		}
	}
	budgets, err := l.store.GetBudgets(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	return budgets, nil
}

// BudgetReport compares each budgeted category's expenses in month against
// its allocation. A monthly budget takes precedence over the category's
// default budget; categories with neither are left out. The overall ceiling
// comes from the settings.
func (l *Ledger) BudgetReport(ctx context.Context, month string) (*model.BudgetReport, error) {
	if err := model.ValidateMonth(month); err != nil {
		return nil, err
	}

	categories, err := l.store.GetCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	budgets, err := l.store.GetBudgets(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("failed to load budgets: %w", err)
	}
	from, to := model.MonthRange(month)
	spending, err := l.store.GetCategoryTotals(ctx, from, to, model.TypeExpense)
	if err != nil {
		return nil, fmt.Errorf("failed to load spending: %w", err)
	}
	totals, err := l.store.GetMonthlyTotals(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load monthly totals: %w", err)
	}
	settings, err := l.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	monthly := make(map[string]int64, len(budgets))
	for _, b := range budgets {
		monthly[b.CategoryID] = b.Amount
	}
	spent := make(map[string]int64, len(spending))
	for _, st := range spending {
		spent[st.CategoryID] = st.TotalAmount
	}

	report := &model.BudgetReport{
		Month:      month,
		Ceiling:    settings.MonthlyBudget,
		TotalSpent: totals.Expense,
		Lines:      []model.BudgetLine{},
	}
	for _, cat := range categories {
		if !cat.Type.Accepts(model.TypeExpense) {
			continue
		}

		allocated, ok := monthly[cat.ID]
		fromDefault := false
		if !ok {
			if cat.Budget == nil {
				continue
			}
			allocated = *cat.Budget
			fromDefault = true
		}

		report.Lines = append(report.Lines, model.BudgetLine{
			CategoryID:   cat.ID,
			CategoryName: cat.Name,
			Allocated:    allocated,
			Spent:        spent[cat.ID],
			Remaining:    allocated - spent[cat.ID],
			FromDefault:  fromDefault,
		})
	}
	return report, nil
}
