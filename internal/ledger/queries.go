package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/Veraticus/household-ledger/internal/model"
)

// ListTransactions returns the active transactions matching every set
// filter, ordered by sortSpec. Ties keep insertion order.
func (l *Ledger) ListTransactions(ctx context.Context, filter model.TransactionFilter, sortSpec model.SortSpec) ([]model.Transaction, error) {
	if !sortSpec.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSort, sortSpec.Field)
	}
	if filter.From != "" {
		if err := model.ValidateDate(filter.From); err != nil {
			return nil, err
		}
	}
	if filter.To != "" {
		if err := model.ValidateDate(filter.To); err != nil {
			return nil, err
		}
	}

	txns, err := l.store.QueryTransactions(ctx, filter.TransactionQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	if filter.Memo != "" {
		txns = filterMemo(txns, filter.Memo)
	}
	sortTransactions(txns, sortSpec.Resolve())
	return txns, nil
}

// filterMemo keeps transactions whose memo contains needle, compared with
// Unicode case folding.
func filterMemo(txns []model.Transaction, needle string) []model.Transaction {
	fold := cases.Fold()
	needle = fold.String(needle)

	kept := txns[:0]
	for _, txn := range txns {
		if strings.Contains(fold.String(txn.Memo), needle) {
			kept = append(kept, txn)
		}
	}
	return kept
}

func sortTransactions(txns []model.Transaction, spec model.SortSpec) {
	var less func(a, b *model.Transaction) bool
	switch spec.Field {
	case model.SortByAmount:
		less = func(a, b *model.Transaction) bool { return a.Amount < b.Amount }
	case model.SortByCreatedAt:
		less = func(a, b *model.Transaction) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case model.SortByCategory:
		less = func(a, b *model.Transaction) bool { return a.CategoryID < b.CategoryID }
	default:
		less = func(a, b *model.Transaction) bool { return a.Date < b.Date }
	}

	sort.SliceStable(txns, func(i, j int) bool {
		if spec.Descending {
			return less(&txns[j], &txns[i])
		}
		return less(&txns[i], &txns[j])
	})
}

// MonthlyStats sums the active transactions of month (YYYY-MM).
func (l *Ledger) MonthlyStats(ctx context.Context, month string) (*model.MonthlyStats, error) {
	if err := model.ValidateMonth(month); err != nil {
		return nil, err
	}

	from, to := model.MonthRange(month)
	stats, err := l.store.GetMonthlyTotals(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to compute monthly stats: %w", err)
	}
	stats.Month = month
	return stats, nil
}

// CategoryStats totals the active transactions of month per category,
// largest first. An empty txnType includes both types. Transactions whose
// category no longer exists are left out.
func (l *Ledger) CategoryStats(ctx context.Context, month string, txnType model.TransactionType) ([]model.CategoryStat, error) {
	if err := model.ValidateMonth(month); err != nil {
		return nil, err
	}
	if txnType != "" && !txnType.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", model.ErrInvalidTransaction, txnType)
	}

	from, to := model.MonthRange(month)
	stats, err := l.store.GetCategoryTotals(ctx, from, to, txnType)
	if err != nil {
		return nil, fmt.Errorf("failed to compute category stats: %w", err)
	}
	return stats, nil
}

// RecentCategories returns up to limit categories used by the most recently
// created transactions, most recent first. Categories that no longer exist
// are skipped.
func (l *Ledger) RecentCategories(ctx context.Context, limit int) ([]model.Category, error) {
	if limit <= 0 {
		return nil, nil
	}

	recent, err := l.store.GetRecentTransactions(ctx, l.recentWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent transactions: %w", err)
	}

	byID, err := l.categoryIndex(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	result := make([]model.Category, 0, limit)
	for _, txn := range recent {
		if seen[txn.CategoryID] {
			continue
		}
		seen[txn.CategoryID] = true

		cat, ok := byID[txn.CategoryID]
		if !ok {
			continue
		}
		result = append(result, cat)
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

// Describe pairs transactions with their category's display fields. A
// missing category shows as model.UnknownCategoryName.
func (l *Ledger) Describe(ctx context.Context, txns []model.Transaction) ([]model.TransactionView, error) {
	byID, err := l.categoryIndex(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]model.TransactionView, len(txns))
	for i, txn := range txns {
		view := model.TransactionView{
			Transaction:   txn,
			CategoryName:  model.UnknownCategoryName,
			CategoryIcon:  model.DefaultCategoryIcon,
			CategoryColor: model.DefaultCategoryColor,
		}
		if cat, ok := byID[txn.CategoryID]; ok {
			view.CategoryName = cat.Name
			view.CategoryIcon = cat.Icon
			view.CategoryColor = cat.Color
		}
		views[i] = view
	}
	return views, nil
}

func (l *Ledger) categoryIndex(ctx context.Context) (map[string]model.Category, error) {
	categories, err := l.store.GetCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	byID := make(map[string]model.Category, len(categories))
	for _, cat := range categories {
		byID[cat.ID] = cat
	}
	return byID, nil
}
