package model

// TransactionQuery carries the filters the store can answer from its
// indexes. Only non-deleted transactions are ever returned.
type TransactionQuery struct {
	MinAmount   *int64
	MaxAmount   *int64
	From        string // inclusive, YYYY-MM-DD; empty = unbounded
	To          string // inclusive, YYYY-MM-DD; empty = unbounded
	Type        TransactionType
	CategoryIDs []string
}

// TransactionFilter is the full set of composable list filters.
type TransactionFilter struct {
	TransactionQuery
	Memo string // case-insensitive substring
}

// SortField selects the key transactions are ordered by.
type SortField string

// Sort keys.
const (
	SortByDate      SortField = "date"
	SortByAmount    SortField = "amount"
	SortByCreatedAt SortField = "createdAt"
	SortByCategory  SortField = "category"
)

// SortSpec orders a transaction listing. The zero value means date descending.
type SortSpec struct {
	Field      SortField
	Descending bool
}

// Resolve returns the effective sort, applying the default.
func (s SortSpec) Resolve() SortSpec {
	if s.Field == "" {
		return SortSpec{Field: SortByDate, Descending: true}
	}
	return s
}

// Valid reports whether the sort field is known (or empty).
func (s SortSpec) Valid() bool {
	switch s.Field {
	case "", SortByDate, SortByAmount, SortByCreatedAt, SortByCategory:
		return true
	}
	return false
}

// MonthlyStats aggregates one calendar month.
type MonthlyStats struct {
	Month            string `json:"month"`
	Income           int64  `json:"income"`
	Expense          int64  `json:"expense"`
	Balance          int64  `json:"balance"`
	TransactionCount int    `json:"transactionCount"`
}

// CategoryStat aggregates one category within a month.
type CategoryStat struct {
	CategoryID   string `json:"categoryId"`
	CategoryName string `json:"categoryName"`
	Icon         string `json:"icon"`
	Color        string `json:"color"`
	TotalAmount  int64  `json:"totalAmount"`
	Count        int    `json:"count"`
}

// TrashItem is a soft-deleted transaction with its remaining lifetime.
type TrashItem struct {
	Transaction
	DaysRemaining int `json:"daysRemaining"`
}

// Dataset is the full entity set moved by import and export.
type Dataset struct {
	Transactions []Transaction `json:"transactions"`
	Categories   []Category    `json:"categories"`
	Settings     []Settings    `json:"settings"`
	Budgets      []Budget      `json:"budgets"`
}

// MergeCounts reports what a merge inserted and skipped.
type MergeCounts struct {
	TransactionsAdded   int `json:"transactionsAdded"`
	TransactionsSkipped int `json:"transactionsSkipped"`
	CategoriesAdded     int `json:"categoriesAdded"`
	CategoriesSkipped   int `json:"categoriesSkipped"`
	BudgetsAdded        int `json:"budgetsAdded"`
	BudgetsSkipped      int `json:"budgetsSkipped"`
}
