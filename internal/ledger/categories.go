package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/household-ledger/internal/model"
)

// defaultCategories are created the first time the ledger starts with an
// empty category table.
var defaultCategories = []model.Category{
	{ID: "food", Name: "Food", Icon: "utensils", Color: "#F97316", Type: model.CategoryTypeExpense},
	{ID: "daily-goods", Name: "Daily goods", Icon: "shopping-bag", Color: "#EAB308", Type: model.CategoryTypeExpense},
	{ID: "transport", Name: "Transport", Icon: "train", Color: "#3B82F6", Type: model.CategoryTypeExpense},
	{ID: "entertainment", Name: "Entertainment", Icon: "film", Color: "#A855F7", Type: model.CategoryTypeExpense},
	{ID: "utilities", Name: "Utilities", Icon: "zap", Color: "#06B6D4", Type: model.CategoryTypeExpense},
	{ID: "medical", Name: "Medical", Icon: "heart-pulse", Color: "#EF4444", Type: model.CategoryTypeExpense},
	{ID: "other", Name: "Other", Icon: "tag", Color: "#6B7280", Type: model.CategoryTypeExpense},
	{ID: "salary", Name: "Salary", Icon: "wallet", Color: "#22C55E", Type: model.CategoryTypeIncome},
	{ID: "bonus", Name: "Bonus", Icon: "gift", Color: "#10B981", Type: model.CategoryTypeIncome},
	{ID: "other-income", Name: "Other income", Icon: "coins", Color: "#84CC16", Type: model.CategoryTypeIncome},
}

func (l *Ledger) seedDefaultCategories(ctx context.Context) (int, error) {
	existing, err := l.store.GetCategories(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load categories: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	now := l.timestamp()
	for i, cat := range defaultCategories {
		cat.Order = i
		cat.CreatedAt = now
		cat.UpdatedAt = now
		if err := l.store.AddCategory(ctx, &cat); err != nil {
			return 0, fmt.Errorf("failed to seed category %q: %w", cat.Name, err)
		}
	}

	slog.Info("seeded default categories", "count", len(defaultCategories))
	return len(defaultCategories), nil
}

// Categories returns all categories in display order.
func (l *Ledger) Categories(ctx context.Context) ([]model.Category, error) {
	categories, err := l.store.GetCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	return categories, nil
}

// GetCategory returns a category by ID.
func (l *Ledger) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	cat, err := l.store.GetCategory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return cat, nil
}

// CreateCategory validates and stores a new category at the end of the
// display order. Names are unique ignoring case.
func (l *Ledger) CreateCategory(ctx context.Context, cat model.Category) (*model.Category, error) {
	cat.Normalize()
	if err := cat.Validate(); err != nil {
		return nil, err
	}

	existing, err := l.store.GetCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	if model.NameTaken(existing, cat.Name, "") {
		return nil, fmt.Errorf("%w: %q", model.ErrDuplicateCategoryName, cat.Name)
	}

	order, err := l.store.NextCategoryOrder(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to determine category order: %w", err)
	}

	if cat.ID == "" {
		cat.ID = l.newID()
	}
	now := l.timestamp()
	cat.Order = order
	cat.CreatedAt = now
	cat.UpdatedAt = now

	if err := l.store.AddCategory(ctx, &cat); err != nil {
		return nil, fmt.Errorf("failed to add category: %w", err)
	}

	l.recorder.Record(ctx, model.ActionCreate, model.EntityCategory, cat.ID, cat)
	return &cat, nil
}

// UpdateCategory applies a partial update to a category.
func (l *Ledger) UpdateCategory(ctx context.Context, id string, patch model.CategoryPatch) (*model.Category, error) {
	cat, err := l.store.GetCategory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	previous := *cat
	changes := cat.Apply(patch)
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return cat, nil
	}

	if _, renamed := changes["name"]; renamed {
		existing, err := l.store.GetCategories(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load categories: %w", err)
		}
		if model.NameTaken(existing, cat.Name, cat.ID) {
			return nil, fmt.Errorf("%w: %q", model.ErrDuplicateCategoryName, cat.Name)
		}
	}

	cat.UpdatedAt = l.timestamp()
	if err := l.store.UpdateCategory(ctx, cat); err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	l.recorder.Record(ctx, model.ActionUpdate, model.EntityCategory, cat.ID, model.UpdatePayload{
		Changes:  changes,
		Previous: previous,
	})
	return cat, nil
}

// ReorderCategories sets the display order to the order of ids. ids must
// name every category exactly once.
func (l *Ledger) ReorderCategories(ctx context.Context, ids []string) error {
	existing, err := l.store.GetCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}
	if len(ids) != len(existing) {
		return fmt.Errorf("%w: expected %d ids, got %d", model.ErrInvalidCategory, len(existing), len(ids))
	}

	byID := make(map[string]model.Category, len(existing))
	for _, cat := range existing {
		byID[cat.ID] = cat
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return fmt.Errorf("%w: unknown category %q", model.ErrInvalidCategory, id)
		}
		if seen[id] {
			return fmt.Errorf("%w: category %q listed twice", model.ErrInvalidCategory, id)
		}
		seen[id] = true
	}

	if err := l.store.ReorderCategories(ctx, ids, l.timestamp()); err != nil {
		return fmt.Errorf("failed to reorder categories: %w", err)
	}

	for i, id := range ids {
		prev := byID[id]
		if prev.Order == i {
			continue
		}
		l.recorder.Record(ctx, model.ActionUpdate, model.EntityCategory, id, model.UpdatePayload{
			Changes:  map[string]any{"order": i},
			Previous: prev,
		})
	}
	return nil
}

// DeleteCategory removes a category. Transactions that used it, trashed ones
// included, move to the disposition's target. It returns the number of
// transactions moved.
func (l *Ledger) DeleteCategory(ctx context.Context, id string, disposition model.CategoryDisposition) (int64, error) {
	cat, err := l.store.GetCategory(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to get category: %w", err)
	}

	target := disposition.Target()
	if target == id {
		return 0, fmt.Errorf("%w: cannot reassign %q to itself", ErrInvalidReassign, id)
	}
	if disposition.ReassignTo != "" {
		if _, err := l.store.GetCategory(ctx, target); err != nil {
			return 0, fmt.Errorf("%w: %q: %w", ErrInvalidReassign, target, err)
		}
	}

	moved, err := l.store.DeleteCategory(ctx, id, target)
	if err != nil {
		return 0, fmt.Errorf("failed to delete category: %w", err)
	}

	l.recorder.Record(ctx, model.ActionDelete, model.EntityCategory, id, cat)
	return moved, nil
}
