package model

import (
	"fmt"
	"strings"
	"time"
)

// CategoryType indicates which transaction types a category applies to.
type CategoryType string

const (
	// CategoryTypeExpense represents categories for expense transactions.
	CategoryTypeExpense CategoryType = "expense"
	// CategoryTypeIncome represents categories for income transactions.
	CategoryTypeIncome CategoryType = "income"
	// CategoryTypeBoth represents categories usable for either type.
	CategoryTypeBoth CategoryType = "both"
)

// Valid reports whether c is a known category type.
func (c CategoryType) Valid() bool {
	switch c {
	case CategoryTypeExpense, CategoryTypeIncome, CategoryTypeBoth:
		return true
	}
	return false
}

// Accepts reports whether a transaction of type t may use this category type.
func (c CategoryType) Accepts(t TransactionType) bool {
	return c == CategoryTypeBoth || string(c) == string(t)
}

// Defaults applied when a category is created without an icon or color.
const (
	DefaultCategoryIcon  = "tag"
	DefaultCategoryColor = "#6366F1"
)

// Category groups transactions for display and statistics.
type Category struct {
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Budget    *int64       `json:"budget,omitempty"` // default monthly budget
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Icon      string       `json:"icon"`
	Color     string       `json:"color"`
	Type      CategoryType `json:"type"`
	Order     int          `json:"order"`
}

// Normalize trims the name and fills in default icon and color.
func (c *Category) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	if c.Icon == "" {
		c.Icon = DefaultCategoryIcon
	}
	if c.Color == "" {
		c.Color = DefaultCategoryColor
	}
}

// Validate checks the category against the domain limits. Name uniqueness
// depends on the other categories and is checked by NameTaken.
func (c *Category) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidCategory)
	}
	if runeLen(name) > MaxCategoryNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidCategory, MaxCategoryNameLength)
	}
	if strings.TrimSpace(c.Icon) == "" {
		return fmt.Errorf("%w: icon is required", ErrInvalidCategory)
	}
	if !hexColorRegex.MatchString(c.Color) {
		return fmt.Errorf("%w: color %q is not a hex code", ErrInvalidCategory, c.Color)
	}
	if !c.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidCategory, c.Type)
	}
	if c.Budget != nil {
		if err := validateBudgetAmount(ErrInvalidCategory, *c.Budget); err != nil {
			return err
		}
	}
	return nil
}

// NameTaken reports whether name collides case-insensitively with any of
// existing, ignoring the category with id exceptID.
func NameTaken(existing []Category, name, exceptID string) bool {
	name = strings.TrimSpace(name)
	for _, cat := range existing {
		if cat.ID == exceptID {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(cat.Name), name) {
			return true
		}
	}
	return false
}

// CategoryPatch is a partial update. Nil fields are left unchanged;
// ClearBudget removes the default budget.
type CategoryPatch struct {
	Name        *string
	Icon        *string
	Color       *string
	Type        *CategoryType
	Budget      *int64
	ClearBudget bool
}

// Apply writes the patch onto c and returns the changed fields keyed by
// their JSON names.
func (c *Category) Apply(p CategoryPatch) map[string]any {
	changes := make(map[string]any)
	if p.Name != nil && strings.TrimSpace(*p.Name) != c.Name {
		c.Name = strings.TrimSpace(*p.Name)
		changes["name"] = c.Name
	}
	if p.Icon != nil && *p.Icon != c.Icon {
		c.Icon = *p.Icon
		changes["icon"] = c.Icon
	}
	if p.Color != nil && *p.Color != c.Color {
		c.Color = *p.Color
		changes["color"] = c.Color
	}
	if p.Type != nil && *p.Type != c.Type {
		c.Type = *p.Type
		changes["type"] = c.Type
	}
	switch {
	case p.ClearBudget && c.Budget != nil:
		c.Budget = nil
		changes["budget"] = nil
	case p.Budget != nil && (c.Budget == nil || *c.Budget != *p.Budget):
		v := *p.Budget
		c.Budget = &v
		changes["budget"] = v
	}
	return changes
}

// CategoryDisposition decides what happens to transactions that reference a
// category being deleted. An empty ReassignTo leaves them on UncategorizedID.
type CategoryDisposition struct {
	ReassignTo string
}

// Target returns the category id referencing transactions will point at.
func (d CategoryDisposition) Target() string {
	if d.ReassignTo == "" {
		return UncategorizedID
	}
	return d.ReassignTo
}
