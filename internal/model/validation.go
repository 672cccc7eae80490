package model

import (
	"errors"
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"
)

// Domain limits.
const (
	MinAmount             = 1
	MaxAmount             = 9_999_999
	MaxBudget             = 9_999_999
	MaxMemoLength         = 200
	MaxCategoryNameLength = 20

	// DateLayout is the calendar-day form transactions are stored in.
	DateLayout = "2006-01-02"
	// MonthLayout is the calendar-month form used by stats and budgets.
	MonthLayout = "2006-01"
)

// Validation errors. Every specific error wraps ErrValidation.
var (
	ErrValidation            = errors.New("validation failed")
	ErrInvalidTransaction    = fmt.Errorf("%w: invalid transaction", ErrValidation)
	ErrInvalidCategory       = fmt.Errorf("%w: invalid category", ErrValidation)
	ErrDuplicateCategoryName = fmt.Errorf("%w: category name already exists", ErrValidation)
	ErrInvalidBudget         = fmt.Errorf("%w: invalid budget", ErrValidation)
	ErrInvalidSettings       = fmt.Errorf("%w: invalid settings", ErrValidation)
	ErrInvalidMonth          = fmt.Errorf("%w: invalid month", ErrValidation)
	ErrInvalidDate           = fmt.Errorf("%w: invalid date", ErrValidation)
)

var hexColorRegex = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidateDate checks that s is a real calendar day in YYYY-MM-DD form.
func ValidateDate(s string) error {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return nil
}

// ValidateMonth checks that s is a calendar month in YYYY-MM form.
func ValidateMonth(s string) error {
	if _, err := time.Parse(MonthLayout, s); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return nil
}

// MonthRange returns the inclusive string range used to match a month's
// transactions. The upper bound is always day 31; no stored date exceeds the
// real end of its month so the over-inclusion is harmless.
func MonthRange(month string) (from, to string) {
	return month + "-01", month + "-31"
}

func validateAmount(amount int64) error {
	if amount < MinAmount || amount > MaxAmount {
		return fmt.Errorf("%w: amount %d must be between %d and %d", ErrInvalidTransaction, amount, MinAmount, MaxAmount)
	}
	return nil
}

func validateBudgetAmount(sentinel error, amount int64) error {
	if amount < 0 || amount > MaxBudget {
		return fmt.Errorf("%w: budget %d must be between 0 and %d", sentinel, amount, MaxBudget)
	}
	return nil
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
