package model

import (
	"fmt"
	"regexp"
	"time"
)

// SettingsID is the fixed id of the singleton settings record.
const SettingsID = 1

// WeekStart is the first day of the week in calendar views.
type WeekStart string

// Week start conventions.
const (
	WeekStartSunday WeekStart = "sunday"
	WeekStartMonday WeekStart = "monday"
)

// Theme is the display theme preference.
type Theme string

// Themes.
const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

var currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)

// Settings holds application-wide preferences. Exactly one record exists.
type Settings struct {
	UpdatedAt       time.Time `json:"updatedAt"`
	MonthlyBudget   *int64    `json:"monthlyBudget,omitempty"` // overall ceiling
	Currency        string    `json:"currency"`
	WeekStart       WeekStart `json:"weekStart"`
	Theme           Theme     `json:"theme"`
	PasscodeHash    string    `json:"passcodeHash,omitempty"`
	Language        string    `json:"language"`
	ID              int       `json:"id"`
	PasscodeEnabled bool      `json:"passcodeEnabled"`
}

// DefaultSettings returns the record created at first run.
func DefaultSettings() Settings {
	return Settings{
		ID:        SettingsID,
		Currency:  "JPY",
		WeekStart: WeekStartSunday,
		Theme:     ThemeSystem,
		Language:  "ja",
	}
}

// Validate checks the settings fields.
func (s *Settings) Validate() error {
	if !currencyRegex.MatchString(s.Currency) {
		return fmt.Errorf("%w: currency %q must be a 3-letter code", ErrInvalidSettings, s.Currency)
	}
	if s.WeekStart != WeekStartSunday && s.WeekStart != WeekStartMonday {
		return fmt.Errorf("%w: unknown week start %q", ErrInvalidSettings, s.WeekStart)
	}
	switch s.Theme {
	case ThemeLight, ThemeDark, ThemeSystem:
	default:
		return fmt.Errorf("%w: unknown theme %q", ErrInvalidSettings, s.Theme)
	}
	if s.Language == "" {
		return fmt.Errorf("%w: language is required", ErrInvalidSettings)
	}
	if s.PasscodeEnabled && s.PasscodeHash == "" {
		return fmt.Errorf("%w: passcode enabled without a hash", ErrInvalidSettings)
	}
	if s.MonthlyBudget != nil {
		if err := validateBudgetAmount(ErrInvalidSettings, *s.MonthlyBudget); err != nil {
			return err
		}
	}
	return nil
}

// SettingsPatch is a partial settings update. The passcode is managed
// separately so its hash never travels through a patch.
type SettingsPatch struct {
	Currency           *string
	WeekStart          *WeekStart
	Theme              *Theme
	Language           *string
	MonthlyBudget      *int64
	ClearMonthlyBudget bool
}

// Apply writes the patch onto s.
func (s *Settings) Apply(p SettingsPatch) {
	if p.Currency != nil {
		s.Currency = *p.Currency
	}
	if p.WeekStart != nil {
		s.WeekStart = *p.WeekStart
	}
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.Language != nil {
		s.Language = *p.Language
	}
	if p.ClearMonthlyBudget {
		s.MonthlyBudget = nil
	} else if p.MonthlyBudget != nil {
		v := *p.MonthlyBudget
		s.MonthlyBudget = &v
	}
}
