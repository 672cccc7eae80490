package ledger

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/Veraticus/household-ledger/internal/common"
	"github.com/Veraticus/household-ledger/internal/model"
)

// Passcode length bounds, in characters.
const (
	MinPasscodeLength = 4
	MaxPasscodeLength = 32
)

func (l *Ledger) ensureSettings(ctx context.Context) (bool, error) {
	_, err := l.store.GetSettings(ctx)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return false, fmt.Errorf("failed to load settings: %w", err)
	}

	settings := model.DefaultSettings()
	settings.UpdatedAt = l.timestamp()
	if err := l.store.SaveSettings(ctx, &settings); err != nil {
		return false, fmt.Errorf("failed to create settings: %w", err)
	}
	return true, nil
}

// GetSettings returns the settings, creating the default record if none
// exists yet.
func (l *Ledger) GetSettings(ctx context.Context) (*model.Settings, error) {
	if _, err := l.ensureSettings(ctx); err != nil {
		return nil, err
	}
	settings, err := l.store.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

// UpdateSettings applies a partial update to the settings.
func (l *Ledger) UpdateSettings(ctx context.Context, patch model.SettingsPatch) (*model.Settings, error) {
	settings, err := l.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	settings.Apply(patch)
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if err := l.saveSettings(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// SetPasscode enables the passcode lock with a new passcode. Only its bcrypt
// hash is stored.
func (l *Ledger) SetPasscode(ctx context.Context, passcode string) error {
	n := utf8.RuneCountInString(passcode)
	if n < MinPasscodeLength || n > MaxPasscodeLength {
		return ErrInvalidPasscode
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash passcode: %w", err)
	}

	settings, err := l.GetSettings(ctx)
	if err != nil {
		return err
	}
	settings.PasscodeEnabled = true
	settings.PasscodeHash = string(hash)
	return l.saveSettings(ctx, settings)
}

// VerifyPasscode reports whether passcode matches the stored hash. It
// returns ErrPasscodeDisabled when no passcode is set.
func (l *Ledger) VerifyPasscode(ctx context.Context, passcode string) (bool, error) {
	settings, err := l.GetSettings(ctx)
	if err != nil {
		return false, err
	}
	if !settings.PasscodeEnabled {
		return false, ErrPasscodeDisabled
	}

	err = bcrypt.CompareHashAndPassword([]byte(settings.PasscodeHash), []byte(passcode))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("failed to verify passcode: %w", err)
	}
}

// ClearPasscode disables the passcode lock.
func (l *Ledger) ClearPasscode(ctx context.Context) error {
	settings, err := l.GetSettings(ctx)
	if err != nil {
		return err
	}
	settings.PasscodeEnabled = false
	settings.PasscodeHash = ""
	return l.saveSettings(ctx, settings)
}

func (l *Ledger) saveSettings(ctx context.Context, settings *model.Settings) error {
	settings.UpdatedAt = l.timestamp()
	if err := l.store.SaveSettings(ctx, settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
