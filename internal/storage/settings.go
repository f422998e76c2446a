package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/florinapp/florin/internal/model"
)

// Setting keys for the scalar flags persisted alongside the collections.
const (
	// SettingOnboardingCompleted records whether first-run onboarding finished.
	SettingOnboardingCompleted = "onboarding_completed"
	// SettingAuthStatus is "authenticated" or "skipped".
	SettingAuthStatus = "auth_status"
	// SettingInitialSyncPending marks pre-authentication local data that must
	// be pushed before the first pull. While "true", sync results are labeled
	// as the initial upload; the first fully successful push sets it "false".
	SettingInitialSyncPending = "initial_sync_pending"
	// SettingLastSyncAt records the wall-clock time of the last completed sync.
	SettingLastSyncAt = "last_sync_at"
	// SettingCurrency is the display currency code.
	SettingCurrency = "currency"
	// SettingTheme is the selected UI theme.
	SettingTheme = "theme"
)

// Auth status values.
const (
	AuthStatusAuthenticated = "authenticated"
	AuthStatusSkipped       = "skipped"
)

// GetSetting returns the value for key, or the empty string when the key has
// never been set.
func (s *SQLiteStore) GetSetting(ctx context.Context, key string) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateString(key, "key"); err != nil {
		return "", err
	}

	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query setting %q: %w", key, err)
	}
	return value, nil
}

// SetSetting stores a value for key, overwriting any previous value.
func (s *SQLiteStore) SetSetting(ctx context.Context, key, value string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(key, "key"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set setting %q: %w", key, err)
	}
	return nil
}

// GetProfile returns the per-device user profile, or nil when no user has
// authenticated on this device.
func (s *SQLiteStore) GetProfile(ctx context.Context) (*model.Profile, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var p model.Profile
	err := s.db.QueryRowContext(ctx,
		`SELECT email, display_name, is_pro FROM profile WHERE id = 1`).Scan(
		&p.Email, &p.DisplayName, &p.IsProUser)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	return &p, nil
}

// SaveProfile writes the single per-device profile record.
func (s *SQLiteStore) SaveProfile(ctx context.Context, profile model.Profile) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(profile.Email, "email"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profile (id, email, display_name, is_pro) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET email = excluded.email,
			display_name = excluded.display_name,
			is_pro = excluded.is_pro`,
		profile.Email, profile.DisplayName, profile.IsProUser)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	s.notify(model.KindProfile)
	return nil
}
