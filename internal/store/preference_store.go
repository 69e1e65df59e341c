package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nutriscan/nutriscan/internal/domain"
)

type PreferenceStore struct {
	db *sql.DB
}

func NewPreferenceStore(db *sql.DB) *PreferenceStore {
	return &PreferenceStore{db: db}
}

// Upsert stores the user's preferences, replacing any previous set.
func (s *PreferenceStore) Upsert(ctx context.Context, userID int64, preferences, customRestrictions string) (*domain.PreferenceSet, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_preferences (user_id, preferences, custom_restrictions, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id) DO UPDATE SET
			preferences = excluded.preferences,
			custom_restrictions = excluded.custom_restrictions,
			updated_at = CURRENT_TIMESTAMP
	`, userID, preferences, customRestrictions)
	if err != nil {
		return nil, fmt.Errorf("failed to save preferences: %w", err)
	}
	return s.Get(ctx, userID)
}

// Get returns nil, nil when the user has no saved preferences.
func (s *PreferenceStore) Get(ctx context.Context, userID int64) (*domain.PreferenceSet, error) {
	p := &domain.PreferenceSet{}
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, preferences, custom_restrictions, updated_at FROM user_preferences WHERE user_id = ?
	`, userID).Scan(&p.UserID, &p.Preferences, &p.CustomRestrictions, &p.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}
	return p, nil
}
