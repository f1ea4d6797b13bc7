package store

import (
	"context"
	"fmt"

	"github.com/5-VED/nest-notification-svc/internal/apperr"
	"github.com/5-VED/nest-notification-svc/internal/model"
)

// PreferenceStore persists per-(userId, channel) UserPreference rows.
type PreferenceStore struct {
	db PGXPool
}

// NewPreferenceStore creates a PreferenceStore over an open pool.
func NewPreferenceStore(db PGXPool) *PreferenceStore {
	return &PreferenceStore{db: db}
}

// GetPreferences returns every preference row for a user. An empty slice
// (not an error) means the user has no rows, i.e. all channels enabled.
func (s *PreferenceStore) GetPreferences(ctx context.Context, userID string) ([]model.UserPreference, error) {
	rows, err := s.db.Query(ctx, `
		SELECT user_id, channel, is_enabled FROM user_preferences WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: get preferences: %v", apperr.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []model.UserPreference
	for rows.Next() {
		var p model.UserPreference
		if err := rows.Scan(&p.UserID, &p.Channel, &p.IsEnabled); err != nil {
			return nil, fmt.Errorf("%w: scan preference: %v", apperr.ErrStoreUnavailable, err)
		}
		out = append(out, p)
	}

	return out, rows.Err()
}

// Upsert creates or updates a (userId, channel) preference row.
func (s *PreferenceStore) Upsert(ctx context.Context, userID string, channel model.Channel, enabled bool) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO user_preferences (user_id, channel, is_enabled)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, channel) DO UPDATE SET is_enabled = EXCLUDED.is_enabled
	`, userID, channel, enabled)
	if err != nil {
		return fmt.Errorf("%w: upsert preference: %v", apperr.ErrStoreUnavailable, err)
	}
	return nil
}
