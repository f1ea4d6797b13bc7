package store

import (
	"context"
	"fmt"

	"github.com/5-VED/nest-notification-svc/internal/apperr"
)

// DeviceTokenStore persists per-(userId, token) DeviceToken rows.
type DeviceTokenStore struct {
	db PGXPool
}

// NewDeviceTokenStore creates a DeviceTokenStore over an open pool.
func NewDeviceTokenStore(db PGXPool) *DeviceTokenStore {
	return &DeviceTokenStore{db: db}
}

// ActiveTokens returns the tokens targeted for PUSH: only isActive rows.
func (s *DeviceTokenStore) ActiveTokens(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT token FROM device_tokens WHERE user_id = $1 AND is_active = true
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: active tokens: %v", apperr.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("%w: scan token: %v", apperr.ErrStoreUnavailable, err)
		}
		tokens = append(tokens, t)
	}

	return tokens, rows.Err()
}

// Upsert creates a device token; on conflict it sets isActive=true and
// refreshes the platform tag.
func (s *DeviceTokenStore) Upsert(ctx context.Context, userID, token, platform string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO device_tokens (user_id, token, platform, is_active)
		VALUES ($1, $2, $3, true)
		ON CONFLICT (user_id, token) DO UPDATE
		SET is_active = true, platform = EXCLUDED.platform
	`, userID, token, platform)
	if err != nil {
		return fmt.Errorf("%w: upsert device token: %v", apperr.ErrStoreUnavailable, err)
	}
	return nil
}

// Deactivate sets isActive=false for a (userId, token) row, used on
// explicit removal or an ADAPTER_PERMANENT "invalid token" response.
func (s *DeviceTokenStore) Deactivate(ctx context.Context, userID, token string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE device_tokens SET is_active = false WHERE user_id = $1 AND token = $2
	`, userID, token)
	if err != nil {
		return fmt.Errorf("%w: deactivate device token: %v", apperr.ErrStoreUnavailable, err)
	}
	return nil
}
