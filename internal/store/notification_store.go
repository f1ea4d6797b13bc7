package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/5-VED/nest-notification-svc/internal/apperr"
	"github.com/5-VED/nest-notification-svc/internal/model"
)

// NotificationStore persists Notification rows. Per-channel status
// transitions and retry selection live on DeliveryStore; this store only
// creates the parent row and rolls its aggregate status up from that
// store's children via RollupStatus.
type NotificationStore struct {
	db PGXPool
}

// NewNotificationStore creates a NotificationStore over an open pool.
func NewNotificationStore(db PGXPool) *NotificationStore {
	return &NotificationStore{db: db}
}

// Create assigns an id and timestamps, inserts the row with initial status
// QUEUED and retryCount 0, and returns the persisted Notification.
func (s *NotificationStore) Create(ctx context.Context, n model.Notification) (model.Notification, error) {
	n.ID = uuid.New()
	n.Status = model.StatusQueued
	n.RetryCount = 0

	query := `
		INSERT INTO notifications (
			id, user_id, type, channel, title, body, metadata,
			priority, scheduled_at, status, retry_count
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
		RETURNING created_at, updated_at
	`

	err := s.db.QueryRow(ctx, query,
		n.ID, n.UserID, n.Type, n.Channel, n.Title, n.Body, n.Metadata,
		n.Priority, n.ScheduledAt, n.Status, n.RetryCount,
	).Scan(&n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return model.Notification{}, fmt.Errorf("%w: create notification: %v", apperr.ErrStoreUnavailable, err)
	}

	return n, nil
}

// GetByID fetches a single notification by id.
func (s *NotificationStore) GetByID(ctx context.Context, id uuid.UUID) (model.Notification, error) {
	query := `
		SELECT id, user_id, type, channel, title, body, metadata, priority,
		       scheduled_at, status, retry_count, created_at, updated_at,
		       sent_at, failed_at, error_message
		FROM notifications
		WHERE id = $1
	`

	var n model.Notification
	err := s.db.QueryRow(ctx, query, id).Scan(
		&n.ID, &n.UserID, &n.Type, &n.Channel, &n.Title, &n.Body, &n.Metadata,
		&n.Priority, &n.ScheduledAt, &n.Status, &n.RetryCount, &n.CreatedAt, &n.UpdatedAt,
		&n.SentAt, &n.FailedAt, &n.ErrorMessage,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Notification{}, apperr.ErrNotificationNotFound
		}
		return model.Notification{}, fmt.Errorf("%w: get notification: %v", apperr.ErrStoreUnavailable, err)
	}

	return n, nil
}

// RollupStatus recomputes a notification's aggregate status/retryCount/
// sentAt/failedAt/errorMessage columns from the current state of its
// notification_deliveries children. Unlike UpdateStatus on the delivery
// rows, this is not a compare-and-swap: it always derives from the
// children's current truth, so it is safe to call repeatedly and
// concurrently from any channel worker that just finished a per-channel
// transition. Aggregate rule: all children SENT -> SENT; any child FAILED
// with retryCount>=maxRetries -> FAILED; any child PROCESSING or a mix
// still short of that -> PROCESSING; otherwise QUEUED.
func (s *NotificationStore) RollupStatus(ctx context.Context, id uuid.UUID, maxRetries int) error {
	query := `
		UPDATE notifications AS n
		SET status = agg.status,
		    updated_at = now(),
		    retry_count = agg.retry_count,
		    sent_at = CASE WHEN agg.status = 'SENT' THEN now() ELSE n.sent_at END,
		    failed_at = CASE WHEN agg.status = 'FAILED' THEN now() ELSE n.failed_at END,
		    error_message = CASE WHEN agg.status = 'FAILED' THEN agg.error_message ELSE n.error_message END
		FROM (
			SELECT
				CASE
					WHEN bool_and(status = 'SENT') THEN 'SENT'
					WHEN bool_or(status = 'FAILED' AND retry_count >= $2) THEN 'FAILED'
					WHEN bool_or(status <> 'QUEUED') THEN 'PROCESSING'
					ELSE 'QUEUED'
				END AS status,
				max(retry_count) AS retry_count,
				(array_agg(error_message ORDER BY failed_at DESC NULLS LAST))[1] AS error_message
			FROM notification_deliveries
			WHERE notification_id = $1
		) AS agg
		WHERE n.id = $1
	`

	ct, err := s.db.Exec(ctx, query, id, maxRetries)
	if err != nil {
		return fmt.Errorf("%w: rollup status: %v", apperr.ErrStoreUnavailable, err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.ErrNotificationNotFound
	}

	return nil
}

// ListByUser returns notifications for a user ordered newest-first. No
// REST or RPC route calls it.
func (s *NotificationStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.Notification, error) {
	query := `
		SELECT id, user_id, type, channel, title, body, metadata, priority,
		       scheduled_at, status, retry_count, created_at, updated_at,
		       sent_at, failed_at, error_message
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list by user: %v", apperr.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.Type, &n.Channel, &n.Title, &n.Body, &n.Metadata,
			&n.Priority, &n.ScheduledAt, &n.Status, &n.RetryCount, &n.CreatedAt, &n.UpdatedAt,
			&n.SentAt, &n.FailedAt, &n.ErrorMessage,
		); err != nil {
			return nil, fmt.Errorf("%w: scan notification: %v", apperr.ErrStoreUnavailable, err)
		}
		out = append(out, n)
	}

	return out, rows.Err()
}

// DeleteOlderThan removes terminal notifications past the retention window,
// per the ≥30-day cleanup rule in the lifecycle section. Run periodically
// from a maintenance goroutine, not exposed as a public operation.
func (s *NotificationStore) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age)
	ct, err := s.db.Exec(ctx, `
		DELETE FROM notifications
		WHERE status IN ('SENT', 'FAILED') AND created_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: delete old notifications: %v", apperr.ErrStoreUnavailable, err)
	}
	return ct.RowsAffected(), nil
}
