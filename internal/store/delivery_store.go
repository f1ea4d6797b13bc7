package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/5-VED/nest-notification-svc/internal/apperr"
	"github.com/5-VED/nest-notification-svc/internal/model"
)

// DeliveryStore persists NotificationDelivery rows: one per (notification,
// target channel), each carrying its own status/retry state so N channels
// fanned out from a single Dispatch call never contend on one CAS.
type DeliveryStore struct {
	db PGXPool
}

// NewDeliveryStore creates a DeliveryStore over an open pool.
func NewDeliveryStore(db PGXPool) *DeliveryStore {
	return &DeliveryStore{db: db}
}

// Create inserts a QUEUED delivery for n on channel, copying n's content so
// a later requeue never needs a second Store read to rebuild the job.
func (s *DeliveryStore) Create(ctx context.Context, n model.Notification, channel model.Channel) (model.NotificationDelivery, error) {
	d := model.NotificationDelivery{
		ID:             uuid.New(),
		NotificationID: n.ID,
		UserID:         n.UserID,
		Type:           n.Type,
		Channel:        channel,
		Title:          n.Title,
		Body:           n.Body,
		Metadata:       n.Metadata,
		Priority:       n.Priority,
		Status:         model.StatusQueued,
		RetryCount:     0,
	}

	query := `
		INSERT INTO notification_deliveries (
			id, notification_id, user_id, type, channel, title, body,
			metadata, priority, status, retry_count
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
		RETURNING created_at, updated_at
	`

	err := s.db.QueryRow(ctx, query,
		d.ID, d.NotificationID, d.UserID, d.Type, d.Channel, d.Title, d.Body,
		d.Metadata, d.Priority, d.Status, d.RetryCount,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return model.NotificationDelivery{}, fmt.Errorf("%w: create delivery: %v", apperr.ErrStoreUnavailable, err)
	}

	return d, nil
}

// GetByID fetches a single delivery by id.
func (s *DeliveryStore) GetByID(ctx context.Context, id uuid.UUID) (model.NotificationDelivery, error) {
	query := `
		SELECT id, notification_id, user_id, type, channel, title, body,
		       metadata, priority, status, retry_count, created_at,
		       updated_at, sent_at, failed_at, error_message
		FROM notification_deliveries
		WHERE id = $1
	`

	var d model.NotificationDelivery
	err := s.db.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.NotificationID, &d.UserID, &d.Type, &d.Channel, &d.Title, &d.Body,
		&d.Metadata, &d.Priority, &d.Status, &d.RetryCount, &d.CreatedAt,
		&d.UpdatedAt, &d.SentAt, &d.FailedAt, &d.ErrorMessage,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.NotificationDelivery{}, apperr.ErrNotificationNotFound
		}
		return model.NotificationDelivery{}, fmt.Errorf("%w: get delivery: %v", apperr.ErrStoreUnavailable, err)
	}

	return d, nil
}

// ListByNotification returns every delivery fanned out from one Dispatch
// call. NotificationStore.RollupStatus aggregates the children in SQL and
// does not use it.
func (s *DeliveryStore) ListByNotification(ctx context.Context, notificationID uuid.UUID) ([]model.NotificationDelivery, error) {
	query := `
		SELECT id, notification_id, user_id, type, channel, title, body,
		       metadata, priority, status, retry_count, created_at,
		       updated_at, sent_at, failed_at, error_message
		FROM notification_deliveries
		WHERE notification_id = $1
	`

	rows, err := s.db.Query(ctx, query, notificationID)
	if err != nil {
		return nil, fmt.Errorf("%w: list deliveries: %v", apperr.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []model.NotificationDelivery
	for rows.Next() {
		var d model.NotificationDelivery
		if err := rows.Scan(
			&d.ID, &d.NotificationID, &d.UserID, &d.Type, &d.Channel, &d.Title, &d.Body,
			&d.Metadata, &d.Priority, &d.Status, &d.RetryCount, &d.CreatedAt,
			&d.UpdatedAt, &d.SentAt, &d.FailedAt, &d.ErrorMessage,
		); err != nil {
			return nil, fmt.Errorf("%w: scan delivery: %v", apperr.ErrStoreUnavailable, err)
		}
		out = append(out, d)
	}

	return out, rows.Err()
}

// UpdateStatus atomically transitions one delivery's status. The WHERE
// clause on the previous status makes this a compare-and-swap scoped to a
// single (notification, channel) pair, so a sibling channel's delivery for
// the same notification can never block or be blocked by this transition.
func (s *DeliveryStore) UpdateStatus(ctx context.Context, id uuid.UUID, from, newStatus model.Status, errMsg string) error {
	query := `
		UPDATE notification_deliveries
		SET status = $1,
		    updated_at = now(),
		    sent_at = CASE WHEN $1 = 'SENT' THEN now() ELSE sent_at END,
		    failed_at = CASE WHEN $1 = 'FAILED' THEN now() ELSE failed_at END,
		    error_message = CASE WHEN $1 = 'FAILED' THEN $2 ELSE error_message END
		WHERE id = $3 AND status = $4
	`

	ct, err := s.db.Exec(ctx, query, newStatus, errMsg, id, from)
	if err != nil {
		return fmt.Errorf("%w: update delivery status: %v", apperr.ErrStoreUnavailable, err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.ErrNotificationNotFound
	}

	return nil
}

// IncrementRetry performs an atomic +1 on a delivery's retryCount.
func (s *DeliveryStore) IncrementRetry(ctx context.Context, id uuid.UUID) error {
	ct, err := s.db.Exec(ctx, `UPDATE notification_deliveries SET retry_count = retry_count + 1, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: increment delivery retry: %v", apperr.ErrStoreUnavailable, err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.ErrNotificationNotFound
	}
	return nil
}

// FindFailedForRetry returns up to limit deliveries with status=FAILED and
// retryCount < maxRetries, ordered oldest-first by failedAt. Each row
// already carries its own content, so a retry never rejoins notifications.
func (s *DeliveryStore) FindFailedForRetry(ctx context.Context, limit, maxRetries int) ([]model.NotificationDelivery, error) {
	query := `
		SELECT id, notification_id, user_id, type, channel, title, body,
		       metadata, priority, status, retry_count, created_at,
		       updated_at, sent_at, failed_at, error_message
		FROM notification_deliveries
		WHERE status = 'FAILED' AND retry_count < $1
		ORDER BY failed_at ASC
		LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, maxRetries, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: find failed deliveries: %v", apperr.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []model.NotificationDelivery
	for rows.Next() {
		var d model.NotificationDelivery
		if err := rows.Scan(
			&d.ID, &d.NotificationID, &d.UserID, &d.Type, &d.Channel, &d.Title, &d.Body,
			&d.Metadata, &d.Priority, &d.Status, &d.RetryCount, &d.CreatedAt,
			&d.UpdatedAt, &d.SentAt, &d.FailedAt, &d.ErrorMessage,
		); err != nil {
			return nil, fmt.Errorf("%w: scan failed delivery: %v", apperr.ErrStoreUnavailable, err)
		}
		out = append(out, d)
	}

	return out, rows.Err()
}
