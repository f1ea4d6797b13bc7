package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/5-VED/nest-notification-svc/internal/apperr"
	"github.com/5-VED/nest-notification-svc/internal/model"
)

// TemplateStore persists NotificationTemplate rows, managed out-of-band;
// the dispatch pipeline only reads them.
type TemplateStore struct {
	db PGXPool
}

// NewTemplateStore creates a TemplateStore over an open pool.
func NewTemplateStore(db PGXPool) *TemplateStore {
	return &TemplateStore{db: db}
}

// GetActiveTemplate returns the single active template for (type, channel),
// or apperr.ErrNotificationNotFound if none exists.
func (s *TemplateStore) GetActiveTemplate(ctx context.Context, t model.NotificationType, ch model.Channel) (model.NotificationTemplate, error) {
	query := `
		SELECT type, channel, is_active, title, message, html_content
		FROM notification_templates
		WHERE type = $1 AND channel = $2 AND is_active = true
		LIMIT 1
	`

	var tmpl model.NotificationTemplate
	err := s.db.QueryRow(ctx, query, t, ch).Scan(
		&tmpl.Type, &tmpl.Channel, &tmpl.IsActive, &tmpl.Title, &tmpl.Message, &tmpl.HTMLContent,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.NotificationTemplate{}, apperr.ErrNotificationNotFound
		}
		return model.NotificationTemplate{}, fmt.Errorf("%w: get active template: %v", apperr.ErrStoreUnavailable, err)
	}

	return tmpl, nil
}
