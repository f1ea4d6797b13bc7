// Package dispatcher implements the Dispatcher (C6): the single entry
// point invoked by every ingress path, grounded on the teacher's
// Service.CreateNotification (create, cache, publish) generalized from
// one queue to N per-channel queues.
package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/5-VED/nest-notification-svc/internal/apperr"
	"github.com/5-VED/nest-notification-svc/internal/model"
	"github.com/5-VED/nest-notification-svc/internal/queue"
)

const maxTitleLen = 200

// SendNotificationData is the ingress-agnostic request shape accepted by
// Dispatch: every gRPC, REST and event-ingested request is translated into
// one of these before reaching the Dispatcher.
type SendNotificationData struct {
	UserID      string
	Type        model.NotificationType
	Title       string
	Message     string
	Channel     *model.Channel
	Priority    *model.Priority
	Metadata    map[string]interface{}
	ScheduledAt *time.Time
}

// Store is the slice of the Notification Store the Dispatcher needs: it
// only ever creates the parent row and rolls its aggregate status up from
// deliveries. Per-channel status lives on DeliveryStore below.
type Store interface {
	Create(ctx context.Context, n model.Notification) (model.Notification, error)
	RollupStatus(ctx context.Context, id uuid.UUID, maxRetries int) error
}

// DeliveryStore is the slice of the per-channel delivery store the
// Dispatcher needs. Each fan-out target channel gets its own row and its
// own independent QUEUED->PROCESSING->SENT/FAILED lifecycle, so a
// notification with N target channels never has N workers racing a single
// shared status field.
type DeliveryStore interface {
	Create(ctx context.Context, n model.Notification, channel model.Channel) (model.NotificationDelivery, error)
	FindFailedForRetry(ctx context.Context, limit, maxRetries int) ([]model.NotificationDelivery, error)
	IncrementRetry(ctx context.Context, id uuid.UUID) error
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.Status, errMsg string) error
}

// PreferenceReader is the slice of the Channel Resolver the Dispatcher
// needs to compute target channels.
type PreferenceReader interface {
	GetPreferences(ctx context.Context, userID string) []model.UserPreference
}

// WorkQueue is the slice of the Channel Work Queues the Dispatcher
// enqueues jobs onto.
type WorkQueue interface {
	Enqueue(ctx context.Context, job queue.Job) error
}

// Dispatcher implements C6.
type Dispatcher struct {
	store      Store
	deliveries DeliveryStore
	prefs      PreferenceReader
	queue      WorkQueue
	log        *slog.Logger
}

// New constructs a Dispatcher.
func New(store Store, deliveries DeliveryStore, prefs PreferenceReader, q WorkQueue, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{store: store, deliveries: deliveries, prefs: prefs, queue: q, log: log}
}

// Dispatch validates and persists a notification, determines its target
// channels, and enqueues one job per channel, per the procedure in §4.6.
func (d *Dispatcher) Dispatch(ctx context.Context, req SendNotificationData) (model.Notification, error) {
	if err := validate(req); err != nil {
		return model.Notification{}, err
	}

	channel := model.ChannelEmail
	if req.Channel != nil {
		channel = *req.Channel
	}
	priority := model.PriorityNormal
	if req.Priority != nil {
		priority = *req.Priority
	}

	n := model.Notification{
		UserID:      req.UserID,
		Type:        req.Type,
		Channel:     channel,
		Title:       req.Title,
		Body:        req.Message,
		Metadata:    req.Metadata,
		Priority:    priority,
		ScheduledAt: req.ScheduledAt,
	}

	n, err := d.store.Create(ctx, n)
	if err != nil {
		return model.Notification{}, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}

	targets := d.targetChannels(ctx, req, channel)

	delayUntil := time.Now()
	if req.ScheduledAt != nil && req.ScheduledAt.After(delayUntil) {
		delayUntil = *req.ScheduledAt
	}

	// Each target channel gets its own NotificationDelivery row and its own
	// job id, so two channels fanned out from this one notification never
	// contend on the same CAS-guarded status field downstream.
	for _, ch := range targets {
		delivery, err := d.deliveries.Create(ctx, n, ch)
		if err != nil {
			d.log.Warn("failed to create delivery", "notification", n.ID, "channel", ch, "error", err)
			continue
		}

		job := queue.Job{
			ID:             delivery.ID,
			NotificationID: n.ID,
			Channel:        ch,
			Type:           n.Type,
			UserID:         n.UserID,
			Title:          n.Title,
			Message:        n.Body,
			Metadata:       n.Metadata,
			Priority:       model.PriorityWeight(priority),
			DelayUntil:     delayUntil,
		}
		if err := d.queue.Enqueue(ctx, job); err != nil {
			d.log.Warn("failed to enqueue job", "notification", n.ID, "delivery", delivery.ID, "channel", ch, "error", err)
		}
	}

	return n, nil
}

// targetChannels resolves the set of channels a notification should fan
// out to: the pinned channel if the request names one, otherwise the
// type's default channels intersected with the user's enabled channels.
// A user with no preference rows at all is treated as all-enabled.
func (d *Dispatcher) targetChannels(ctx context.Context, req SendNotificationData, pinned model.Channel) []model.Channel {
	if req.Channel != nil {
		return []model.Channel{pinned}
	}

	defaults := model.DefaultChannelsForType(req.Type)

	prefs := d.prefs.GetPreferences(ctx, req.UserID)
	if len(prefs) == 0 {
		return defaults
	}

	enabled := make(map[model.Channel]bool, len(prefs))
	for _, p := range prefs {
		enabled[p.Channel] = p.IsEnabled
	}

	var targets []model.Channel
	for _, ch := range defaults {
		if en, known := enabled[ch]; !known || en {
			targets = append(targets, ch)
		}
	}
	return targets
}

// RetryFailed re-enters FAILED deliveries with retryCount below the retry
// budget back into the pipeline: each row's retryCount is bumped and it is
// moved back to QUEUED with a fresh job, reusing the original delivery id
// rather than minting a new row, then the parent notification's aggregate
// status is rolled up to reflect it. Operating per-delivery rather than
// per-notification means retrying one channel's failed send never touches
// a sibling channel's delivery for the same notification.
func (d *Dispatcher) RetryFailed(ctx context.Context) (int, error) {
	rows, err := d.deliveries.FindFailedForRetry(ctx, 100, model.MaxRetries)
	if err != nil {
		return 0, fmt.Errorf("find failed deliveries: %w", err)
	}

	retried := 0
	for _, delivery := range rows {
		if err := d.deliveries.IncrementRetry(ctx, delivery.ID); err != nil {
			d.log.Warn("failed to increment retry count", "delivery", delivery.ID, "error", err)
			continue
		}
		if err := d.deliveries.UpdateStatus(ctx, delivery.ID, model.StatusFailed, model.StatusQueued, ""); err != nil {
			d.log.Warn("failed to requeue delivery", "delivery", delivery.ID, "error", err)
			continue
		}
		if err := d.store.RollupStatus(ctx, delivery.NotificationID, model.MaxRetries); err != nil {
			d.log.Warn("failed to roll up notification status after retry", "notification", delivery.NotificationID, "error", err)
		}

		job := queue.Job{
			ID:             delivery.ID,
			NotificationID: delivery.NotificationID,
			Channel:        delivery.Channel,
			Type:           delivery.Type,
			UserID:         delivery.UserID,
			Title:          delivery.Title,
			Message:        delivery.Body,
			Metadata:       delivery.Metadata,
			Priority:       model.PriorityWeight(delivery.Priority),
			DelayUntil:     time.Now(),
		}
		if err := d.queue.Enqueue(ctx, job); err != nil {
			d.log.Warn("failed to re-enqueue retried delivery", "delivery", delivery.ID, "error", err)
			continue
		}
		retried++
	}

	return retried, nil
}

func validate(req SendNotificationData) error {
	if req.UserID == "" || req.Type == "" || req.Title == "" || req.Message == "" {
		return fmt.Errorf("%w: userId, type, title and message are required", apperr.ErrInvalidArgument)
	}
	if len(req.Title) > maxTitleLen {
		return fmt.Errorf("%w: title exceeds %d characters", apperr.ErrInvalidArgument, maxTitleLen)
	}
	return nil
}
