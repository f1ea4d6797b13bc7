// Package worker implements the Channel Workers (C5): one goroutine pool
// per channel draining its Channel Work Queue and carrying a job through
// the QUEUED → PROCESSING → SENT/FAILED state machine, grounded on the
// teacher's Notifier.Run(ctx, strategy, workerCount) shape, generalized
// from one RabbitMQ queue to three Redis-backed channel queues.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/5-VED/nest-notification-svc/internal/model"
	"github.com/5-VED/nest-notification-svc/internal/queue"
)

// pollInterval is how long an idle worker waits before asking the queue
// for work again, avoiding a tight empty-queue spin loop.
const pollInterval = 200 * time.Millisecond

// DeliveryStore is the slice of the per-channel delivery store a worker
// needs: CAS status transitions keyed by the delivery's current status,
// plus the retry counter bumped each time a job the queue agreed to retry
// sends the delivery back to QUEUED. Every job dequeued by this pool names
// its own delivery row, never the parent notification, so a CAS rejection
// here can only mean a genuine duplicate dequeue of that exact job (e.g.
// ReclaimStalled racing the original consumer), not a sibling channel.
type DeliveryStore interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.Status, errMsg string) error
	IncrementRetry(ctx context.Context, id uuid.UUID) error
}

// StatusRoller recomputes a parent notification's aggregate status from
// the current state of all its per-channel deliveries. Called after every
// delivery-level transition so a reader of the Notification Store always
// sees a status consistent with the deliveries that produced it.
type StatusRoller interface {
	RollupStatus(ctx context.Context, notificationID uuid.UUID, maxRetries int) error
}

// Deliverer resolves a recipient for job.UserID on its channel, renders
// the active template if one exists, and invokes the channel's transport.
// It returns apperr.ErrRecipientMissing when no destination exists for the
// user on this channel; process treats this the same as any other
// delivery error and lets the queue's retry policy decide the outcome.
type Deliverer interface {
	Deliver(ctx context.Context, job queue.Job) error
}

// WorkQueue is the slice of the Channel Work Queue a worker pool needs.
// Satisfied by *queue.Queue in production.
type WorkQueue interface {
	Dequeue(ctx context.Context, channel model.Channel) (queue.Job, bool, error)
	Complete(ctx context.Context, job queue.Job) error
	Fail(ctx context.Context, job queue.Job, errMsg string) (dead bool, err error)
}

// MetricsRecorder is the slice of the Metrics Collector a worker pool
// reports outcomes to. Satisfied by *metrics.Collector in production;
// nil is a valid no-op default.
type MetricsRecorder interface {
	RecordSent()
	RecordFailure()
}

type noopMetricsRecorder struct{}

func (noopMetricsRecorder) RecordSent()    {}
func (noopMetricsRecorder) RecordFailure() {}

// Pool is a goroutine fleet draining one channel's Channel Work Queue.
type Pool struct {
	channel   model.Channel
	queue     WorkQueue
	store     DeliveryStore
	rollup    StatusRoller
	deliverer Deliverer
	metrics   MetricsRecorder
	log       *slog.Logger
}

// New constructs a worker pool for a single channel. metrics may be nil,
// in which case outcomes are simply not recorded.
func New(channel model.Channel, q WorkQueue, store DeliveryStore, rollup StatusRoller, deliverer Deliverer, metrics MetricsRecorder, log *slog.Logger) *Pool {
	if log == nil {
		log = slog.Default()
	}
	if metrics == nil {
		metrics = noopMetricsRecorder{}
	}
	return &Pool{channel: channel, queue: q, store: store, rollup: rollup, deliverer: deliverer, metrics: metrics, log: log}
}

// Run starts workerCount goroutines pulling jobs for p.channel until ctx
// is cancelled. It blocks until every worker has exited.
func (p *Pool) Run(ctx context.Context, workerCount int) {
	done := make(chan struct{}, workerCount)

	for i := 0; i < workerCount; i++ {
		go func(id int) {
			defer func() { done <- struct{}{} }()
			p.log.Info("worker started", "channel", p.channel, "worker", id)
			p.loop(ctx, id)
			p.log.Info("worker stopped", "channel", p.channel, "worker", id)
		}(i)
	}

	for i := 0; i < workerCount; i++ {
		<-done
	}
}

func (p *Pool) loop(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, ok, err := p.queue.Dequeue(ctx, p.channel)
		if err != nil {
			p.log.Warn("dequeue failed", "channel", p.channel, "worker", id, "error", err)
			continue
		}
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-time.After(pollInterval):
			}
			continue
		}

		p.process(ctx, job)
	}
}

// process implements the per-job procedure of §4.5: QUEUED→PROCESSING,
// resolve+render+deliver, then PROCESSING→SENT or PROCESSING→FAILED with
// the queue's retry policy re-raised on failure. job.ID names this job's
// own NotificationDelivery row, so the CAS transitions below never
// contend with a sibling channel's delivery for the same notification;
// job.NotificationID is only used to keep the parent's aggregate rollup
// current.
func (p *Pool) process(ctx context.Context, job queue.Job) {
	if err := p.store.UpdateStatus(ctx, job.ID, model.StatusQueued, model.StatusProcessing, ""); err != nil {
		// A CAS rejection here means something else already moved this
		// exact delivery off QUEUED — a duplicate dequeue of the same
		// job, not a race with another channel, which now owns its own
		// delivery id and can never collide with this one.
		p.log.Warn("status transition to PROCESSING failed, dropping duplicate dequeue", "delivery", job.ID, "notification", job.NotificationID, "error", err)
		return
	}

	deliverErr := p.deliverer.Deliver(ctx, job)
	if deliverErr == nil {
		p.metrics.RecordSent()
		if err := p.store.UpdateStatus(ctx, job.ID, model.StatusProcessing, model.StatusSent, ""); err != nil {
			p.log.Warn("status transition to SENT failed", "delivery", job.ID, "notification", job.NotificationID, "error", err)
		}
		if err := p.rollup.RollupStatus(ctx, job.NotificationID, model.MaxRetries); err != nil {
			p.log.Warn("failed to roll up notification status", "notification", job.NotificationID, "error", err)
		}
		if err := p.queue.Complete(ctx, job); err != nil {
			p.log.Warn("failed to record completion", "delivery", job.ID, "notification", job.NotificationID, "error", err)
		}
		return
	}

	p.metrics.RecordFailure()
	errMsg := deliverErr.Error()
	if err := p.store.UpdateStatus(ctx, job.ID, model.StatusProcessing, model.StatusFailed, errMsg); err != nil {
		p.log.Warn("status transition to FAILED failed", "delivery", job.ID, "notification", job.NotificationID, "error", err)
	}

	dead, err := p.queue.Fail(ctx, job, errMsg)
	if err != nil {
		p.log.Warn("failed to record job failure", "delivery", job.ID, "notification", job.NotificationID, "error", err)
		return
	}

	if dead {
		// Retry budget exhausted: this delivery stays FAILED, left for
		// the Dispatcher's on-demand retry pass to pick up. Roll up now
		// so the parent notification's aggregate reflects it without
		// waiting for a sibling channel's delivery to also settle.
		if err := p.rollup.RollupStatus(ctx, job.NotificationID, model.MaxRetries); err != nil {
			p.log.Warn("failed to roll up notification status", "notification", job.NotificationID, "error", err)
		}
		return
	}

	if err := p.store.IncrementRetry(ctx, job.ID); err != nil {
		p.log.Warn("failed to increment retry count", "delivery", job.ID, "notification", job.NotificationID, "error", err)
	}
	if err := p.store.UpdateStatus(ctx, job.ID, model.StatusFailed, model.StatusQueued, ""); err != nil {
		p.log.Warn("status transition back to QUEUED failed", "delivery", job.ID, "notification", job.NotificationID, "error", err)
	}
	if err := p.rollup.RollupStatus(ctx, job.NotificationID, model.MaxRetries); err != nil {
		p.log.Warn("failed to roll up notification status", "notification", job.NotificationID, "error", err)
	}

	p.log.Info("job rescheduled", "delivery", job.ID, "notification", job.NotificationID, "channel", p.channel, "attempts", job.Attempts, "cause", fmt.Sprintf("%v", deliverErr))
}
