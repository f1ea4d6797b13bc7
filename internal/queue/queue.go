// Package queue implements the Channel Work Queues (C4): one
// priority/delay job queue per channel, backed by Redis sorted sets and
// string values, grounded on the teacher's use of go-redis as an
// auxiliary store in service.go and generalized into a small in-house
// job queue rather than adopting an external job-queue product.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/5-VED/nest-notification-svc/internal/model"
)

// priorityScale dominates the timestamp term in a ready-set score so that
// priority strictly orders dequeue before the FIFO tiebreak ever matters.
const priorityScale = 1e13

// backoffBase and backoffMultiplier implement the "exponential backoff
// starting at 1s" retry policy for consumer-reported job failures.
const backoffBase = time.Second
const backoffMultiplier = 2.0

// maxAttempts bounds consumer-reported retries before a job is declared
// dead, per §4.4.
const maxAttempts = model.MaxRetries

// Job is a unit of work handed to a Channel Worker. ID identifies this
// job's own NotificationDelivery row (one per target channel), never the
// parent Notification: two jobs fanned out from the same Dispatch call
// carry different IDs even though they share NotificationID, so their
// QUEUED->PROCESSING->SENT/FAILED transitions never contend with each
// other in the Store.
type Job struct {
	ID             uuid.UUID              `json:"id"`
	NotificationID uuid.UUID              `json:"notificationId"`
	Channel        model.Channel          `json:"channel"`
	Type           model.NotificationType `json:"type"`
	UserID         string                 `json:"userId"`
	Title          string                 `json:"title"`
	Message        string                 `json:"message"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	Priority       int                    `json:"priority"`
	DelayUntil     time.Time              `json:"delayUntil"`
	Attempts       int                    `json:"attempts"`
	StalledCount   int                    `json:"stalledCount"`
	EnqueuedAt     time.Time              `json:"enqueuedAt"`
}

// Queue is a per-channel priority/delay job store. A single Queue serves
// every channel; keys are namespaced by channel name.
type Queue struct {
	rdb             *redis.Client
	stalledInterval time.Duration
	maxStalled      int
}

// New constructs a Queue. stalledInterval and maxStalled implement the
// stalled-job reclaim contract (5s / 1 reassignment by default).
func New(rdb *redis.Client, stalledInterval time.Duration, maxStalled int) *Queue {
	return &Queue{rdb: rdb, stalledInterval: stalledInterval, maxStalled: maxStalled}
}

func readyKey(ch model.Channel) string     { return fmt.Sprintf("notify:queue:%s:ready", ch) }
func delayedKey(ch model.Channel) string   { return fmt.Sprintf("notify:queue:%s:delayed", ch) }
func activeKey(ch model.Channel) string    { return fmt.Sprintf("notify:queue:%s:active", ch) }
func jobKey(id uuid.UUID) string           { return "notify:job:" + id.String() }
func completedKey(ch model.Channel) string { return fmt.Sprintf("notify:history:%s:completed", ch) }
func failedKey(ch model.Channel) string    { return fmt.Sprintf("notify:history:%s:failed", ch) }

// readyScore computes the ZSET score used to order ready jobs: priority
// descending, then earliest-enqueued-first among equal priorities.
func readyScore(priority int, enqueuedAt time.Time) float64 {
	return float64(priority)*priorityScale - float64(enqueuedAt.Unix())
}

// backoffDelay returns the delay before attempt number attempts (1-based)
// is retried: 1s, 2s, 4s, ...
func backoffDelay(attempts int) time.Duration {
	d := float64(backoffBase)
	for i := 1; i < attempts; i++ {
		d *= backoffMultiplier
	}
	return time.Duration(d)
}

// Enqueue stores a job and makes it either immediately ready or delayed
// until job.DelayUntil, per the enqueue policy in §4.4.
func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now()
	}

	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	if err := q.rdb.Set(ctx, jobKey(job.ID), raw, 0).Err(); err != nil {
		return fmt.Errorf("store job: %w", err)
	}

	if job.DelayUntil.After(time.Now()) {
		return q.rdb.ZAdd(ctx, delayedKey(job.Channel), redis.Z{
			Score:  float64(job.DelayUntil.Unix()),
			Member: job.ID.String(),
		}).Err()
	}

	return q.rdb.ZAdd(ctx, readyKey(job.Channel), redis.Z{
		Score:  readyScore(job.Priority, job.EnqueuedAt),
		Member: job.ID.String(),
	}).Err()
}

// promoteDue moves delayed jobs whose DelayUntil has arrived into the
// ready set for channel.
func (q *Queue) promoteDue(ctx context.Context, channel model.Channel) error {
	now := float64(time.Now().Unix())
	ids, err := q.rdb.ZRangeByScore(ctx, delayedKey(channel), &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%f", now),
	}).Result()
	if err != nil {
		return fmt.Errorf("scan delayed jobs: %w", err)
	}

	for _, idStr := range ids {
		job, err := q.loadJob(ctx, idStr)
		if err != nil {
			continue
		}
		if err := q.rdb.ZRem(ctx, delayedKey(channel), idStr).Err(); err != nil {
			continue
		}
		_ = q.rdb.ZAdd(ctx, readyKey(channel), redis.Z{
			Score:  readyScore(job.Priority, job.EnqueuedAt),
			Member: idStr,
		}).Err()
	}

	return nil
}

// Dequeue takes the highest-priority ready job for channel, marking it
// active for stalledInterval. Returns (Job{}, false, nil) when nothing is
// ready.
func (q *Queue) Dequeue(ctx context.Context, channel model.Channel) (Job, bool, error) {
	if err := q.promoteDue(ctx, channel); err != nil {
		return Job{}, false, err
	}

	top, err := q.rdb.ZPopMax(ctx, readyKey(channel), 1).Result()
	if err != nil {
		return Job{}, false, fmt.Errorf("pop ready job: %w", err)
	}
	if len(top) == 0 {
		return Job{}, false, nil
	}

	idStr, _ := top[0].Member.(string)
	job, err := q.loadJob(ctx, idStr)
	if err != nil {
		return Job{}, false, err
	}

	deadline := time.Now().Add(q.stalledInterval)
	if err := q.rdb.ZAdd(ctx, activeKey(channel), redis.Z{
		Score:  float64(deadline.Unix()),
		Member: idStr,
	}).Err(); err != nil {
		return Job{}, false, fmt.Errorf("mark job active: %w", err)
	}

	return job, true, nil
}

// Complete records a job as finished: it leaves the active set, its
// record is discarded, and a bounded completed-history entry is kept.
func (q *Queue) Complete(ctx context.Context, job Job) error {
	if err := q.rdb.ZRem(ctx, activeKey(job.Channel), job.ID.String()).Err(); err != nil {
		return fmt.Errorf("clear active job: %w", err)
	}

	summary, _ := json.Marshal(job)
	pipe := q.rdb.TxPipeline()
	pipe.LPush(ctx, completedKey(job.Channel), summary)
	pipe.LTrim(ctx, completedKey(job.Channel), 0, 4)
	pipe.Del(ctx, jobKey(job.ID))
	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("record completion: %w", err)
	}
	return nil
}

// Fail records a consumer-reported failure. If attempts remain, the job
// is rescheduled with exponential backoff and dead reports false. Once
// maxAttempts is exhausted, the job is declared dead: its record moves to
// the bounded failed-history list and dead reports true, signalling the
// caller to finalise the owning Notification as FAILED.
func (q *Queue) Fail(ctx context.Context, job Job, errMsg string) (dead bool, err error) {
	if err := q.rdb.ZRem(ctx, activeKey(job.Channel), job.ID.String()).Err(); err != nil {
		return false, fmt.Errorf("clear active job: %w", err)
	}

	job.Attempts++
	if job.Attempts >= maxAttempts {
		return true, q.deadLetter(ctx, job, errMsg)
	}

	job.DelayUntil = time.Now().Add(backoffDelay(job.Attempts))
	return false, q.requeueDelayed(ctx, job)
}

func (q *Queue) requeueDelayed(ctx context.Context, job Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.rdb.Set(ctx, jobKey(job.ID), raw, 0).Err(); err != nil {
		return fmt.Errorf("store job: %w", err)
	}
	return q.rdb.ZAdd(ctx, delayedKey(job.Channel), redis.Z{
		Score:  float64(job.DelayUntil.Unix()),
		Member: job.ID.String(),
	}).Err()
}

func (q *Queue) deadLetter(ctx context.Context, job Job, errMsg string) error {
	job.Metadata = withError(job.Metadata, errMsg)
	summary, _ := json.Marshal(job)

	pipe := q.rdb.TxPipeline()
	pipe.LPush(ctx, failedKey(job.Channel), summary)
	pipe.LTrim(ctx, failedKey(job.Channel), 0, 2)
	pipe.Del(ctx, jobKey(job.ID))
	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("record dead letter: %w", err)
	}
	return nil
}

func withError(metadata map[string]interface{}, errMsg string) map[string]interface{} {
	out := make(map[string]interface{}, len(metadata)+1)
	for k, v := range metadata {
		out[k] = v
	}
	out["lastError"] = errMsg
	return out
}

// ReclaimStalled reassigns or kills jobs whose consumer has not reported
// within stalledInterval. It returns the number of jobs reassigned back
// to the ready set (jobs declared dead are not counted; they are recorded
// only in the channel's bounded failed-history list, matching the
// fire-and-forget nature of the sweep).
func (q *Queue) ReclaimStalled(ctx context.Context, channel model.Channel) (int, error) {
	now := float64(time.Now().Unix())
	ids, err := q.rdb.ZRangeByScore(ctx, activeKey(channel), &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%f", now),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("scan active jobs: %w", err)
	}

	reassigned := 0
	for _, idStr := range ids {
		job, err := q.loadJob(ctx, idStr)
		if err != nil {
			_ = q.rdb.ZRem(ctx, activeKey(channel), idStr).Err()
			continue
		}

		if err := q.rdb.ZRem(ctx, activeKey(channel), idStr).Err(); err != nil {
			continue
		}

		if job.StalledCount >= q.maxStalled {
			if err := q.deadLetter(ctx, job, "stalled: consumer never reported"); err != nil {
				return reassigned, err
			}
			continue
		}

		job.StalledCount++
		raw, err := json.Marshal(job)
		if err != nil {
			continue
		}
		if err := q.rdb.Set(ctx, jobKey(job.ID), raw, 0).Err(); err != nil {
			continue
		}
		if err := q.rdb.ZAdd(ctx, readyKey(channel), redis.Z{
			Score:  readyScore(job.Priority, job.EnqueuedAt),
			Member: idStr,
		}).Err(); err != nil {
			continue
		}
		reassigned++
	}

	return reassigned, nil
}

func (q *Queue) loadJob(ctx context.Context, idStr string) (Job, error) {
	raw, err := q.rdb.Get(ctx, "notify:job:"+idStr).Result()
	if err != nil {
		return Job{}, fmt.Errorf("load job %s: %w", idStr, err)
	}
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return Job{}, fmt.Errorf("decode job %s: %w", idStr, err)
	}
	return job, nil
}

// Depth reports the number of ready, delayed and active jobs for channel,
// for the Metrics Collector (C9).
func (q *Queue) Depth(ctx context.Context, channel model.Channel) (ready, delayed, active int64, err error) {
	ready, err = q.rdb.ZCard(ctx, readyKey(channel)).Result()
	if err != nil {
		return 0, 0, 0, err
	}
	delayed, err = q.rdb.ZCard(ctx, delayedKey(channel)).Result()
	if err != nil {
		return 0, 0, 0, err
	}
	active, err = q.rdb.ZCard(ctx, activeKey(channel)).Result()
	if err != nil {
		return 0, 0, 0, err
	}
	return ready, delayed, active, nil
}
