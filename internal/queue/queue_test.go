package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/5-VED/nest-notification-svc/internal/model"
)

// newTestQueue wires a Queue against an in-memory miniredis server, the
// go-redis ecosystem's standard stand-in for a live Redis instance.
func newTestQueue(t *testing.T, stalledInterval time.Duration, maxStalled int) *Queue {
	t.Helper()
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, stalledInterval, maxStalled)
}

func TestReadyScore_PriorityDominatesTimestamp(t *testing.T) {
	now := time.Now()
	earlier := now.Add(-time.Hour)

	// A HIGH priority job enqueued later must still outscore a LOW
	// priority job enqueued much earlier.
	high := readyScore(model.PriorityWeight(model.PriorityHigh), now)
	low := readyScore(model.PriorityWeight(model.PriorityLow), earlier)

	assert.Greater(t, high, low)
}

func TestReadyScore_FIFOAmongEqualPriority(t *testing.T) {
	earlier := time.Now().Add(-time.Minute)
	later := time.Now()

	earlierScore := readyScore(model.PriorityWeight(model.PriorityNormal), earlier)
	laterScore := readyScore(model.PriorityWeight(model.PriorityNormal), later)

	assert.Greater(t, earlierScore, laterScore, "earlier-enqueued job must score higher so it pops first")
}

func TestBackoffDelay_ExponentialFromOneSecond(t *testing.T) {
	assert.Equal(t, time.Second, backoffDelay(1))
	assert.Equal(t, 2*time.Second, backoffDelay(2))
	assert.Equal(t, 4*time.Second, backoffDelay(3))
}

func TestJob_JSONRoundTrip(t *testing.T) {
	job := Job{
		ID:         uuid.New(),
		Channel:    model.ChannelEmail,
		UserID:     "u1",
		Title:      "Welcome",
		Message:    "hi there",
		Metadata:   map[string]interface{}{"orderId": "o-1"},
		Priority:   model.PriorityWeight(model.PriorityUrgent),
		DelayUntil: time.Now().Add(30 * time.Second).Truncate(time.Second),
		Attempts:   1,
		EnqueuedAt: time.Now().Truncate(time.Second),
	}

	raw, err := json.Marshal(job)
	require.NoError(t, err)

	var decoded Job
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, job.ID, decoded.ID)
	assert.Equal(t, job.Priority, decoded.Priority)
	assert.True(t, job.DelayUntil.Equal(decoded.DelayUntil))
	assert.Equal(t, job.Metadata["orderId"], decoded.Metadata["orderId"])
}

func TestWithError_DoesNotMutateOriginalMap(t *testing.T) {
	original := map[string]interface{}{"orderId": "o-1"}

	augmented := withError(original, "smtp timeout")

	assert.NotContains(t, original, "lastError")
	assert.Equal(t, "smtp timeout", augmented["lastError"])
	assert.Equal(t, "o-1", augmented["orderId"])
}

func TestMaxAttempts_MatchesModelRetryBudget(t *testing.T) {
	assert.Equal(t, model.MaxRetries, maxAttempts)
}

func TestQueue_EnqueueDequeueComplete_RoundTrip(t *testing.T) {
	q := newTestQueue(t, time.Minute, 1)
	ctx := context.Background()

	job := Job{ID: uuid.New(), Channel: model.ChannelEmail, UserID: "u1", Priority: model.PriorityWeight(model.PriorityNormal)}
	require.NoError(t, q.Enqueue(ctx, job))

	got, ok, err := q.Dequeue(ctx, model.ChannelEmail)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, job.ID, got.ID)

	ready, delayed, active, err := q.Depth(ctx, model.ChannelEmail)
	require.NoError(t, err)
	assert.Zero(t, delayed)
	assert.Zero(t, ready)
	assert.Equal(t, int64(1), active, "dequeued job stays in the active set until Complete/Fail")

	require.NoError(t, q.Complete(ctx, got))

	_, _, active, err = q.Depth(ctx, model.ChannelEmail)
	require.NoError(t, err)
	assert.Zero(t, active)
}

func TestQueue_Dequeue_ReturnsFalseWhenEmpty(t *testing.T) {
	q := newTestQueue(t, time.Minute, 1)

	_, ok, err := q.Dequeue(context.Background(), model.ChannelSMS)

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestQueue_Fail_RequeuesUntilMaxAttemptsThenDeclaresDead(t *testing.T) {
	q := newTestQueue(t, time.Minute, 1)
	ctx := context.Background()

	job := Job{ID: uuid.New(), Channel: model.ChannelPush, UserID: "u1"}
	require.NoError(t, q.Enqueue(ctx, job))

	got, ok, err := q.Dequeue(ctx, model.ChannelPush)
	require.NoError(t, err)
	require.True(t, ok)

	for i := 1; i < maxAttempts; i++ {
		dead, err := q.Fail(ctx, got, "transient failure")
		require.NoError(t, err)
		assert.False(t, dead, "attempt %d should not exhaust the retry budget", i)
		got.Attempts = i
	}

	dead, err := q.Fail(ctx, got, "final failure")
	require.NoError(t, err)
	assert.True(t, dead, "retry budget should be exhausted after maxAttempts")
}

func TestQueue_ReclaimStalled_ReassignsJobBackToReady(t *testing.T) {
	q := newTestQueue(t, time.Millisecond, 5)
	ctx := context.Background()

	job := Job{ID: uuid.New(), Channel: model.ChannelEmail, UserID: "u1"}
	require.NoError(t, q.Enqueue(ctx, job))

	_, ok, err := q.Dequeue(ctx, model.ChannelEmail)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(5 * time.Millisecond)

	reassigned, err := q.ReclaimStalled(ctx, model.ChannelEmail)
	require.NoError(t, err)
	assert.Equal(t, 1, reassigned)

	ready, _, active, err := q.Depth(ctx, model.ChannelEmail)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ready)
	assert.Zero(t, active)
}

func TestQueue_ReclaimStalled_DeadLettersAfterMaxStalledCount(t *testing.T) {
	q := newTestQueue(t, time.Millisecond, 1)
	ctx := context.Background()

	job := Job{ID: uuid.New(), Channel: model.ChannelSMS, UserID: "u1", StalledCount: 1}
	require.NoError(t, q.Enqueue(ctx, job))

	_, ok, err := q.Dequeue(ctx, model.ChannelSMS)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(5 * time.Millisecond)

	reassigned, err := q.ReclaimStalled(ctx, model.ChannelSMS)
	require.NoError(t, err)
	assert.Zero(t, reassigned, "a job already at maxStalled is dead-lettered, not reassigned")

	ready, _, active, err := q.Depth(ctx, model.ChannelSMS)
	require.NoError(t, err)
	assert.Zero(t, ready)
	assert.Zero(t, active)
}

func TestQueue_ReclaimStalled_LeavesFreshActiveJobsAlone(t *testing.T) {
	q := newTestQueue(t, time.Hour, 5)
	ctx := context.Background()

	job := Job{ID: uuid.New(), Channel: model.ChannelEmail, UserID: "u1"}
	require.NoError(t, q.Enqueue(ctx, job))
	_, ok, err := q.Dequeue(ctx, model.ChannelEmail)
	require.NoError(t, err)
	require.True(t, ok)

	reassigned, err := q.ReclaimStalled(ctx, model.ChannelEmail)
	require.NoError(t, err)
	assert.Zero(t, reassigned, "a job well within its stalled interval must not be reclaimed")
}
