package dispatcher

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/5-VED/nest-notification-svc/internal/apperr"
	"github.com/5-VED/nest-notification-svc/internal/model"
	"github.com/5-VED/nest-notification-svc/internal/queue"
)

type fakeStore struct {
	created     model.Notification
	rollupCalls []uuid.UUID
}

func (f *fakeStore) Create(_ context.Context, n model.Notification) (model.Notification, error) {
	n.ID = uuid.New()
	n.Status = model.StatusQueued
	f.created = n
	return n, nil
}

func (f *fakeStore) RollupStatus(_ context.Context, id uuid.UUID, _ int) error {
	f.rollupCalls = append(f.rollupCalls, id)
	return nil
}

type fakeDeliveryStore struct {
	created        []model.NotificationDelivery
	failedForRetry []model.NotificationDelivery
	incrementCalls []uuid.UUID
	statusUpdates  []struct {
		id       uuid.UUID
		from, to model.Status
	}
}

func (f *fakeDeliveryStore) Create(_ context.Context, n model.Notification, channel model.Channel) (model.NotificationDelivery, error) {
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
	}
	f.created = append(f.created, d)
	return d, nil
}

func (f *fakeDeliveryStore) FindFailedForRetry(_ context.Context, _, _ int) ([]model.NotificationDelivery, error) {
	return f.failedForRetry, nil
}

func (f *fakeDeliveryStore) IncrementRetry(_ context.Context, id uuid.UUID) error {
	f.incrementCalls = append(f.incrementCalls, id)
	return nil
}

func (f *fakeDeliveryStore) UpdateStatus(_ context.Context, id uuid.UUID, from, to model.Status, _ string) error {
	f.statusUpdates = append(f.statusUpdates, struct {
		id       uuid.UUID
		from, to model.Status
	}{id, from, to})
	return nil
}

type fakePrefs struct {
	prefs []model.UserPreference
}

func (f *fakePrefs) GetPreferences(_ context.Context, _ string) []model.UserPreference {
	return f.prefs
}

type fakeQueue struct {
	enqueued []queue.Job
}

func (f *fakeQueue) Enqueue(_ context.Context, job queue.Job) error {
	f.enqueued = append(f.enqueued, job)
	return nil
}

func TestDispatch_MissingRequiredFields(t *testing.T) {
	d := New(&fakeStore{}, &fakeDeliveryStore{}, &fakePrefs{}, &fakeQueue{}, nil)

	_, err := d.Dispatch(context.Background(), SendNotificationData{UserID: "u1"})

	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestDispatch_TitleTooLong(t *testing.T) {
	d := New(&fakeStore{}, &fakeDeliveryStore{}, &fakePrefs{}, &fakeQueue{}, nil)

	longTitle := make([]byte, 201)
	for i := range longTitle {
		longTitle[i] = 'a'
	}

	_, err := d.Dispatch(context.Background(), SendNotificationData{
		UserID: "u1", Type: model.TypeWelcome, Title: string(longTitle), Message: "hi",
	})

	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestDispatch_PinnedChannelSkipsPreferenceIntersection(t *testing.T) {
	q := &fakeQueue{}
	prefs := &fakePrefs{prefs: []model.UserPreference{{Channel: model.ChannelEmail, IsEnabled: false}}}
	d := New(&fakeStore{}, &fakeDeliveryStore{}, prefs, q, nil)

	sms := model.ChannelSMS
	_, err := d.Dispatch(context.Background(), SendNotificationData{
		UserID: "u1", Type: model.TypeWelcome, Title: "Hi", Message: "hello", Channel: &sms,
	})

	require.NoError(t, err)
	require.Len(t, q.enqueued, 1)
	assert.Equal(t, model.ChannelSMS, q.enqueued[0].Channel)
}

func TestDispatch_DefaultChannelsIntersectedWithPreferences(t *testing.T) {
	q := &fakeQueue{}
	// ORDER_CONFIRMATION defaults to EMAIL,PUSH; disable PUSH.
	prefs := &fakePrefs{prefs: []model.UserPreference{
		{Channel: model.ChannelEmail, IsEnabled: true},
		{Channel: model.ChannelPush, IsEnabled: false},
	}}
	d := New(&fakeStore{}, &fakeDeliveryStore{}, prefs, q, nil)

	_, err := d.Dispatch(context.Background(), SendNotificationData{
		UserID: "u1", Type: model.TypeOrderConfirmation, Title: "Order", Message: "confirmed",
	})

	require.NoError(t, err)
	require.Len(t, q.enqueued, 1)
	assert.Equal(t, model.ChannelEmail, q.enqueued[0].Channel)
}

func TestDispatch_NoPreferenceRowsMeansAllEnabled(t *testing.T) {
	q := &fakeQueue{}
	d := New(&fakeStore{}, &fakeDeliveryStore{}, &fakePrefs{}, q, nil)

	_, err := d.Dispatch(context.Background(), SendNotificationData{
		UserID: "u1", Type: model.TypeOrderShipped, Title: "Shipped", Message: "on the way",
	})

	require.NoError(t, err)
	channels := []model.Channel{q.enqueued[0].Channel, q.enqueued[1].Channel}
	assert.ElementsMatch(t, []model.Channel{model.ChannelPush, model.ChannelSMS}, channels)
}

// TestDispatch_FanOutJobsCarryDistinctIDsSharingOneNotificationID is the
// regression for the shared-id bug: ORDER_SHIPPED fans out to PUSH and SMS,
// and each job must own its own delivery id so the two channels' workers
// never contend on the same status row, even though both jobs point back
// at the same parent notification.
func TestDispatch_FanOutJobsCarryDistinctIDsSharingOneNotificationID(t *testing.T) {
	q := &fakeQueue{}
	d := New(&fakeStore{}, &fakeDeliveryStore{}, &fakePrefs{}, q, nil)

	n, err := d.Dispatch(context.Background(), SendNotificationData{
		UserID: "u1", Type: model.TypeOrderShipped, Title: "Shipped", Message: "on the way",
	})

	require.NoError(t, err)
	require.Len(t, q.enqueued, 2)
	assert.NotEqual(t, q.enqueued[0].ID, q.enqueued[1].ID, "each channel's job must own a distinct delivery id")
	assert.Equal(t, n.ID, q.enqueued[0].NotificationID)
	assert.Equal(t, n.ID, q.enqueued[1].NotificationID)
}

func TestDispatch_PriorityMapsToQueueWeight(t *testing.T) {
	q := &fakeQueue{}
	d := New(&fakeStore{}, &fakeDeliveryStore{}, &fakePrefs{}, q, nil)

	urgent := model.PriorityUrgent
	_, err := d.Dispatch(context.Background(), SendNotificationData{
		UserID: "u1", Type: model.TypeWelcome, Title: "Hi", Message: "hello", Priority: &urgent,
	})

	require.NoError(t, err)
	require.Len(t, q.enqueued, 1)
	assert.Equal(t, 20, q.enqueued[0].Priority)
}

func TestDispatch_ScheduledAtInFuture_DelaysJob(t *testing.T) {
	q := &fakeQueue{}
	d := New(&fakeStore{}, &fakeDeliveryStore{}, &fakePrefs{}, q, nil)

	future := time.Now().Add(30 * time.Second)
	_, err := d.Dispatch(context.Background(), SendNotificationData{
		UserID: "u1", Type: model.TypeWelcome, Title: "Hi", Message: "hello", ScheduledAt: &future,
	})

	require.NoError(t, err)
	assert.True(t, q.enqueued[0].DelayUntil.Equal(future))
}

func TestRetryFailed_RequeuesEachRowAndIncrementsRetryCount(t *testing.T) {
	id1, id2 := uuid.New(), uuid.New()
	notificationID1, notificationID2 := uuid.New(), uuid.New()
	deliveries := &fakeDeliveryStore{failedForRetry: []model.NotificationDelivery{
		{ID: id1, NotificationID: notificationID1, UserID: "u1", Type: model.TypeWelcome, Channel: model.ChannelEmail, Priority: model.PriorityNormal},
		{ID: id2, NotificationID: notificationID2, UserID: "u2", Type: model.TypeWelcome, Channel: model.ChannelEmail, Priority: model.PriorityNormal},
	}}
	store := &fakeStore{}
	q := &fakeQueue{}
	d := New(store, deliveries, &fakePrefs{}, q, nil)

	n, err := d.RetryFailed(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.ElementsMatch(t, []uuid.UUID{id1, id2}, deliveries.incrementCalls)
	assert.ElementsMatch(t, []uuid.UUID{notificationID1, notificationID2}, store.rollupCalls)
	require.Len(t, q.enqueued, 2)
	assert.Equal(t, id1, q.enqueued[0].ID, "retry must reuse the original delivery id")
	assert.Equal(t, notificationID1, q.enqueued[0].NotificationID)
}
