package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/5-VED/nest-notification-svc/internal/apperr"
	"github.com/5-VED/nest-notification-svc/internal/model"
)

func newMockDeliveryStore(t *testing.T) (*DeliveryStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewDeliveryStore(mock), mock
}

func TestDeliveryStore_Create_ReturnsTimestampsFromRow(t *testing.T) {
	store, mock := newMockDeliveryStore(t)
	now := time.Now().Truncate(time.Second)

	n := model.Notification{
		ID:       uuid.New(),
		UserID:   "u1",
		Type:     model.TypeOrderShipped,
		Title:    "Shipped",
		Body:     "on its way",
		Priority: model.PriorityNormal,
	}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO notification_deliveries")).
		WithArgs(pgxmock.AnyArg(), n.ID, n.UserID, n.Type, model.ChannelSMS, n.Title, n.Body, n.Metadata, n.Priority, model.StatusQueued, 0).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	got, err := store.Create(context.Background(), n, model.ChannelSMS)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, n.ID, got.NotificationID)
	assert.Equal(t, model.ChannelSMS, got.Channel)
	assert.Equal(t, model.StatusQueued, got.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliveryStore_Create_StoreErrorWrapsErrStoreUnavailable(t *testing.T) {
	store, mock := newMockDeliveryStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO notification_deliveries")).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("boom"))

	_, err := store.Create(context.Background(), model.Notification{}, model.ChannelEmail)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrStoreUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliveryStore_UpdateStatus_CASSucceedsWhenFromMatches(t *testing.T) {
	store, mock := newMockDeliveryStore(t)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE notification_deliveries")).
		WithArgs(model.StatusProcessing, "", id, model.StatusQueued).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := store.UpdateStatus(context.Background(), id, model.StatusQueued, model.StatusProcessing, "")

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliveryStore_UpdateStatus_CASFailsWhenRowAlreadyTransitioned(t *testing.T) {
	store, mock := newMockDeliveryStore(t)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE notification_deliveries")).
		WithArgs(model.StatusProcessing, "", id, model.StatusQueued).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.UpdateStatus(context.Background(), id, model.StatusQueued, model.StatusProcessing, "")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrNotificationNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestDeliveryStore_UpdateStatus_TwoChannelsOfOneNotificationDoNotContend is
// the regression the shared-id bug hid: two deliveries created from the
// same notification never share an id, so their CAS transitions never
// collide even against a store that genuinely enforces the (id, from)
// compare-and-swap.
func TestDeliveryStore_UpdateStatus_TwoChannelsOfOneNotificationDoNotContend(t *testing.T) {
	store, mock := newMockDeliveryStore(t)
	emailDeliveryID := uuid.New()
	pushDeliveryID := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE notification_deliveries")).
		WithArgs(model.StatusProcessing, "", emailDeliveryID, model.StatusQueued).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE notification_deliveries")).
		WithArgs(model.StatusProcessing, "", pushDeliveryID, model.StatusQueued).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, store.UpdateStatus(context.Background(), emailDeliveryID, model.StatusQueued, model.StatusProcessing, ""))
	require.NoError(t, store.UpdateStatus(context.Background(), pushDeliveryID, model.StatusQueued, model.StatusProcessing, ""))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliveryStore_IncrementRetry_NoRowsMeansNotFound(t *testing.T) {
	store, mock := newMockDeliveryStore(t)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE notification_deliveries SET retry_count")).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.IncrementRetry(context.Background(), id)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrNotificationNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliveryStore_FindFailedForRetry_ScansRows(t *testing.T) {
	store, mock := newMockDeliveryStore(t)
	now := time.Now().Truncate(time.Second)
	id := uuid.New()
	notificationID := uuid.New()

	rows := pgxmock.NewRows([]string{
		"id", "notification_id", "user_id", "type", "channel", "title", "body",
		"metadata", "priority", "status", "retry_count", "created_at",
		"updated_at", "sent_at", "failed_at", "error_message",
	}).AddRow(
		id, notificationID, "u1", model.TypeOrderShipped, model.ChannelSMS, "Shipped", "on its way",
		map[string]interface{}(nil), model.PriorityNormal, model.StatusFailed, 1, now,
		now, (*time.Time)(nil), &now, "carrier timeout",
	)

	mock.ExpectQuery(regexp.QuoteMeta("FROM notification_deliveries")).
		WithArgs(model.MaxRetries, 10).
		WillReturnRows(rows)

	got, err := store.FindFailedForRetry(context.Background(), 10, model.MaxRetries)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.Equal(t, notificationID, got[0].NotificationID)
	assert.Equal(t, model.ChannelSMS, got[0].Channel)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliveryStore_GetByID_NotFound(t *testing.T) {
	store, mock := newMockDeliveryStore(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM notification_deliveries")).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "notification_id", "user_id", "type", "channel", "title", "body",
			"metadata", "priority", "status", "retry_count", "created_at",
			"updated_at", "sent_at", "failed_at", "error_message",
		}))

	_, err := store.GetByID(context.Background(), id)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrNotificationNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
