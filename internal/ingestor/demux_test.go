package ingestor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/5-VED/nest-notification-svc/internal/model"
)

func TestTranslate_UserRegistered(t *testing.T) {
	req, ok, err := translate("user.events", Event{EventType: "USER_REGISTERED", UserID: "u1", UserName: "Ada"})

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.TypeWelcome, req.Type)
	assert.Equal(t, model.ChannelEmail, *req.Channel)
	assert.Contains(t, req.Message, "Ada")
}

func TestTranslate_UserUpdated_IsNoOp(t *testing.T) {
	_, ok, err := translate("user.events", Event{EventType: "USER_UPDATED", UserID: "u1"})

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTranslate_PasswordResetIsHighPriority(t *testing.T) {
	req, ok, err := translate("auth.events", Event{EventType: "PASSWORD_RESET_REQUESTED", UserID: "u1"})

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.PriorityHigh, *req.Priority)
	assert.Equal(t, model.TypePasswordReset, req.Type)
}

func TestTranslate_OrderShippedCarriesTrackingMetadata(t *testing.T) {
	req, ok, err := translate("order.events", Event{
		EventType: "ORDER_SHIPPED", UserID: "u1", OrderID: "o-1", TrackingNumber: "1Z999",
	})

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.ChannelPush, *req.Channel)
	assert.Equal(t, "o-1", req.Metadata["orderId"])
	assert.Equal(t, "1Z999", req.Metadata["trackingNumber"])
}

func TestTranslate_PaymentFailedIsHighPriority(t *testing.T) {
	req, ok, err := translate("payment.events", Event{EventType: "PAYMENT_FAILED", UserID: "u1"})

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.PriorityHigh, *req.Priority)
}

func TestTranslate_UnrecognisedEventType_IsSkipped(t *testing.T) {
	_, ok, err := translate("order.events", Event{EventType: "ORDER_CANCELLED", UserID: "u1"})

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFromBulkItem_DefaultsLeftNilForDispatcherToResolve(t *testing.T) {
	req := fromBulkItem(BulkItem{UserID: "u1", Type: "WELCOME", Title: "Hi", Message: "hello"})

	assert.Nil(t, req.Channel)
	assert.Nil(t, req.Priority)
}

func TestFromBulkItem_PinnedChannelAndPriorityCarryThrough(t *testing.T) {
	req := fromBulkItem(BulkItem{
		UserID: "u1", Type: "ORDER_SHIPPED", Title: "Hi", Message: "hello",
		Channel: "SMS", Priority: "URGENT",
	})

	require.NotNil(t, req.Channel)
	require.NotNil(t, req.Priority)
	assert.Equal(t, model.ChannelSMS, *req.Channel)
	assert.Equal(t, model.PriorityUrgent, *req.Priority)
}
