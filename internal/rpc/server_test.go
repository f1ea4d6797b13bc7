package rpc

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/5-VED/nest-notification-svc/internal/dispatcher"
	"github.com/5-VED/nest-notification-svc/internal/metrics"
	"github.com/5-VED/nest-notification-svc/internal/model"
	"github.com/5-VED/nest-notification-svc/internal/rpc/pb"
)

type fakeDispatcher struct {
	calls   []dispatcher.SendNotificationData
	failFor string
}

func (f *fakeDispatcher) Dispatch(_ context.Context, req dispatcher.SendNotificationData) (model.Notification, error) {
	f.calls = append(f.calls, req)
	if req.UserID == f.failFor {
		return model.Notification{}, errors.New("dispatch failed")
	}
	return model.Notification{ID: uuid.New(), UserID: req.UserID, Status: model.StatusQueued}, nil
}

type fakeStatusReader struct {
	notifications map[uuid.UUID]model.Notification
}

func (f *fakeStatusReader) GetByID(_ context.Context, id uuid.UUID) (model.Notification, error) {
	n, ok := f.notifications[id]
	if !ok {
		return model.Notification{}, errors.New("not found")
	}
	return n, nil
}

type fakePreferenceWriter struct {
	userID  string
	channel model.Channel
	enabled bool
}

func (f *fakePreferenceWriter) UpsertPreference(_ context.Context, userID string, channel model.Channel, enabled bool) error {
	f.userID, f.channel, f.enabled = userID, channel, enabled
	return nil
}

type fakeHealthSource struct {
	healthy bool
	sample  metrics.Sample
}

func (f *fakeHealthSource) Healthy() bool          { return f.healthy }
func (f *fakeHealthSource) Current() metrics.Sample { return f.sample }

type fakeStream struct {
	toRecv []*pb.SendNotificationRequest
	pos    int
	sent   []*pb.SendNotificationResponse
}

func (s *fakeStream) Recv() (*pb.SendNotificationRequest, error) {
	if s.pos >= len(s.toRecv) {
		return nil, io.EOF
	}
	req := s.toRecv[s.pos]
	s.pos++
	return req, nil
}
func (s *fakeStream) Send(resp *pb.SendNotificationResponse) error {
	s.sent = append(s.sent, resp)
	return nil
}
func (s *fakeStream) Context() context.Context      { return context.Background() }
func (s *fakeStream) SendMsg(m interface{}) error   { return nil }
func (s *fakeStream) RecvMsg(m interface{}) error   { return nil }
func (s *fakeStream) SetHeader(metadata.MD) error   { return nil }
func (s *fakeStream) SendHeader(metadata.MD) error  { return nil }
func (s *fakeStream) SetTrailer(metadata.MD)        {}

func TestSendNotification_Success(t *testing.T) {
	d := &fakeDispatcher{}
	s := New(d, nil, nil, nil, nil, nil)

	resp, err := s.SendNotification(context.Background(), &pb.SendNotificationRequest{UserId: "u1", Type: "WELCOME", Title: "Hi", Message: "hello"})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.NotificationId)
	require.Len(t, d.calls, 1)
	assert.Equal(t, "u1", d.calls[0].UserID)
}

func TestSendNotification_DispatchErrorSurfacesInResponseNotGRPCError(t *testing.T) {
	d := &fakeDispatcher{failFor: "bad-user"}
	s := New(d, nil, nil, nil, nil, nil)

	resp, err := s.SendNotification(context.Background(), &pb.SendNotificationRequest{UserId: "bad-user", Type: "WELCOME", Title: "Hi", Message: "hello"})

	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Message)
}

func TestSendNotification_InvalidChannelEnumRejected(t *testing.T) {
	d := &fakeDispatcher{}
	s := New(d, nil, nil, nil, nil, nil)

	_, err := s.SendNotification(context.Background(), &pb.SendNotificationRequest{
		UserId: "u1", Type: "WELCOME", Title: "Hi", Message: "hello", Channel: "CARRIER_PIGEON",
	})

	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Empty(t, d.calls, "an invalid enum must be rejected before dispatch")
}

func TestSendNotification_MissingRequiredFieldRejected(t *testing.T) {
	d := &fakeDispatcher{}
	s := New(d, nil, nil, nil, nil, nil)

	_, err := s.SendNotification(context.Background(), &pb.SendNotificationRequest{UserId: "u1", Type: "WELCOME"})

	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Empty(t, d.calls)
}

func TestSendBulkNotifications_RejectsEmptyBatch(t *testing.T) {
	d := &fakeDispatcher{}
	s := New(d, nil, nil, nil, nil, nil)

	_, err := s.SendBulkNotifications(context.Background(), &pb.SendBulkNotificationsRequest{})

	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestSendBulkNotifications_RejectsOversizedBatch(t *testing.T) {
	d := &fakeDispatcher{}
	s := New(d, nil, nil, nil, nil, nil)

	notifications := make([]*pb.SendNotificationRequest, 10001)
	for i := range notifications {
		notifications[i] = &pb.SendNotificationRequest{UserId: "u", Type: "WELCOME", Title: "Hi", Message: "hello"}
	}

	_, err := s.SendBulkNotifications(context.Background(), &pb.SendBulkNotificationsRequest{Notifications: notifications})

	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Empty(t, d.calls)
}

func TestSendBulkNotifications_RejectsInvalidPriorityEnumInAnyItem(t *testing.T) {
	d := &fakeDispatcher{}
	s := New(d, nil, nil, nil, nil, nil)

	_, err := s.SendBulkNotifications(context.Background(), &pb.SendBulkNotificationsRequest{
		Notifications: []*pb.SendNotificationRequest{
			{UserId: "u1", Type: "WELCOME", Title: "Hi", Message: "hello"},
			{UserId: "u2", Type: "WELCOME", Title: "Hi", Message: "hello", Priority: "ASAP"},
		},
	})

	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Empty(t, d.calls)
}

func TestSendBulkNotifications_CountsSuccessAndFailure(t *testing.T) {
	d := &fakeDispatcher{failFor: "u2"}
	s := New(d, nil, nil, nil, nil, nil)

	resp, err := s.SendBulkNotifications(context.Background(), &pb.SendBulkNotificationsRequest{
		Notifications: []*pb.SendNotificationRequest{
			{UserId: "u1", Type: "WELCOME", Title: "Hi", Message: "hello"},
			{UserId: "u2", Type: "WELCOME", Title: "Hi", Message: "hello"},
			{UserId: "u3", Type: "WELCOME", Title: "Hi", Message: "hello"},
		},
	})

	require.NoError(t, err)
	assert.EqualValues(t, 2, resp.SuccessCount)
	assert.EqualValues(t, 1, resp.FailureCount)
	assert.Len(t, resp.Errors, 1)
}

func TestSendBulkNotificationsOptimized_DispatchesAllConcurrently(t *testing.T) {
	d := &fakeDispatcher{}
	s := New(d, nil, nil, nil, nil, nil)

	notifications := make([]*pb.SendNotificationRequest, 50)
	for i := range notifications {
		notifications[i] = &pb.SendNotificationRequest{UserId: "u", Type: "WELCOME", Title: "Hi", Message: "hello"}
	}

	resp, err := s.SendBulkNotificationsOptimized(context.Background(), &pb.SendBulkNotificationsRequest{Notifications: notifications})

	require.NoError(t, err)
	assert.EqualValues(t, 50, resp.SuccessCount)
	assert.Len(t, d.calls, 50)
}

func TestSendNotificationStream_RespondsOncePerRequest(t *testing.T) {
	d := &fakeDispatcher{failFor: "bad"}
	s := New(d, nil, nil, nil, nil, nil)

	stream := &fakeStream{toRecv: []*pb.SendNotificationRequest{
		{UserId: "u1", Type: "WELCOME", Title: "Hi", Message: "hello"},
		{UserId: "bad", Type: "WELCOME", Title: "Hi", Message: "hello"},
	}}

	err := s.SendNotificationStream(stream)

	require.NoError(t, err)
	require.Len(t, stream.sent, 2)
	assert.True(t, stream.sent[0].Success)
	assert.False(t, stream.sent[1].Success)
}

func TestGetNotificationStatus_NotFound(t *testing.T) {
	s := New(nil, &fakeStatusReader{notifications: map[uuid.UUID]model.Notification{}}, nil, nil, nil, nil)

	_, err := s.GetNotificationStatus(context.Background(), &pb.GetNotificationStatusRequest{NotificationId: uuid.New().String()})

	require.Error(t, err)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestGetNotificationStatus_InvalidUUID(t *testing.T) {
	s := New(nil, &fakeStatusReader{}, nil, nil, nil, nil)

	_, err := s.GetNotificationStatus(context.Background(), &pb.GetNotificationStatusRequest{NotificationId: "not-a-uuid"})

	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGetNotificationStatus_Found(t *testing.T) {
	id := uuid.New()
	n := model.Notification{ID: id, Status: model.StatusSent, RetryCount: 1}
	s := New(nil, &fakeStatusReader{notifications: map[uuid.UUID]model.Notification{id: n}}, nil, nil, nil, nil)

	resp, err := s.GetNotificationStatus(context.Background(), &pb.GetNotificationStatusRequest{NotificationId: id.String()})

	require.NoError(t, err)
	assert.Equal(t, "SENT", resp.Status)
	assert.EqualValues(t, 1, resp.RetryCount)
}

func TestUpdateUserPreferences_RequiresUserID(t *testing.T) {
	s := New(nil, nil, &fakePreferenceWriter{}, nil, nil, nil)

	_, err := s.UpdateUserPreferences(context.Background(), &pb.UpdateUserPreferencesRequest{Channel: "EMAIL", IsEnabled: false})

	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestUpdateUserPreferences_Success(t *testing.T) {
	prefs := &fakePreferenceWriter{}
	s := New(nil, nil, prefs, nil, nil, nil)

	resp, err := s.UpdateUserPreferences(context.Background(), &pb.UpdateUserPreferencesRequest{UserId: "u1", Channel: "SMS", IsEnabled: true})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "u1", prefs.userID)
	assert.Equal(t, model.ChannelSMS, prefs.channel)
	assert.True(t, prefs.enabled)
}

func TestHealthCheck_ReflectsCollectorState(t *testing.T) {
	health := &fakeHealthSource{healthy: true, sample: metrics.Sample{QueueDepth: 5, ActiveWorkers: 3, ErrorRate: 0.01, ThroughputPerSec: 12.5}}
	s := New(nil, nil, nil, health, nil, nil)

	resp, err := s.HealthCheck(context.Background(), &pb.HealthCheckRequest{})

	require.NoError(t, err)
	assert.True(t, resp.Healthy)
	assert.EqualValues(t, 5, resp.QueueDepth)
	assert.EqualValues(t, 3, resp.ActiveWorkers)
}
