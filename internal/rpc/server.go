// Package rpc implements the Request Surface's gRPC face (C8): the
// NotificationService defined in internal/rpc/pb, backed by the
// Dispatcher and read paths onto the notification store and metrics
// collector. Method shape and PB<->domain conversion follow pxyz's
// notification-service grpc handler; the bidirectional stream follows
// GoSocial's chat handler Recv-loop.
package rpc

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/5-VED/nest-notification-svc/internal/api/dto"
	"github.com/5-VED/nest-notification-svc/internal/dispatcher"
	"github.com/5-VED/nest-notification-svc/internal/metrics"
	"github.com/5-VED/nest-notification-svc/internal/model"
	"github.com/5-VED/nest-notification-svc/internal/rpc/pb"
)

// Dispatcher is the slice of the Dispatcher the RPC server drives.
type Dispatcher interface {
	Dispatch(ctx context.Context, req dispatcher.SendNotificationData) (model.Notification, error)
}

// StatusReader answers GetNotificationStatus lookups.
type StatusReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (model.Notification, error)
}

// PreferenceWriter backs UpdateUserPreferences.
type PreferenceWriter interface {
	UpsertPreference(ctx context.Context, userID string, channel model.Channel, enabled bool) error
}

// HealthSource backs HealthCheck.
type HealthSource interface {
	Healthy() bool
	Current() metrics.Sample
}

// Server implements pb.NotificationServiceServer.
type Server struct {
	pb.UnimplementedNotificationServiceServer

	dispatcher Dispatcher
	statuses   StatusReader
	prefs      PreferenceWriter
	health     HealthSource
	validate   *validator.Validate
	log        *slog.Logger
}

// New wires a Server. log defaults to slog.Default() when nil. validate
// applies the same field/enum rules the REST admin surface applies via
// internal/api/dto, so a missing required field or an out-of-range
// Channel/Priority enum is rejected the same way on both faces.
func New(d Dispatcher, statuses StatusReader, prefs PreferenceWriter, health HealthSource, validate *validator.Validate, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &Server{dispatcher: d, statuses: statuses, prefs: prefs, health: health, validate: validate, log: log}
}

func (s *Server) SendNotification(ctx context.Context, req *pb.SendNotificationRequest) (*pb.SendNotificationResponse, error) {
	if err := s.validate.Struct(toDto(req)); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	n, err := s.dispatcher.Dispatch(ctx, fromPB(req))
	if err != nil {
		return responseForError(err), nil
	}
	return &pb.SendNotificationResponse{
		Success:        true,
		NotificationId: n.ID.String(),
		Message:        "accepted",
	}, nil
}

func (s *Server) SendBulkNotifications(ctx context.Context, req *pb.SendBulkNotificationsRequest) (*pb.SendBulkNotificationsResponse, error) {
	return s.sendBulk(ctx, req, false)
}

// SendBulkNotificationsOptimized dispatches all items concurrently rather
// than sequentially; results are still reported in request order.
func (s *Server) SendBulkNotificationsOptimized(ctx context.Context, req *pb.SendBulkNotificationsRequest) (*pb.SendBulkNotificationsResponse, error) {
	return s.sendBulk(ctx, req, true)
}

func (s *Server) sendBulk(ctx context.Context, req *pb.SendBulkNotificationsRequest, concurrent bool) (*pb.SendBulkNotificationsResponse, error) {
	items := req.GetNotifications()
	batch := dto.BulkNotificationsDto{Notifications: make([]dto.SendNotificationDto, len(items))}
	for i, item := range items {
		batch.Notifications[i] = toDto(item)
	}
	if !batch.Valid() {
		return nil, status.Error(codes.InvalidArgument, "notifications must contain between 1 and 10000 items")
	}
	if err := s.validate.Struct(batch); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	resp := &pb.SendBulkNotificationsResponse{}

	type outcome struct {
		id  string
		err error
	}
	outcomes := make([]outcome, len(req.GetNotifications()))

	dispatchOne := func(idx int, item *pb.SendNotificationRequest) {
		n, err := s.dispatcher.Dispatch(ctx, fromPB(item))
		if err != nil {
			outcomes[idx] = outcome{err: err}
			return
		}
		outcomes[idx] = outcome{id: n.ID.String()}
	}

	if !concurrent {
		for i, item := range req.GetNotifications() {
			dispatchOne(i, item)
		}
	} else {
		done := make(chan struct{}, len(req.GetNotifications()))
		for i, item := range req.GetNotifications() {
			go func(i int, item *pb.SendNotificationRequest) {
				defer func() { done <- struct{}{} }()
				dispatchOne(i, item)
			}(i, item)
		}
		for range req.GetNotifications() {
			<-done
		}
	}

	for _, o := range outcomes {
		if o.err != nil {
			resp.FailureCount++
			resp.Errors = append(resp.Errors, o.err.Error())
			continue
		}
		resp.SuccessCount++
		resp.NotificationIds = append(resp.NotificationIds, o.id)
	}
	return resp, nil
}

// SendNotificationStream accepts a client-streamed sequence of send
// requests and replies with one response per request, in order. A
// malformed or failed item does not close the stream; the caller sees
// the error surfaced in that item's response.
func (s *Server) SendNotificationStream(stream pb.NotificationService_SendNotificationStreamServer) error {
	for {
		req, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		var resp *pb.SendNotificationResponse
		if err := s.validate.Struct(toDto(req)); err != nil {
			resp = responseForError(err)
		} else if n, dispatchErr := s.dispatcher.Dispatch(stream.Context(), fromPB(req)); dispatchErr != nil {
			resp = responseForError(dispatchErr)
		} else {
			resp = &pb.SendNotificationResponse{Success: true, NotificationId: n.ID.String(), Message: "accepted"}
		}

		if err := stream.Send(resp); err != nil {
			s.log.Warn("failed to send stream response", "error", err)
			return err
		}
	}
}

func (s *Server) GetNotificationStatus(ctx context.Context, req *pb.GetNotificationStatusRequest) (*pb.GetNotificationStatusResponse, error) {
	id, err := uuid.Parse(req.GetNotificationId())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "notification_id is not a valid uuid")
	}

	n, err := s.statuses.GetByID(ctx, id)
	if err != nil {
		return nil, status.Error(codes.NotFound, "notification not found")
	}

	resp := &pb.GetNotificationStatusResponse{
		NotificationId: n.ID.String(),
		Status:         string(n.Status),
		RetryCount:     int32(n.RetryCount),
		ErrorMessage:   n.ErrorMessage,
		CreatedAt:      timestamppb.New(n.CreatedAt),
	}
	if n.SentAt != nil {
		resp.SentAt = timestamppb.New(*n.SentAt)
	}
	if n.FailedAt != nil {
		resp.FailedAt = timestamppb.New(*n.FailedAt)
	}
	return resp, nil
}

func (s *Server) UpdateUserPreferences(ctx context.Context, req *pb.UpdateUserPreferencesRequest) (*pb.UpdateUserPreferencesResponse, error) {
	if req.GetUserId() == "" {
		return nil, status.Error(codes.InvalidArgument, "user_id is required")
	}
	if err := s.prefs.UpsertPreference(ctx, req.UserId, model.Channel(req.Channel), req.IsEnabled); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &pb.UpdateUserPreferencesResponse{Success: true}, nil
}

func (s *Server) HealthCheck(ctx context.Context, req *pb.HealthCheckRequest) (*pb.HealthCheckResponse, error) {
	sample := s.health.Current()
	return &pb.HealthCheckResponse{
		Healthy:          s.health.Healthy(),
		QueueDepth:       sample.QueueDepth,
		ActiveWorkers:    int32(sample.ActiveWorkers),
		ErrorRate:        sample.ErrorRate,
		ThroughputPerSec: sample.ThroughputPerSec,
	}, nil
}

// toDto builds the same validated shape the REST admin surface binds
// requests into, so a gRPC caller is held to identical field/enum rules.
func toDto(req *pb.SendNotificationRequest) dto.SendNotificationDto {
	d := dto.SendNotificationDto{
		UserID:   req.GetUserId(),
		Type:     req.GetType(),
		Title:    req.GetTitle(),
		Message:  req.GetMessage(),
		Channel:  req.GetChannel(),
		Priority: req.GetPriority(),
	}
	if req.Metadata != nil {
		d.Metadata = req.Metadata.AsMap()
	}
	if req.ScheduledAt != nil {
		t := req.ScheduledAt.AsTime()
		d.ScheduledAt = &t
	}
	return d
}

func fromPB(req *pb.SendNotificationRequest) dispatcher.SendNotificationData {
	data := dispatcher.SendNotificationData{
		UserID:  req.GetUserId(),
		Type:    model.NotificationType(req.Type),
		Title:   req.Title,
		Message: req.Message,
	}
	if req.Channel != "" {
		ch := model.Channel(req.Channel)
		data.Channel = &ch
	}
	if req.Priority != "" {
		p := model.Priority(req.Priority)
		data.Priority = &p
	}
	if req.Metadata != nil {
		data.Metadata = req.Metadata.AsMap()
	}
	if req.ScheduledAt != nil {
		t := req.ScheduledAt.AsTime()
		data.ScheduledAt = &t
	}
	return data
}

func responseForError(err error) *pb.SendNotificationResponse {
	return &pb.SendNotificationResponse{Success: false, Message: err.Error()}
}
