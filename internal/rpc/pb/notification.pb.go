// Package pb holds the wire types for the NotificationService RPC surface.
// These are hand-authored in the classic protoc-gen-go v1 shape (struct
// tags plus Reset/String/ProtoMessage) rather than produced by protoc; the
// google.golang.org/protobuf runtime marshals them through its legacy
// reflection path exactly as it does for any pre-APIv2 generated message.
package pb

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

type SendNotificationRequest struct {
	UserId      string             `protobuf:"bytes,1,opt,name=user_id,json=userId,proto3" json:"user_id,omitempty"`
	Type        string             `protobuf:"bytes,2,opt,name=type,proto3" json:"type,omitempty"`
	Title       string             `protobuf:"bytes,3,opt,name=title,proto3" json:"title,omitempty"`
	Message     string             `protobuf:"bytes,4,opt,name=message,proto3" json:"message,omitempty"`
	Channel     string             `protobuf:"bytes,5,opt,name=channel,proto3" json:"channel,omitempty"`
	Priority    string             `protobuf:"bytes,6,opt,name=priority,proto3" json:"priority,omitempty"`
	Metadata    *structpb.Struct   `protobuf:"bytes,7,opt,name=metadata,proto3" json:"metadata,omitempty"`
	ScheduledAt *timestamppb.Timestamp `protobuf:"bytes,8,opt,name=scheduled_at,json=scheduledAt,proto3" json:"scheduled_at,omitempty"`
}

func (m *SendNotificationRequest) Reset()         { *m = SendNotificationRequest{} }
func (m *SendNotificationRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (m *SendNotificationRequest) ProtoMessage()  {}

func (m *SendNotificationRequest) GetUserId() string {
	if m != nil {
		return m.UserId
	}
	return ""
}

func (m *SendNotificationRequest) GetType() string {
	if m != nil {
		return m.Type
	}
	return ""
}

func (m *SendNotificationRequest) GetTitle() string {
	if m != nil {
		return m.Title
	}
	return ""
}

func (m *SendNotificationRequest) GetMessage() string {
	if m != nil {
		return m.Message
	}
	return ""
}

func (m *SendNotificationRequest) GetChannel() string {
	if m != nil {
		return m.Channel
	}
	return ""
}

func (m *SendNotificationRequest) GetPriority() string {
	if m != nil {
		return m.Priority
	}
	return ""
}

type SendNotificationResponse struct {
	Success        bool   `protobuf:"varint,1,opt,name=success,proto3" json:"success,omitempty"`
	NotificationId string `protobuf:"bytes,2,opt,name=notification_id,json=notificationId,proto3" json:"notification_id,omitempty"`
	Message        string `protobuf:"bytes,3,opt,name=message,proto3" json:"message,omitempty"`
}

func (m *SendNotificationResponse) Reset()         { *m = SendNotificationResponse{} }
func (m *SendNotificationResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (m *SendNotificationResponse) ProtoMessage()  {}

type SendBulkNotificationsRequest struct {
	Notifications []*SendNotificationRequest `protobuf:"bytes,1,rep,name=notifications,proto3" json:"notifications,omitempty"`
}

func (m *SendBulkNotificationsRequest) Reset()         { *m = SendBulkNotificationsRequest{} }
func (m *SendBulkNotificationsRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (m *SendBulkNotificationsRequest) ProtoMessage()  {}

func (m *SendBulkNotificationsRequest) GetNotifications() []*SendNotificationRequest {
	if m != nil {
		return m.Notifications
	}
	return nil
}

type SendBulkNotificationsResponse struct {
	SuccessCount    int32    `protobuf:"varint,1,opt,name=success_count,json=successCount,proto3" json:"success_count,omitempty"`
	FailureCount    int32    `protobuf:"varint,2,opt,name=failure_count,json=failureCount,proto3" json:"failure_count,omitempty"`
	NotificationIds []string `protobuf:"bytes,3,rep,name=notification_ids,json=notificationIds,proto3" json:"notification_ids,omitempty"`
	Errors          []string `protobuf:"bytes,4,rep,name=errors,proto3" json:"errors,omitempty"`
}

func (m *SendBulkNotificationsResponse) Reset()         { *m = SendBulkNotificationsResponse{} }
func (m *SendBulkNotificationsResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (m *SendBulkNotificationsResponse) ProtoMessage()  {}

type GetNotificationStatusRequest struct {
	NotificationId string `protobuf:"bytes,1,opt,name=notification_id,json=notificationId,proto3" json:"notification_id,omitempty"`
}

func (m *GetNotificationStatusRequest) Reset()         { *m = GetNotificationStatusRequest{} }
func (m *GetNotificationStatusRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (m *GetNotificationStatusRequest) ProtoMessage()  {}

func (m *GetNotificationStatusRequest) GetNotificationId() string {
	if m != nil {
		return m.NotificationId
	}
	return ""
}

type GetNotificationStatusResponse struct {
	NotificationId string                 `protobuf:"bytes,1,opt,name=notification_id,json=notificationId,proto3" json:"notification_id,omitempty"`
	Status         string                 `protobuf:"bytes,2,opt,name=status,proto3" json:"status,omitempty"`
	RetryCount     int32                  `protobuf:"varint,3,opt,name=retry_count,json=retryCount,proto3" json:"retry_count,omitempty"`
	ErrorMessage   string                 `protobuf:"bytes,4,opt,name=error_message,json=errorMessage,proto3" json:"error_message,omitempty"`
	CreatedAt      *timestamppb.Timestamp `protobuf:"bytes,5,opt,name=created_at,json=createdAt,proto3" json:"created_at,omitempty"`
	SentAt         *timestamppb.Timestamp `protobuf:"bytes,6,opt,name=sent_at,json=sentAt,proto3" json:"sent_at,omitempty"`
	FailedAt       *timestamppb.Timestamp `protobuf:"bytes,7,opt,name=failed_at,json=failedAt,proto3" json:"failed_at,omitempty"`
}

func (m *GetNotificationStatusResponse) Reset()         { *m = GetNotificationStatusResponse{} }
func (m *GetNotificationStatusResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (m *GetNotificationStatusResponse) ProtoMessage()  {}

type UpdateUserPreferencesRequest struct {
	UserId    string `protobuf:"bytes,1,opt,name=user_id,json=userId,proto3" json:"user_id,omitempty"`
	Channel   string `protobuf:"bytes,2,opt,name=channel,proto3" json:"channel,omitempty"`
	IsEnabled bool   `protobuf:"varint,3,opt,name=is_enabled,json=isEnabled,proto3" json:"is_enabled,omitempty"`
}

func (m *UpdateUserPreferencesRequest) Reset()         { *m = UpdateUserPreferencesRequest{} }
func (m *UpdateUserPreferencesRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (m *UpdateUserPreferencesRequest) ProtoMessage()  {}

func (m *UpdateUserPreferencesRequest) GetUserId() string {
	if m != nil {
		return m.UserId
	}
	return ""
}

type UpdateUserPreferencesResponse struct {
	Success bool `protobuf:"varint,1,opt,name=success,proto3" json:"success,omitempty"`
}

func (m *UpdateUserPreferencesResponse) Reset()         { *m = UpdateUserPreferencesResponse{} }
func (m *UpdateUserPreferencesResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (m *UpdateUserPreferencesResponse) ProtoMessage()  {}

type HealthCheckRequest struct{}

func (m *HealthCheckRequest) Reset()         { *m = HealthCheckRequest{} }
func (m *HealthCheckRequest) String() string { return fmt.Sprintf("%+v", *m) }
func (m *HealthCheckRequest) ProtoMessage()  {}

type HealthCheckResponse struct {
	Healthy          bool    `protobuf:"varint,1,opt,name=healthy,proto3" json:"healthy,omitempty"`
	QueueDepth       int64   `protobuf:"varint,2,opt,name=queue_depth,json=queueDepth,proto3" json:"queue_depth,omitempty"`
	ActiveWorkers    int32   `protobuf:"varint,3,opt,name=active_workers,json=activeWorkers,proto3" json:"active_workers,omitempty"`
	ErrorRate        float64 `protobuf:"fixed64,4,opt,name=error_rate,json=errorRate,proto3" json:"error_rate,omitempty"`
	ThroughputPerSec float64 `protobuf:"fixed64,5,opt,name=throughput_per_sec,json=throughputPerSec,proto3" json:"throughput_per_sec,omitempty"`
}

func (m *HealthCheckResponse) Reset()         { *m = HealthCheckResponse{} }
func (m *HealthCheckResponse) String() string { return fmt.Sprintf("%+v", *m) }
func (m *HealthCheckResponse) ProtoMessage()  {}
