package pb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NotificationServiceServer is the server API for NotificationService.
type NotificationServiceServer interface {
	SendNotification(context.Context, *SendNotificationRequest) (*SendNotificationResponse, error)
	SendBulkNotifications(context.Context, *SendBulkNotificationsRequest) (*SendBulkNotificationsResponse, error)
	SendBulkNotificationsOptimized(context.Context, *SendBulkNotificationsRequest) (*SendBulkNotificationsResponse, error)
	SendNotificationStream(NotificationService_SendNotificationStreamServer) error
	GetNotificationStatus(context.Context, *GetNotificationStatusRequest) (*GetNotificationStatusResponse, error)
	UpdateUserPreferences(context.Context, *UpdateUserPreferencesRequest) (*UpdateUserPreferencesResponse, error)
	HealthCheck(context.Context, *HealthCheckRequest) (*HealthCheckResponse, error)
	mustEmbedUnimplementedNotificationServiceServer()
}

// UnimplementedNotificationServiceServer must be embedded by any
// implementation to satisfy forward compatibility, matching the
// protoc-gen-go-grpc convention.
type UnimplementedNotificationServiceServer struct{}

func (UnimplementedNotificationServiceServer) SendNotification(context.Context, *SendNotificationRequest) (*SendNotificationResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SendNotification not implemented")
}
func (UnimplementedNotificationServiceServer) SendBulkNotifications(context.Context, *SendBulkNotificationsRequest) (*SendBulkNotificationsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SendBulkNotifications not implemented")
}
func (UnimplementedNotificationServiceServer) SendBulkNotificationsOptimized(context.Context, *SendBulkNotificationsRequest) (*SendBulkNotificationsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SendBulkNotificationsOptimized not implemented")
}
func (UnimplementedNotificationServiceServer) SendNotificationStream(NotificationService_SendNotificationStreamServer) error {
	return status.Error(codes.Unimplemented, "method SendNotificationStream not implemented")
}
func (UnimplementedNotificationServiceServer) GetNotificationStatus(context.Context, *GetNotificationStatusRequest) (*GetNotificationStatusResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetNotificationStatus not implemented")
}
func (UnimplementedNotificationServiceServer) UpdateUserPreferences(context.Context, *UpdateUserPreferencesRequest) (*UpdateUserPreferencesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateUserPreferences not implemented")
}
func (UnimplementedNotificationServiceServer) HealthCheck(context.Context, *HealthCheckRequest) (*HealthCheckResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method HealthCheck not implemented")
}
func (UnimplementedNotificationServiceServer) mustEmbedUnimplementedNotificationServiceServer() {}

// NotificationService_SendNotificationStreamServer is the server-side
// handle for the bidirectional SendNotificationStream RPC.
type NotificationService_SendNotificationStreamServer interface {
	Send(*SendNotificationResponse) error
	Recv() (*SendNotificationRequest, error)
	grpc.ServerStream
}

type notificationServiceSendNotificationStreamServer struct {
	grpc.ServerStream
}

func (s *notificationServiceSendNotificationStreamServer) Send(m *SendNotificationResponse) error {
	return s.ServerStream.SendMsg(m)
}

func (s *notificationServiceSendNotificationStreamServer) Recv() (*SendNotificationRequest, error) {
	m := new(SendNotificationRequest)
	if err := s.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// RegisterNotificationServiceServer registers srv with s the way
// protoc-gen-go-grpc's generated registration function would.
func RegisterNotificationServiceServer(s grpc.ServiceRegistrar, srv NotificationServiceServer) {
	s.RegisterService(&NotificationService_ServiceDesc, srv)
}

func handlerSendNotification(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SendNotificationRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NotificationServiceServer).SendNotification(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/notification.NotificationService/SendNotification"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(NotificationServiceServer).SendNotification(ctx, req.(*SendNotificationRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func handlerSendBulkNotifications(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SendBulkNotificationsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NotificationServiceServer).SendBulkNotifications(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/notification.NotificationService/SendBulkNotifications"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(NotificationServiceServer).SendBulkNotifications(ctx, req.(*SendBulkNotificationsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func handlerSendBulkNotificationsOptimized(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SendBulkNotificationsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NotificationServiceServer).SendBulkNotificationsOptimized(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/notification.NotificationService/SendBulkNotificationsOptimized"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(NotificationServiceServer).SendBulkNotificationsOptimized(ctx, req.(*SendBulkNotificationsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func handlerSendNotificationStream(srv interface{}, stream grpc.ServerStream) error {
	return srv.(NotificationServiceServer).SendNotificationStream(&notificationServiceSendNotificationStreamServer{stream})
}

func handlerGetNotificationStatus(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetNotificationStatusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NotificationServiceServer).GetNotificationStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/notification.NotificationService/GetNotificationStatus"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(NotificationServiceServer).GetNotificationStatus(ctx, req.(*GetNotificationStatusRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func handlerUpdateUserPreferences(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(UpdateUserPreferencesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NotificationServiceServer).UpdateUserPreferences(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/notification.NotificationService/UpdateUserPreferences"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(NotificationServiceServer).UpdateUserPreferences(ctx, req.(*UpdateUserPreferencesRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func handlerHealthCheck(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(HealthCheckRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NotificationServiceServer).HealthCheck(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/notification.NotificationService/HealthCheck"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(NotificationServiceServer).HealthCheck(ctx, req.(*HealthCheckRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// NotificationService_ServiceDesc is the grpc.ServiceDesc for
// NotificationService, wired the way protoc-gen-go-grpc emits it.
var NotificationService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "notification.NotificationService",
	HandlerType: (*NotificationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SendNotification", Handler: handlerSendNotification},
		{MethodName: "SendBulkNotifications", Handler: handlerSendBulkNotifications},
		{MethodName: "SendBulkNotificationsOptimized", Handler: handlerSendBulkNotificationsOptimized},
		{MethodName: "GetNotificationStatus", Handler: handlerGetNotificationStatus},
		{MethodName: "UpdateUserPreferences", Handler: handlerUpdateUserPreferences},
		{MethodName: "HealthCheck", Handler: handlerHealthCheck},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "SendNotificationStream",
			Handler:       handlerSendNotificationStream,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "notification.proto",
}
