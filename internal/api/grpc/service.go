package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "vitals.v1.Monitor"

	listChannelsMethod = "/" + ServiceName + "/ListChannels"
	getChannelMethod   = "/" + ServiceName + "/GetChannel"
	getDiagnosisMethod = "/" + ServiceName + "/GetDiagnosis"
)

// MonitorServer is the server API of the vitals.v1.Monitor service. Messages
// are protobuf well-known types so no generated code is needed.
type MonitorServer interface {
	ListChannels(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	GetChannel(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	GetDiagnosis(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
}

// RegisterMonitorServer attaches the service implementation to a gRPC server.
func RegisterMonitorServer(registrar grpc.ServiceRegistrar, srv MonitorServer) {
	registrar.RegisterService(&MonitorServiceDesc, srv)
}

// MonitorServiceDesc describes the vitals.v1.Monitor service.
var MonitorServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MonitorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListChannels", Handler: listChannelsHandler},
		{MethodName: "GetChannel", Handler: getChannelHandler},
		{MethodName: "GetDiagnosis", Handler: getDiagnosisHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "vitals/v1/monitor.proto",
}

func listChannelsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MonitorServer).ListChannels(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listChannelsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MonitorServer).ListChannels(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func getChannelHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MonitorServer).GetChannel(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getChannelMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MonitorServer).GetChannel(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func getDiagnosisHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MonitorServer).GetDiagnosis(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getDiagnosisMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MonitorServer).GetDiagnosis(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}
