package grpcapi

import (
	"context"
	"errors"
	"strings"
	"time"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"vitals-monitor/internal/domain"
	"vitals-monitor/internal/infra"
)

// NewServer constructs a gRPC server exposing the Monitor service.
func NewServer(service domain.MonitorService, logger *infra.Logger) *grpc.Server {
	interceptors := []grpc.UnaryServerInterceptor{
		loggingInterceptor(logger),
		infra.GRPCUnaryInterceptor(),
		grpc_prometheus.UnaryServerInterceptor,
	}

	server := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	RegisterMonitorServer(server, &monitorServer{service: service})
	grpc_prometheus.Register(server)
	return server
}

type monitorServer struct {
	service domain.MonitorService
}

func (s *monitorServer) ListChannels(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	states := s.service.Channels()
	channels := make([]any, 0, len(states))
	for _, state := range states {
		fields := channelFields(state)
		if summary, err := s.service.Diagnosis(state.Channel); err == nil {
			fields["diagnosis"] = diagnosisFields(summary)
		}
		channels = append(channels, fields)
	}

	return toStruct(map[string]any{"channels": channels})
}

func (s *monitorServer) GetChannel(_ context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	channel, err := channelName(req)
	if err != nil {
		return nil, err
	}

	state, err := s.service.State(channel)
	if err != nil {
		return nil, translateServiceError(err)
	}
	return toStruct(channelFields(state))
}

func (s *monitorServer) GetDiagnosis(_ context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	channel, err := channelName(req)
	if err != nil {
		return nil, err
	}

	summary, err := s.service.Diagnosis(channel)
	if err != nil {
		return nil, translateServiceError(err)
	}
	return toStruct(diagnosisFields(summary))
}

func channelName(req *wrapperspb.StringValue) (string, error) {
	if req == nil {
		return "", status.Error(codes.InvalidArgument, "request must not be nil")
	}
	channel := strings.TrimSpace(req.GetValue())
	if channel == "" {
		return "", status.Error(codes.InvalidArgument, "channel is required")
	}
	return channel, nil
}

func channelFields(state domain.ChannelState) map[string]any {
	history := make([]any, 0, len(state.History))
	for _, reading := range state.History {
		history = append(history, map[string]any{
			"seq":       reading.Seq,
			"value":     reading.Value,
			"unit":      reading.Unit,
			"timestamp": reading.Timestamp.UTC().Format(time.RFC3339Nano),
		})
	}

	return map[string]any{
		"channel":      state.Channel,
		"sessionId":    state.SessionID,
		"state":        state.State.String(),
		"active":       state.Active,
		"samplesTaken": state.SamplesTaken,
		"sampleCap":    state.SampleCap,
		"policy":       state.Policy.String(),
		"history":      history,
	}
}

func diagnosisFields(summary domain.Summary) map[string]any {
	fields := map[string]any{
		"channel":        summary.Channel,
		"sessionId":      summary.SessionID,
		"policy":         summary.Policy.String(),
		"count":          summary.Count,
		"referenceLow":   summary.Reference.Low,
		"referenceHigh":  summary.Reference.High,
		"unit":           summary.Unit,
		"classification": summary.Classification.String(),
		"text":           summary.Text,
		"completedAt":    summary.CompletedAt.UTC().Format(time.RFC3339Nano),
	}

	if summary.HasData() {
		switch summary.Policy {
		case domain.PolicyOutOfRange:
			fields["min"] = summary.Min
			fields["max"] = summary.Max
		default:
			fields["mean"] = summary.Mean
		}
	}
	return fields
}

func toStruct(fields map[string]any) (*structpb.Struct, error) {
	payload, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal server error")
	}
	return payload, nil
}

func translateServiceError(err error) error {
	switch {
	case errors.Is(err, domain.ErrUnknownChannel):
		return status.Error(codes.NotFound, "unknown channel")
	case errors.Is(err, domain.ErrDiagnosisPending):
		return status.Error(codes.FailedPrecondition, "diagnosis not available yet")
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	default:
		return status.Error(codes.Internal, "internal server error")
	}
}

func loggingInterceptor(logger *infra.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		duration := time.Since(start)
		if err != nil {
			logger.Printf(ctx, "gRPC %s failed in %s: %v", info.FullMethod, duration, err)
		} else {
			logger.Debugf(ctx, "gRPC %s completed in %s", info.FullMethod, duration)
		}
		return resp, err
	}
}

var _ MonitorServer = (*monitorServer)(nil)
