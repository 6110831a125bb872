package grpcapi

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ChannelStatus is the client view of one channel.
type ChannelStatus struct {
	Channel        string
	State          string
	Policy         string
	SamplesTaken   int
	SampleCap      int
	Classification string
	Statistic      string
	Unit           string
}

// Client calls the Monitor service.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Dial opens a plaintext connection to a Monitor server.
func Dial(target string, opts ...grpc.DialOption) (*Client, *grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("grpc client: %w", err)
	}
	return NewClient(conn), conn, nil
}

// ListChannels returns every channel with its diagnosis when available.
func (c *Client) ListChannels(ctx context.Context) ([]ChannelStatus, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, listChannelsMethod, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}

	list := out.GetFields()["channels"].GetListValue().GetValues()
	statuses := make([]ChannelStatus, 0, len(list))
	for _, item := range list {
		statuses = append(statuses, toChannelStatus(item.GetStructValue()))
	}
	return statuses, nil
}

func (c *Client) GetChannel(ctx context.Context, channel string) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getChannelMethod, wrapperspb.String(channel), out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetDiagnosis(ctx context.Context, channel string) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getDiagnosisMethod, wrapperspb.String(channel), out); err != nil {
		return nil, err
	}
	return out, nil
}

func toChannelStatus(channel *structpb.Struct) ChannelStatus {
	fields := channel.GetFields()
	result := ChannelStatus{
		Channel:      fields["channel"].GetStringValue(),
		State:        fields["state"].GetStringValue(),
		Policy:       fields["policy"].GetStringValue(),
		SamplesTaken: int(fields["samplesTaken"].GetNumberValue()),
		SampleCap:    int(fields["sampleCap"].GetNumberValue()),
	}

	diagnosis := fields["diagnosis"].GetStructValue().GetFields()
	if diagnosis == nil {
		return result
	}

	result.Classification = diagnosis["classification"].GetStringValue()
	result.Unit = diagnosis["unit"].GetStringValue()
	if mean, ok := diagnosis["mean"]; ok {
		result.Statistic = fmt.Sprintf("mean %.2f", mean.GetNumberValue())
	} else if lowest, ok := diagnosis["min"]; ok {
		result.Statistic = fmt.Sprintf("min %.2f / max %.2f", lowest.GetNumberValue(), diagnosis["max"].GetNumberValue())
	}
	return result
}
