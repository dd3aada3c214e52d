// Package bridgepb describes the adbridge.Bridge gRPC service.
//
// The service has a single bidirectional stream whose frames are
// google.protobuf.BytesValue messages, each carrying one raw envelope:
//
//	service Bridge {
//	  rpc Exchange(stream google.protobuf.BytesValue) returns (stream google.protobuf.BytesValue);
//	}
package bridgepb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "adbridge.Bridge"
	// ExchangeMethod is the full method name of the stream.
	ExchangeMethod = "/adbridge.Bridge/Exchange"
)

// BridgeServer is implemented by the executor side.
type BridgeServer interface {
	Exchange(stream Bridge_ExchangeServer) error
}

// Bridge_ExchangeServer is the server view of the stream.
type Bridge_ExchangeServer interface {
	Send(*wrapperspb.BytesValue) error
	Recv() (*wrapperspb.BytesValue, error)
	grpc.ServerStream
}

// Bridge_ExchangeClient is the client view of the stream.
type Bridge_ExchangeClient interface {
	Send(*wrapperspb.BytesValue) error
	Recv() (*wrapperspb.BytesValue, error)
	grpc.ClientStream
}

// RegisterBridgeServer registers srv on s.
func RegisterBridgeServer(s grpc.ServiceRegistrar, srv BridgeServer) {
	s.RegisterService(&Bridge_ServiceDesc, srv)
}

// Exchange opens the stream on conn.
func Exchange(ctx context.Context, conn grpc.ClientConnInterface, opts ...grpc.CallOption) (Bridge_ExchangeClient, error) {
	stream, err := conn.NewStream(ctx, &Bridge_ServiceDesc.Streams[0], ExchangeMethod, opts...)
	if err != nil {
		return nil, err
	}
	return &exchangeClient{stream}, nil
}

// Bridge_ServiceDesc is the grpc.ServiceDesc for the Bridge service.
var Bridge_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BridgeServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Exchange",
			Handler:       exchangeHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "adbridge/bridge.proto",
}

func exchangeHandler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(BridgeServer).Exchange(&exchangeServer{stream})
}

type exchangeServer struct {
	grpc.ServerStream
}

func (x *exchangeServer) Send(m *wrapperspb.BytesValue) error {
	return x.ServerStream.SendMsg(m)
}

func (x *exchangeServer) Recv() (*wrapperspb.BytesValue, error) {
	m := new(wrapperspb.BytesValue)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

type exchangeClient struct {
	grpc.ClientStream
}

func (x *exchangeClient) Send(m *wrapperspb.BytesValue) error {
	return x.ClientStream.SendMsg(m)
}

func (x *exchangeClient) Recv() (*wrapperspb.BytesValue, error) {
	m := new(wrapperspb.BytesValue)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
