// Package rpc serves the game as a bidirectional gRPC stream. Messages are
// google.protobuf.Struct envelopes of the form {event, data}, matching the
// WebSocket JSON frames.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Service and method names on the wire.
const (
	ServiceName = "treasurehunt.v1.Hunt"
	PlayMethod  = "/treasurehunt.v1.Hunt/Play"
)

// PlayServerStream is the server side of a Play stream.
type PlayServerStream = grpc.BidiStreamingServer[structpb.Struct, structpb.Struct]

// PlayClientStream is the client side of a Play stream.
type PlayClientStream = grpc.BidiStreamingClient[structpb.Struct, structpb.Struct]

// HuntServer is implemented by the Play handler.
type HuntServer interface {
	Play(stream PlayServerStream) error
}

// ServiceDesc describes the Hunt service for grpc.Server.RegisterService.
// Metadata names the contract under api/proto. Both message types are
// well-known, so the descriptor is declared here rather than generated.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*HuntServer)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Play",
			Handler:       playHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "treasurehunt/v1/hunt.proto",
}

func playHandler(srv any, stream grpc.ServerStream) error {
	return srv.(HuntServer).Play(&grpc.GenericServerStream[structpb.Struct, structpb.Struct]{ServerStream: stream})
}

// RegisterHuntServer registers srv on s.
func RegisterHuntServer(s grpc.ServiceRegistrar, srv HuntServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// HuntClient opens Play streams.
type HuntClient struct {
	cc grpc.ClientConnInterface
}

// NewHuntClient creates a HuntClient over cc.
func NewHuntClient(cc grpc.ClientConnInterface) *HuntClient {
	return &HuntClient{cc: cc}
}

// Play opens a stream; the server admits the caller into a session at once.
func (c *HuntClient) Play(ctx context.Context, opts ...grpc.CallOption) (PlayClientStream, error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], PlayMethod, opts...)
	if err != nil {
		return nil, err
	}
	return &grpc.GenericClientStream[structpb.Struct, structpb.Struct]{ClientStream: stream}, nil
}
