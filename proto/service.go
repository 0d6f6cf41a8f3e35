// Package proto declares the gRPC service used for online play and the
// conversions between engine values and their wire messages.
//
// Messages are well known protobuf types, so the service is declared by hand
// instead of generated:
//
//	service TetrisService {
//	  rpc NewSession(google.protobuf.Empty) returns (google.protobuf.StringValue);
//	  rpc Play(stream google.protobuf.Struct) returns (stream google.protobuf.Struct);
//	}
package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "tetris.TetrisService"

	NewSessionFullMethodName = "/tetris.TetrisService/NewSession"
	PlayFullMethodName       = "/tetris.TetrisService/Play"
)

// PlayClient is the client side of the Play stream: it sends actions and
// receives states.
type PlayClient = grpc.BidiStreamingClient[structpb.Struct, structpb.Struct]

// PlayServer is the server side of the Play stream.
type PlayServer = grpc.BidiStreamingServer[structpb.Struct, structpb.Struct]

type TetrisServiceClient interface {
	// NewSession reserves a game on the server and returns its ID.
	NewSession(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	// Play opens the game stream. The first message must be a SessionMessage.
	Play(ctx context.Context, opts ...grpc.CallOption) (PlayClient, error)
}

type tetrisServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewTetrisServiceClient(cc grpc.ClientConnInterface) TetrisServiceClient {
	return &tetrisServiceClient{cc}
}

func (c *tetrisServiceClient) NewSession(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod()}, opts...)
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, NewSessionFullMethodName, in, out, cOpts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *tetrisServiceClient) Play(ctx context.Context, opts ...grpc.CallOption) (PlayClient, error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod()}, opts...)
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], PlayFullMethodName, cOpts...)
	if err != nil {
		return nil, err
	}
	return &grpc.GenericClientStream[structpb.Struct, structpb.Struct]{ClientStream: stream}, nil
}

// TetrisServiceServer is the server API. Implementations must embed
// UnimplementedTetrisServiceServer.
type TetrisServiceServer interface {
	NewSession(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	Play(PlayServer) error
	mustEmbedUnimplementedTetrisServiceServer()
}

type UnimplementedTetrisServiceServer struct{}

func (UnimplementedTetrisServiceServer) NewSession(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method NewSession not implemented")
}

func (UnimplementedTetrisServiceServer) Play(PlayServer) error {
	return status.Error(codes.Unimplemented, "method Play not implemented")
}

func (UnimplementedTetrisServiceServer) mustEmbedUnimplementedTetrisServiceServer() {}

func RegisterTetrisServiceServer(s grpc.ServiceRegistrar, srv TetrisServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func newSessionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TetrisServiceServer).NewSession(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: NewSessionFullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TetrisServiceServer).NewSession(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func playHandler(srv any, stream grpc.ServerStream) error {
	return srv.(TetrisServiceServer).Play(&grpc.GenericServerStream[structpb.Struct, structpb.Struct]{ServerStream: stream})
}

// ServiceDesc is the grpc.ServiceDesc for TetrisService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TetrisServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "NewSession",
			Handler:    newSessionHandler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Play",
			Handler:       playHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "tetris.proto",
}
