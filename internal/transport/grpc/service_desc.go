package grpcx

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Сервис описан вручную поверх well-known типов, без сгенерированного кода:
// запрос: id комнаты в StringValue, ответ: JSON-представление в Struct.
const (
	ServiceName = "room.v1.RoomService"

	MethodGetRoom           = "/" + ServiceName + "/GetRoom"
	MethodResolveMembership = "/" + ServiceName + "/ResolveMembership"
)

type RoomServiceServer interface {
	GetRoom(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error)
	ResolveMembership(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error)
}

var RoomServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RoomServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetRoom",
			Handler: unaryHandler(MethodGetRoom, func(s RoomServiceServer) func(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error) {
				return s.GetRoom
			}),
		},
		{
			MethodName: "ResolveMembership",
			Handler: unaryHandler(MethodResolveMembership, func(s RoomServiceServer) func(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error) {
				return s.ResolveMembership
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "room/v1/room.proto",
}

func unaryHandler(
	fullMethod string,
	pick func(RoomServiceServer) func(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(wrapperspb.StringValue)
		if err := dec(in); err != nil {
			return nil, err
		}
		call := pick(srv.(RoomServiceServer))
		if interceptor == nil {
			return call(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(ctx, req.(*wrapperspb.StringValue))
		})
	}
}

// RoomServiceClient: клиент для того же описания сервиса.
type RoomServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewRoomServiceClient(cc grpc.ClientConnInterface) *RoomServiceClient {
	return &RoomServiceClient{cc: cc}
}

func (c *RoomServiceClient) GetRoom(ctx context.Context, roomID string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodGetRoom, wrapperspb.String(roomID), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RoomServiceClient) ResolveMembership(ctx context.Context, roomID string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodResolveMembership, wrapperspb.String(roomID), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
