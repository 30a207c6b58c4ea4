package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"liyu1981.xyz/iot-gateway-service/pkg/auth"
	"liyu1981.xyz/iot-gateway-service/pkg/gateway"
)

const (
	ServiceName = "gateway.QueryService"

	SearchFullMethod = "/" + ServiceName + "/Search"
	WhoAmIFullMethod = "/" + ServiceName + "/WhoAmI"
)

// QueryServiceServer is the read side of the gateway over gRPC. Messages are
// the well known Struct and Empty types, so no generated code is needed.
type QueryServiceServer interface {
	Search(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	WhoAmI(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
}

type QueryServer struct {
	Gateway *gateway.Gateway
	Tokens  *auth.TokenManager
}

var _ QueryServiceServer = (*QueryServer)(nil)

func searchHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QueryServiceServer).Search(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SearchFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(QueryServiceServer).Search(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func whoAmIHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QueryServiceServer).WhoAmI(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: WhoAmIFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(QueryServiceServer).WhoAmI(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

var QueryServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*QueryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Search", Handler: searchHandler},
		{MethodName: "WhoAmI", Handler: whoAmIHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gateway/query.proto",
}

func RegisterQueryServiceServer(s grpc.ServiceRegistrar, srv QueryServiceServer) {
	s.RegisterService(&QueryServiceDesc, srv)
}

// NewServer builds a gRPC server with bearer token auth on every call.
func (q *QueryServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.UnaryInterceptor(q.AuthInterceptor()))
	s := grpc.NewServer(opts...)
	RegisterQueryServiceServer(s, q)
	return s
}
