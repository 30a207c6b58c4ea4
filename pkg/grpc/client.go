package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// QueryClient calls QueryService with a fixed access token.
type QueryClient struct {
	cc    grpc.ClientConnInterface
	token string
}

func NewQueryClient(cc grpc.ClientConnInterface, token string) *QueryClient {
	return &QueryClient{cc: cc, token: token}
}

func (c *QueryClient) withToken(ctx context.Context) context.Context {
	if c.token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
}

// Search returns the matching rows in their JSON form.
func (c *QueryClient) Search(ctx context.Context, resource string, filters map[string]any, opts ...grpc.CallOption) ([]any, error) {
	if filters == nil {
		filters = map[string]any{}
	}
	in, err := structpb.NewStruct(map[string]any{"resource": resource, "filters": filters})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(c.withToken(ctx), SearchFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out.GetFields()["items"].GetListValue().AsSlice(), nil
}

func (c *QueryClient) WhoAmI(ctx context.Context, opts ...grpc.CallOption) (string, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(c.withToken(ctx), WhoAmIFullMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return "", err
	}
	return out.GetFields()["logged_in_as"].GetStringValue(), nil
}
