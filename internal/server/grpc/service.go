package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	SessionResolverServiceName = "vaultkeeper.identity.v1.SessionResolver"
	ResolveSessionFullMethod   = "/" + SessionResolverServiceName + "/ResolveSession"
)

// SessionResolverServer resolves a session secret to the account behind it.
// The request carries the secret; an empty request falls back to the
// session metadata of the call.
type SessionResolverServer interface {
	ResolveSession(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

var sessionResolverServiceDesc = grpc.ServiceDesc{
	ServiceName: SessionResolverServiceName,
	HandlerType: (*SessionResolverServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ResolveSession",
			Handler:    resolveSessionHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "vaultkeeper/identity/v1/session_resolver.proto",
}

func RegisterSessionResolverServer(s grpc.ServiceRegistrar, srv SessionResolverServer) {
	s.RegisterService(&sessionResolverServiceDesc, srv)
}

func resolveSessionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionResolverServer).ResolveSession(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ResolveSessionFullMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionResolverServer).ResolveSession(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// SessionResolverClient is used by the vault backend.
type SessionResolverClient struct {
	cc grpc.ClientConnInterface
}

func NewSessionResolverClient(cc grpc.ClientConnInterface) *SessionResolverClient {
	return &SessionResolverClient{cc: cc}
}

func (c *SessionResolverClient) ResolveSession(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ResolveSessionFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
