// Package server exposes the polish engine as a gRPC service.
//
// The service is declared by hand over google.protobuf.Struct messages so no
// generated stubs are needed:
//
//	service textpolish.v1.Polisher {
//	  rpc Polish(google.protobuf.Struct) returns (google.protobuf.Struct);
//	}
//
// Requests carry "text" (required) and "language" (optional). Responses carry
// "original", "polished", "language", and "changes".
package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	// ServiceName is the fully-qualified gRPC service name, also used for health checks.
	ServiceName = "textpolish.v1.Polisher"

	polishMethod = "/" + ServiceName + "/Polish"
)

// PolisherServer is the server API for the Polisher service.
type PolisherServer interface {
	Polish(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var polisherServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PolisherServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Polish", Handler: polishHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "textpolish/v1/polisher.proto",
}

// RegisterPolisherServer registers srv on registrar.
func RegisterPolisherServer(registrar grpc.ServiceRegistrar, srv PolisherServer) {
	registrar.RegisterService(&polisherServiceDesc, srv)
}

func polishHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PolisherServer).Polish(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: polishMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PolisherServer).Polish(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
