// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package remote

import (
	"google.golang.org/grpc"
)

const (
	serviceName = "rtapi.runtime.v1.Runtime"
	callMethod  = "Call"
)

// RuntimeServer is the server side of the runtime service. Call serves one
// runtime call per stream.
type RuntimeServer interface {
	Call(stream grpc.ServerStream) error
}

// RegisterRuntimeServer registers srv on a gRPC server.
func RegisterRuntimeServer(s grpc.ServiceRegistrar, srv RuntimeServer) {
	s.RegisterService(&serviceDesc, srv)
}

func handlerCall(srv any, stream grpc.ServerStream) error {
	return srv.(RuntimeServer).Call(stream)
}

var callStreamDesc = grpc.StreamDesc{
	StreamName:    callMethod,
	Handler:       handlerCall,
	ServerStreams: true,
	ClientStreams: true,
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*RuntimeServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams:     []grpc.StreamDesc{callStreamDesc},
	Metadata:    "rtapi/runtime.proto",
}

func fullMethod(method string) string {
	return "/" + serviceName + "/" + method
}
