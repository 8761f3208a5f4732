package pb

import (
	"context"

	"google.golang.org/grpc"
)

// LighthouseClient is the client API for the Lighthouse job/worker
// coordination service, mirroring what protoc-gen-go-grpc would emit for a
// `service Lighthouse` with the RPCs below.
type LighthouseClient interface {
	RegisterWorker(ctx context.Context, in *RegisterWorkerRequest, opts ...grpc.CallOption) (*RegisterWorkerReply, error)
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingReply, error)
	PollJob(ctx context.Context, in *PollJobRequest, opts ...grpc.CallOption) (*PollJobReply, error)
	ReportStatus(ctx context.Context, in *ReportStatusRequest, opts ...grpc.CallOption) (*ReportStatusReply, error)
}

type lighthouseClient struct {
	cc grpc.ClientConnInterface
}

// NewLighthouseClient constructs a LighthouseClient over cc.
func NewLighthouseClient(cc grpc.ClientConnInterface) LighthouseClient {
	return &lighthouseClient{cc}
}

func (c *lighthouseClient) RegisterWorker(ctx context.Context, in *RegisterWorkerRequest, opts ...grpc.CallOption) (*RegisterWorkerReply, error) {
	out := new(RegisterWorkerReply)
	if err := c.cc.Invoke(ctx, "/laniakea.lighthouse.v1.Lighthouse/RegisterWorker", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *lighthouseClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingReply, error) {
	out := new(PingReply)
	if err := c.cc.Invoke(ctx, "/laniakea.lighthouse.v1.Lighthouse/Ping", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *lighthouseClient) PollJob(ctx context.Context, in *PollJobRequest, opts ...grpc.CallOption) (*PollJobReply, error) {
	out := new(PollJobReply)
	if err := c.cc.Invoke(ctx, "/laniakea.lighthouse.v1.Lighthouse/PollJob", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *lighthouseClient) ReportStatus(ctx context.Context, in *ReportStatusRequest, opts ...grpc.CallOption) (*ReportStatusReply, error) {
	out := new(ReportStatusReply)
	if err := c.cc.Invoke(ctx, "/laniakea.lighthouse.v1.Lighthouse/ReportStatus", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// LighthouseServer is the server API for the Lighthouse service.
type LighthouseServer interface {
	RegisterWorker(context.Context, *RegisterWorkerRequest) (*RegisterWorkerReply, error)
	Ping(context.Context, *PingRequest) (*PingReply, error)
	PollJob(context.Context, *PollJobRequest) (*PollJobReply, error)
	ReportStatus(context.Context, *ReportStatusRequest) (*ReportStatusReply, error)
}

// RegisterLighthouseServer registers srv with s.
func RegisterLighthouseServer(s grpc.ServiceRegistrar, srv LighthouseServer) {
	s.RegisterService(&Lighthouse_ServiceDesc, srv)
}

func _Lighthouse_RegisterWorker_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RegisterWorkerRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LighthouseServer).RegisterWorker(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/laniakea.lighthouse.v1.Lighthouse/RegisterWorker"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LighthouseServer).RegisterWorker(ctx, req.(*RegisterWorkerRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Lighthouse_Ping_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(PingRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LighthouseServer).Ping(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/laniakea.lighthouse.v1.Lighthouse/Ping"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LighthouseServer).Ping(ctx, req.(*PingRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Lighthouse_PollJob_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(PollJobRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LighthouseServer).PollJob(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/laniakea.lighthouse.v1.Lighthouse/PollJob"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LighthouseServer).PollJob(ctx, req.(*PollJobRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Lighthouse_ReportStatus_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ReportStatusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LighthouseServer).ReportStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/laniakea.lighthouse.v1.Lighthouse/ReportStatus"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LighthouseServer).ReportStatus(ctx, req.(*ReportStatusRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// Lighthouse_ServiceDesc is the grpc.ServiceDesc for the Lighthouse
// service; protoc-gen-go-grpc would emit this verbatim for the equivalent
// .proto definition.
var Lighthouse_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "laniakea.lighthouse.v1.Lighthouse",
	HandlerType: (*LighthouseServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RegisterWorker", Handler: _Lighthouse_RegisterWorker_Handler},
		{MethodName: "Ping", Handler: _Lighthouse_Ping_Handler},
		{MethodName: "PollJob", Handler: _Lighthouse_PollJob_Handler},
		{MethodName: "ReportStatus", Handler: _Lighthouse_ReportStatus_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "lighthouse.proto",
}
