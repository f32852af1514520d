package flagsv1

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "flags.v1.FlagService"

// Full method names.
const (
	FlagService_IsEnabled_FullMethodName      = "/flags.v1.FlagService/IsEnabled"
	FlagService_EnableFlag_FullMethodName     = "/flags.v1.FlagService/EnableFlag"
	FlagService_DisableFlag_FullMethodName    = "/flags.v1.FlagService/DisableFlag"
	FlagService_ListFlags_FullMethodName      = "/flags.v1.FlagService/ListFlags"
	FlagService_GetFlagDetails_FullMethodName = "/flags.v1.FlagService/GetFlagDetails"
	FlagService_DeleteFlag_FullMethodName     = "/flags.v1.FlagService/DeleteFlag"
	FlagService_Health_FullMethodName         = "/flags.v1.FlagService/Health"
)

// FlagServiceServer is implemented by the server side of FlagService.
type FlagServiceServer interface {
	IsEnabled(context.Context, *IsEnabledRequest) (*IsEnabledResponse, error)
	EnableFlag(context.Context, *EnableFlagRequest) (*EnableFlagResponse, error)
	DisableFlag(context.Context, *DisableFlagRequest) (*DisableFlagResponse, error)
	ListFlags(context.Context, *ListFlagsRequest) (*ListFlagsResponse, error)
	GetFlagDetails(context.Context, *GetFlagDetailsRequest) (*GetFlagDetailsResponse, error)
	DeleteFlag(context.Context, *DeleteFlagRequest) (*DeleteFlagResponse, error)
	Health(context.Context, *HealthRequest) (*HealthResponse, error)
}

// RegisterFlagServiceServer registers srv on s.
func RegisterFlagServiceServer(s grpc.ServiceRegistrar, srv FlagServiceServer) {
	s.RegisterService(&FlagService_ServiceDesc, srv)
}

// unary builds a grpc.MethodHandler for one FlagService method.
func unary[Req, Resp any](method string, call func(FlagServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(FlagServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(FlagServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// FlagService_ServiceDesc describes FlagService for grpc.Server.
var FlagService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FlagServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "IsEnabled", Handler: unary(FlagService_IsEnabled_FullMethodName, FlagServiceServer.IsEnabled)},
		{MethodName: "EnableFlag", Handler: unary(FlagService_EnableFlag_FullMethodName, FlagServiceServer.EnableFlag)},
		{MethodName: "DisableFlag", Handler: unary(FlagService_DisableFlag_FullMethodName, FlagServiceServer.DisableFlag)},
		{MethodName: "ListFlags", Handler: unary(FlagService_ListFlags_FullMethodName, FlagServiceServer.ListFlags)},
		{MethodName: "GetFlagDetails", Handler: unary(FlagService_GetFlagDetails_FullMethodName, FlagServiceServer.GetFlagDetails)},
		{MethodName: "DeleteFlag", Handler: unary(FlagService_DeleteFlag_FullMethodName, FlagServiceServer.DeleteFlag)},
		{MethodName: "Health", Handler: unary(FlagService_Health_FullMethodName, FlagServiceServer.Health)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/flags/v1/service.go",
}

// FlagServiceClient is the client side of FlagService.
type FlagServiceClient interface {
	IsEnabled(ctx context.Context, in *IsEnabledRequest, opts ...grpc.CallOption) (*IsEnabledResponse, error)
	EnableFlag(ctx context.Context, in *EnableFlagRequest, opts ...grpc.CallOption) (*EnableFlagResponse, error)
	DisableFlag(ctx context.Context, in *DisableFlagRequest, opts ...grpc.CallOption) (*DisableFlagResponse, error)
	ListFlags(ctx context.Context, in *ListFlagsRequest, opts ...grpc.CallOption) (*ListFlagsResponse, error)
	GetFlagDetails(ctx context.Context, in *GetFlagDetailsRequest, opts ...grpc.CallOption) (*GetFlagDetailsResponse, error)
	DeleteFlag(ctx context.Context, in *DeleteFlagRequest, opts ...grpc.CallOption) (*DeleteFlagResponse, error)
	Health(ctx context.Context, in *HealthRequest, opts ...grpc.CallOption) (*HealthResponse, error)
}

type flagServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewFlagServiceClient returns a client that always speaks the JSON codec.
func NewFlagServiceClient(cc grpc.ClientConnInterface) FlagServiceClient {
	return &flagServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *flagServiceClient) IsEnabled(ctx context.Context, in *IsEnabledRequest, opts ...grpc.CallOption) (*IsEnabledResponse, error) {
	return invoke[IsEnabledResponse](ctx, c.cc, FlagService_IsEnabled_FullMethodName, in, opts)
}

func (c *flagServiceClient) EnableFlag(ctx context.Context, in *EnableFlagRequest, opts ...grpc.CallOption) (*EnableFlagResponse, error) {
	return invoke[EnableFlagResponse](ctx, c.cc, FlagService_EnableFlag_FullMethodName, in, opts)
}

func (c *flagServiceClient) DisableFlag(ctx context.Context, in *DisableFlagRequest, opts ...grpc.CallOption) (*DisableFlagResponse, error) {
	return invoke[DisableFlagResponse](ctx, c.cc, FlagService_DisableFlag_FullMethodName, in, opts)
}

func (c *flagServiceClient) ListFlags(ctx context.Context, in *ListFlagsRequest, opts ...grpc.CallOption) (*ListFlagsResponse, error) {
	return invoke[ListFlagsResponse](ctx, c.cc, FlagService_ListFlags_FullMethodName, in, opts)
}

func (c *flagServiceClient) GetFlagDetails(ctx context.Context, in *GetFlagDetailsRequest, opts ...grpc.CallOption) (*GetFlagDetailsResponse, error) {
	return invoke[GetFlagDetailsResponse](ctx, c.cc, FlagService_GetFlagDetails_FullMethodName, in, opts)
}

func (c *flagServiceClient) DeleteFlag(ctx context.Context, in *DeleteFlagRequest, opts ...grpc.CallOption) (*DeleteFlagResponse, error) {
	return invoke[DeleteFlagResponse](ctx, c.cc, FlagService_DeleteFlag_FullMethodName, in, opts)
}

func (c *flagServiceClient) Health(ctx context.Context, in *HealthRequest, opts ...grpc.CallOption) (*HealthResponse, error) {
	return invoke[HealthResponse](ctx, c.cc, FlagService_Health_FullMethodName, in, opts)
}
