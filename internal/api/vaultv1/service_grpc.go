package vaultv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "vault.v1.VaultService"

const (
	VaultService_Login_FullMethodName        = "/vault.v1.VaultService/Login"
	VaultService_Logout_FullMethodName       = "/vault.v1.VaultService/Logout"
	VaultService_UploadFile_FullMethodName   = "/vault.v1.VaultService/UploadFile"
	VaultService_Dashboard_FullMethodName    = "/vault.v1.VaultService/Dashboard"
	VaultService_DeleteFile_FullMethodName   = "/vault.v1.VaultService/DeleteFile"
	VaultService_ListActivity_FullMethodName = "/vault.v1.VaultService/ListActivity"
	VaultService_DownloadFile_FullMethodName = "/vault.v1.VaultService/DownloadFile"
	VaultService_GetPreview_FullMethodName   = "/vault.v1.VaultService/GetPreview"
)

type (
	VaultService_UploadFileServer   = grpc.ClientStreamingServer[UploadFileRequest, UploadFileResponse]
	VaultService_DownloadFileServer = grpc.ServerStreamingServer[DownloadFileResponse]
	VaultService_UploadFileClient   = grpc.ClientStreamingClient[UploadFileRequest, UploadFileResponse]
	VaultService_DownloadFileClient = grpc.ServerStreamingClient[DownloadFileResponse]
)

// VaultServiceServer is the server API for VaultService.
type VaultServiceServer interface {
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	Logout(context.Context, *LogoutRequest) (*LogoutResponse, error)
	UploadFile(VaultService_UploadFileServer) error
	Dashboard(context.Context, *DashboardRequest) (*DashboardResponse, error)
	DeleteFile(context.Context, *DeleteFileRequest) (*DeleteFileResponse, error)
	ListActivity(context.Context, *ListActivityRequest) (*ListActivityResponse, error)
	DownloadFile(*DownloadFileRequest, VaultService_DownloadFileServer) error
	GetPreview(context.Context, *GetPreviewRequest) (*GetPreviewResponse, error)
}

// UnimplementedVaultServiceServer can be embedded for forward compatibility.
type UnimplementedVaultServiceServer struct{}

func (UnimplementedVaultServiceServer) Login(context.Context, *LoginRequest) (*LoginResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Login not implemented")
}
func (UnimplementedVaultServiceServer) Logout(context.Context, *LogoutRequest) (*LogoutResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Logout not implemented")
}
func (UnimplementedVaultServiceServer) UploadFile(VaultService_UploadFileServer) error {
	return status.Error(codes.Unimplemented, "method UploadFile not implemented")
}
func (UnimplementedVaultServiceServer) Dashboard(context.Context, *DashboardRequest) (*DashboardResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Dashboard not implemented")
}
func (UnimplementedVaultServiceServer) DeleteFile(context.Context, *DeleteFileRequest) (*DeleteFileResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteFile not implemented")
}
func (UnimplementedVaultServiceServer) ListActivity(context.Context, *ListActivityRequest) (*ListActivityResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListActivity not implemented")
}
func (UnimplementedVaultServiceServer) DownloadFile(*DownloadFileRequest, VaultService_DownloadFileServer) error {
	return status.Error(codes.Unimplemented, "method DownloadFile not implemented")
}
func (UnimplementedVaultServiceServer) GetPreview(context.Context, *GetPreviewRequest) (*GetPreviewResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetPreview not implemented")
}

func RegisterVaultServiceServer(s grpc.ServiceRegistrar, srv VaultServiceServer) {
	s.RegisterService(&VaultService_ServiceDesc, srv)
}

func unaryHandler[Req any](
	method string,
	call func(VaultServiceServer, context.Context, *Req) (any, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(VaultServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(VaultServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func _VaultService_UploadFile_Handler(srv any, stream grpc.ServerStream) error {
	return srv.(VaultServiceServer).UploadFile(&grpc.GenericServerStream[UploadFileRequest, UploadFileResponse]{ServerStream: stream})
}

func _VaultService_DownloadFile_Handler(srv any, stream grpc.ServerStream) error {
	m := new(DownloadFileRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(VaultServiceServer).DownloadFile(m, &grpc.GenericServerStream[DownloadFileRequest, DownloadFileResponse]{ServerStream: stream})
}

// VaultService_ServiceDesc is the grpc.ServiceDesc for VaultService.
var VaultService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*VaultServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Login",
			Handler: unaryHandler(VaultService_Login_FullMethodName, func(s VaultServiceServer, ctx context.Context, in *LoginRequest) (any, error) {
				return s.Login(ctx, in)
			}),
		},
		{
			MethodName: "Logout",
			Handler: unaryHandler(VaultService_Logout_FullMethodName, func(s VaultServiceServer, ctx context.Context, in *LogoutRequest) (any, error) {
				return s.Logout(ctx, in)
			}),
		},
		{
			MethodName: "Dashboard",
			Handler: unaryHandler(VaultService_Dashboard_FullMethodName, func(s VaultServiceServer, ctx context.Context, in *DashboardRequest) (any, error) {
				return s.Dashboard(ctx, in)
			}),
		},
		{
			MethodName: "DeleteFile",
			Handler: unaryHandler(VaultService_DeleteFile_FullMethodName, func(s VaultServiceServer, ctx context.Context, in *DeleteFileRequest) (any, error) {
				return s.DeleteFile(ctx, in)
			}),
		},
		{
			MethodName: "ListActivity",
			Handler: unaryHandler(VaultService_ListActivity_FullMethodName, func(s VaultServiceServer, ctx context.Context, in *ListActivityRequest) (any, error) {
				return s.ListActivity(ctx, in)
			}),
		},
		{
			MethodName: "GetPreview",
			Handler: unaryHandler(VaultService_GetPreview_FullMethodName, func(s VaultServiceServer, ctx context.Context, in *GetPreviewRequest) (any, error) {
				return s.GetPreview(ctx, in)
			}),
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "UploadFile",
			Handler:       _VaultService_UploadFile_Handler,
			ClientStreams: true,
		},
		{
			StreamName:    "DownloadFile",
			Handler:       _VaultService_DownloadFile_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "vault/v1/vault.json",
}

// VaultServiceClient is the client API for VaultService. Every call is sent
// with the JSON content-subtype.
type VaultServiceClient interface {
	Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error)
	Logout(ctx context.Context, in *LogoutRequest, opts ...grpc.CallOption) (*LogoutResponse, error)
	UploadFile(ctx context.Context, opts ...grpc.CallOption) (VaultService_UploadFileClient, error)
	Dashboard(ctx context.Context, in *DashboardRequest, opts ...grpc.CallOption) (*DashboardResponse, error)
	DeleteFile(ctx context.Context, in *DeleteFileRequest, opts ...grpc.CallOption) (*DeleteFileResponse, error)
	ListActivity(ctx context.Context, in *ListActivityRequest, opts ...grpc.CallOption) (*ListActivityResponse, error)
	DownloadFile(ctx context.Context, in *DownloadFileRequest, opts ...grpc.CallOption) (VaultService_DownloadFileClient, error)
	GetPreview(ctx context.Context, in *GetPreviewRequest, opts ...grpc.CallOption) (*GetPreviewResponse, error)
}

type vaultServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewVaultServiceClient(cc grpc.ClientConnInterface) VaultServiceClient {
	return &vaultServiceClient{cc}
}

func callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

func invoke[Res any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Res, error) {
	out := new(Res)
	if err := cc.Invoke(ctx, method, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *vaultServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c.cc, VaultService_Login_FullMethodName, in, opts)
}

func (c *vaultServiceClient) Logout(ctx context.Context, in *LogoutRequest, opts ...grpc.CallOption) (*LogoutResponse, error) {
	return invoke[LogoutResponse](ctx, c.cc, VaultService_Logout_FullMethodName, in, opts)
}

func (c *vaultServiceClient) Dashboard(ctx context.Context, in *DashboardRequest, opts ...grpc.CallOption) (*DashboardResponse, error) {
	return invoke[DashboardResponse](ctx, c.cc, VaultService_Dashboard_FullMethodName, in, opts)
}

func (c *vaultServiceClient) DeleteFile(ctx context.Context, in *DeleteFileRequest, opts ...grpc.CallOption) (*DeleteFileResponse, error) {
	return invoke[DeleteFileResponse](ctx, c.cc, VaultService_DeleteFile_FullMethodName, in, opts)
}

func (c *vaultServiceClient) ListActivity(ctx context.Context, in *ListActivityRequest, opts ...grpc.CallOption) (*ListActivityResponse, error) {
	return invoke[ListActivityResponse](ctx, c.cc, VaultService_ListActivity_FullMethodName, in, opts)
}

func (c *vaultServiceClient) GetPreview(ctx context.Context, in *GetPreviewRequest, opts ...grpc.CallOption) (*GetPreviewResponse, error) {
	return invoke[GetPreviewResponse](ctx, c.cc, VaultService_GetPreview_FullMethodName, in, opts)
}

func (c *vaultServiceClient) UploadFile(ctx context.Context, opts ...grpc.CallOption) (VaultService_UploadFileClient, error) {
	stream, err := c.cc.NewStream(ctx, &VaultService_ServiceDesc.Streams[0], VaultService_UploadFile_FullMethodName, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	return &grpc.GenericClientStream[UploadFileRequest, UploadFileResponse]{ClientStream: stream}, nil
}

func (c *vaultServiceClient) DownloadFile(ctx context.Context, in *DownloadFileRequest, opts ...grpc.CallOption) (VaultService_DownloadFileClient, error) {
	stream, err := c.cc.NewStream(ctx, &VaultService_ServiceDesc.Streams[1], VaultService_DownloadFile_FullMethodName, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[DownloadFileRequest, DownloadFileResponse]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
