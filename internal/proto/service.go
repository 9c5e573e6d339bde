package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "sehati.v1.Sehati"

// FullMethod returns the "/service/method" path gRPC routes on.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// SehatiServer is implemented by the server side of sehati.v1.Sehati.
type SehatiServer interface {
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*RefreshTokenResponse, error)
	Logout(context.Context, *LogoutRequest) (*LogoutResponse, error)
	CreateGrant(context.Context, *CreateGrantRequest) (*CreateGrantResponse, error)
	ValidateGrant(context.Context, *ValidateGrantRequest) (*ValidateGrantResponse, error)
	RevokeGrant(context.Context, *RevokeGrantRequest) (*RevokeGrantResponse, error)
	ListGrants(context.Context, *ListGrantsRequest) (*ListGrantsResponse, error)
	AddRecord(context.Context, *AddRecordRequest) (*AddRecordResponse, error)
	ViewRecords(context.Context, *ViewRecordsRequest) (*ViewRecordsResponse, error)
	ListAudit(context.Context, *ListAuditRequest) (*ListAuditResponse, error)
}

// UnimplementedSehatiServer answers every method with codes.Unimplemented.
// Embed it to stay forward compatible.
type UnimplementedSehatiServer struct{}

func (UnimplementedSehatiServer) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Ping not implemented")
}
func (UnimplementedSehatiServer) Register(context.Context, *RegisterRequest) (*RegisterResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Register not implemented")
}
func (UnimplementedSehatiServer) Login(context.Context, *LoginRequest) (*LoginResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Login not implemented")
}
func (UnimplementedSehatiServer) RefreshToken(context.Context, *RefreshTokenRequest) (*RefreshTokenResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RefreshToken not implemented")
}
func (UnimplementedSehatiServer) Logout(context.Context, *LogoutRequest) (*LogoutResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Logout not implemented")
}
func (UnimplementedSehatiServer) CreateGrant(context.Context, *CreateGrantRequest) (*CreateGrantResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateGrant not implemented")
}
func (UnimplementedSehatiServer) ValidateGrant(context.Context, *ValidateGrantRequest) (*ValidateGrantResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ValidateGrant not implemented")
}
func (UnimplementedSehatiServer) RevokeGrant(context.Context, *RevokeGrantRequest) (*RevokeGrantResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RevokeGrant not implemented")
}
func (UnimplementedSehatiServer) ListGrants(context.Context, *ListGrantsRequest) (*ListGrantsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListGrants not implemented")
}
func (UnimplementedSehatiServer) AddRecord(context.Context, *AddRecordRequest) (*AddRecordResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method AddRecord not implemented")
}
func (UnimplementedSehatiServer) ViewRecords(context.Context, *ViewRecordsRequest) (*ViewRecordsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ViewRecords not implemented")
}
func (UnimplementedSehatiServer) ListAudit(context.Context, *ListAuditRequest) (*ListAuditResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListAudit not implemented")
}

// unary adapts a typed server method to a grpc.MethodDesc.
func unary[Req, Resp any](name string, call func(SehatiServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(SehatiServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(SehatiServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SehatiServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Ping", SehatiServer.Ping),
		unary("Register", SehatiServer.Register),
		unary("Login", SehatiServer.Login),
		unary("RefreshToken", SehatiServer.RefreshToken),
		unary("Logout", SehatiServer.Logout),
		unary("CreateGrant", SehatiServer.CreateGrant),
		unary("ValidateGrant", SehatiServer.ValidateGrant),
		unary("RevokeGrant", SehatiServer.RevokeGrant),
		unary("ListGrants", SehatiServer.ListGrants),
		unary("AddRecord", SehatiServer.AddRecord),
		unary("ViewRecords", SehatiServer.ViewRecords),
		unary("ListAudit", SehatiServer.ListAudit),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sehati/v1/sehati.proto",
}

func RegisterSehatiServer(s grpc.ServiceRegistrar, srv SehatiServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// SehatiClient is the client side of sehati.v1.Sehati.
type SehatiClient interface {
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
	Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error)
	Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error)
	RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*RefreshTokenResponse, error)
	Logout(ctx context.Context, in *LogoutRequest, opts ...grpc.CallOption) (*LogoutResponse, error)
	CreateGrant(ctx context.Context, in *CreateGrantRequest, opts ...grpc.CallOption) (*CreateGrantResponse, error)
	ValidateGrant(ctx context.Context, in *ValidateGrantRequest, opts ...grpc.CallOption) (*ValidateGrantResponse, error)
	RevokeGrant(ctx context.Context, in *RevokeGrantRequest, opts ...grpc.CallOption) (*RevokeGrantResponse, error)
	ListGrants(ctx context.Context, in *ListGrantsRequest, opts ...grpc.CallOption) (*ListGrantsResponse, error)
	AddRecord(ctx context.Context, in *AddRecordRequest, opts ...grpc.CallOption) (*AddRecordResponse, error)
	ViewRecords(ctx context.Context, in *ViewRecordsRequest, opts ...grpc.CallOption) (*ViewRecordsResponse, error)
	ListAudit(ctx context.Context, in *ListAuditRequest, opts ...grpc.CallOption) (*ListAuditResponse, error)
}

type sehatiClient struct {
	cc grpc.ClientConnInterface
}

// NewSehatiClient wraps cc. Every call is sent with the JSON content-subtype.
func NewSehatiClient(cc grpc.ClientConnInterface) SehatiClient {
	return &sehatiClient{cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *sehatiClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, "Ping", in, opts)
}
func (c *sehatiClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	return invoke[RegisterResponse](ctx, c.cc, "Register", in, opts)
}
func (c *sehatiClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c.cc, "Login", in, opts)
}
func (c *sehatiClient) RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*RefreshTokenResponse, error) {
	return invoke[RefreshTokenResponse](ctx, c.cc, "RefreshToken", in, opts)
}
func (c *sehatiClient) Logout(ctx context.Context, in *LogoutRequest, opts ...grpc.CallOption) (*LogoutResponse, error) {
	return invoke[LogoutResponse](ctx, c.cc, "Logout", in, opts)
}
func (c *sehatiClient) CreateGrant(ctx context.Context, in *CreateGrantRequest, opts ...grpc.CallOption) (*CreateGrantResponse, error) {
	return invoke[CreateGrantResponse](ctx, c.cc, "CreateGrant", in, opts)
}
func (c *sehatiClient) ValidateGrant(ctx context.Context, in *ValidateGrantRequest, opts ...grpc.CallOption) (*ValidateGrantResponse, error) {
	return invoke[ValidateGrantResponse](ctx, c.cc, "ValidateGrant", in, opts)
}
func (c *sehatiClient) RevokeGrant(ctx context.Context, in *RevokeGrantRequest, opts ...grpc.CallOption) (*RevokeGrantResponse, error) {
	return invoke[RevokeGrantResponse](ctx, c.cc, "RevokeGrant", in, opts)
}
func (c *sehatiClient) ListGrants(ctx context.Context, in *ListGrantsRequest, opts ...grpc.CallOption) (*ListGrantsResponse, error) {
	return invoke[ListGrantsResponse](ctx, c.cc, "ListGrants", in, opts)
}
func (c *sehatiClient) AddRecord(ctx context.Context, in *AddRecordRequest, opts ...grpc.CallOption) (*AddRecordResponse, error) {
	return invoke[AddRecordResponse](ctx, c.cc, "AddRecord", in, opts)
}
func (c *sehatiClient) ViewRecords(ctx context.Context, in *ViewRecordsRequest, opts ...grpc.CallOption) (*ViewRecordsResponse, error) {
	return invoke[ViewRecordsResponse](ctx, c.cc, "ViewRecords", in, opts)
}
func (c *sehatiClient) ListAudit(ctx context.Context, in *ListAuditRequest, opts ...grpc.CallOption) (*ListAuditResponse, error) {
	return invoke[ListAuditResponse](ctx, c.cc, "ListAudit", in, opts)
}
