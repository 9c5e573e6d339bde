package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sehati-health/sehati/internal/common"
	pb "github.com/sehati-health/sehati/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      pb.SehatiClient

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	onRefresh    func(access, refresh string)
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, token)
	}

	return metadata.NewOutgoingContext(ctx, md)
}

func isTokenExpired(err error) bool {
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	return st.Code() == codes.Unauthenticated && st.Message() == common.UserMessage(common.ErrTokenExpired)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	access, refresh := s.Tokens()

	err := invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
	if err == nil || !isTokenExpired(err) {
		return err
	}

	// the refresh call itself goes through this interceptor
	if method == pb.FullMethod("RefreshToken") || refresh == "" {
		return err
	}

	resp, rerr := s.client.RefreshToken(ctx, &pb.RefreshTokenRequest{RefreshToken: refresh})
	if rerr != nil {
		return err
	}
	s.SetTokens(resp.AccessToken, resp.RefreshToken)

	s.mu.Lock()
	notify := s.onRefresh
	s.mu.Unlock()
	if notify != nil {
		notify(resp.AccessToken, resp.RefreshToken)
	}

	return invoker(withAccessToken(ctx, resp.AccessToken), method, req, reply, cc, opts...)
}

func NewSehatiClient(endpointURL string) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {
	conn, err := grpc.NewClient(s.endpointURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor))
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = pb.NewSehatiClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) Tokens() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

func (s *GRPCClient) SetTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = access
	s.refreshToken = refresh
}

// OnTokenRefresh registers fn to be called after a transparent refresh so
// the caller can persist the rotated pair.
func (s *GRPCClient) OnTokenRefresh(fn func(access, refresh string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRefresh = fn
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx, &pb.PingRequest{})
	if err != nil {
		return s.mapError(err)
	}

	if resp.Status != "OK" {
		return ErrUnavailable
	}

	return nil
}

func (s *GRPCClient) Register(ctx context.Context, req *pb.RegisterRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 12*time.Second)
	defer cancel()

	resp, err := s.client.Register(ctx, req)
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.UserID, nil
}

func (s *GRPCClient) Login(ctx context.Context, walletAddress string, signedAt int64, signature string) error {
	req := &pb.LoginRequest{WalletAddress: walletAddress, SignedAt: signedAt, Signature: signature}

	resp, err := s.client.Login(ctx, req)
	if err != nil {
		return s.mapError(err)
	}

	s.SetTokens(resp.AccessToken, resp.RefreshToken)
	return nil
}

// Logout revokes the refresh tokens server side and forgets both tokens
// locally, even when the server call fails.
func (s *GRPCClient) Logout(ctx context.Context) error {
	access, _ := s.Tokens()
	defer s.SetTokens("", "")

	if access == "" {
		return nil
	}
	if _, err := s.client.Logout(ctx, &pb.LogoutRequest{}); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) CreateGrant(ctx context.Context, encryptionKey string, ttl time.Duration) (*pb.Grant, error) {
	req := &pb.CreateGrantRequest{EncryptionKey: encryptionKey, TTLSeconds: int64(ttl / time.Second)}

	resp, err := s.client.CreateGrant(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Grant, nil
}

func (s *GRPCClient) ValidateGrant(ctx context.Context, token string) (string, string, error) {
	resp, err := s.client.ValidateGrant(ctx, &pb.ValidateGrantRequest{Token: token})
	if err != nil {
		return "", "", s.mapError(err)
	}
	return resp.EncryptionKey, resp.PatientID, nil
}

func (s *GRPCClient) RevokeGrant(ctx context.Context, token string) error {
	if _, err := s.client.RevokeGrant(ctx, &pb.RevokeGrantRequest{Token: token}); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) ListGrants(ctx context.Context) ([]*pb.Grant, error) {
	resp, err := s.client.ListGrants(ctx, &pb.ListGrantsRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Grants, nil
}

func (s *GRPCClient) AddRecord(ctx context.Context, req *pb.AddRecordRequest) (*pb.AddRecordResponse, error) {
	resp, err := s.client.AddRecord(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) ViewRecords(ctx context.Context, token string, recordIDs []string) ([]*pb.ViewedRecord, error) {
	resp, err := s.client.ViewRecords(ctx, &pb.ViewRecordsRequest{Token: token, RecordIDs: recordIDs})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Records, nil
}

func (s *GRPCClient) ListAudit(ctx context.Context) ([]*pb.AuditEntry, error) {
	resp, err := s.client.ListAudit(ctx, &pb.ListAuditRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Entries, nil
}

var errorKinds = map[codes.Code]error{
	codes.Unauthenticated:    ErrUnauthorized,
	codes.PermissionDenied:   ErrUnauthorized,
	codes.InvalidArgument:    common.ErrValidation,
	codes.NotFound:           common.ErrorNotFound,
	codes.FailedPrecondition: common.ErrGrantExpired,
	codes.AlreadyExists:      common.ErrAlreadyExists,
	codes.Unavailable:        ErrUnavailable,
	codes.DeadlineExceeded:   ErrUnavailable,
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("rpc error: %w", err)
	}
	kind, known := errorKinds[st.Code()]
	if !known {
		return fmt.Errorf("rpc error: %w", err)
	}
	return &RemoteError{Kind: kind, Message: st.Message()}
}
