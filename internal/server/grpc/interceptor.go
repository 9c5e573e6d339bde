package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/sehati-health/sehati/internal/common"
	pb "github.com/sehati-health/sehati/internal/proto"
	"github.com/sehati-health/sehati/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// publicMethods can be called without an access token. ValidateGrant is
// bearer-only: the grant token is the credential.
var publicMethods = map[string]bool{
	pb.FullMethod("Ping"):          true,
	pb.FullMethod("Register"):      true,
	pb.FullMethod("Login"):         true,
	pb.FullMethod("RefreshToken"):  true,
	pb.FullMethod("ValidateGrant"): true,
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if publicMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.AccessTokenHeaderName); len(values) > 0 {
			accessToken = values[0]
		}
	}
	if accessToken == "" {
		return nil, status.Error(codes.Unauthenticated, common.UserMessage(common.ErrInvalidToken))
	}

	claims, err := auth.ParseToken(accessToken, s.jwtSecret)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return nil, status.Error(codes.Unauthenticated, common.UserMessage(common.ErrTokenExpired))
		}
		return nil, status.Error(codes.Unauthenticated, common.UserMessage(common.ErrInvalidToken))
	}

	return handler(context.WithValue(ctx, claimsKey, claims), req)
}

func (s *GRPCServer) metricsInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.metrics.RecordRPC(info.FullMethod, status.Code(err).String(), time.Since(start))
	return resp, err
}

func claimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*auth.Claims)
	return c, ok && c != nil
}

// requireRole returns the caller's claims when they hold role. An empty role
// accepts any authenticated caller.
func requireRole(ctx context.Context, role string) (*auth.Claims, error) {
	c, ok := claimsFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, common.UserMessage(common.ErrInvalidToken))
	}
	if role != "" && c.Role != role {
		return nil, status.Error(codes.PermissionDenied, common.UserMessage(common.ErrUnauthorized))
	}
	return c, nil
}
