package client

import (
	"context"
	"time"

	pb "github.com/sehati-health/sehati/internal/proto"
)

type Client interface {
	Close() error
	Ping(ctx context.Context) error

	Register(ctx context.Context, req *pb.RegisterRequest) (string, error)
	Login(ctx context.Context, walletAddress string, signedAt int64, signature string) error
	Logout(ctx context.Context) error
	Tokens() (access, refresh string)
	SetTokens(access, refresh string)
	OnTokenRefresh(fn func(access, refresh string))

	CreateGrant(ctx context.Context, encryptionKey string, ttl time.Duration) (*pb.Grant, error)
	ValidateGrant(ctx context.Context, token string) (encryptionKey, patientID string, err error)
	RevokeGrant(ctx context.Context, token string) error
	ListGrants(ctx context.Context) ([]*pb.Grant, error)

	AddRecord(ctx context.Context, req *pb.AddRecordRequest) (*pb.AddRecordResponse, error)
	ViewRecords(ctx context.Context, token string, recordIDs []string) ([]*pb.ViewedRecord, error)

	ListAudit(ctx context.Context) ([]*pb.AuditEntry, error)
}
