package grpc

import (
	"context"
	"iter"
	"net"
	"time"

	"github.com/sehati-health/sehati/internal/logging"
	pb "github.com/sehati-health/sehati/internal/proto"
	"github.com/sehati-health/sehati/internal/server/metrics"
	"github.com/sehati-health/sehati/internal/server/models"
	"github.com/sehati-health/sehati/internal/server/services"
	"google.golang.org/grpc"
)

type Users interface {
	Register(ctx context.Context, r services.Registration) (*models.User, error)
	Login(ctx context.Context, walletAddress string, signedAt int64, signatureHex string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, userID string) error
}

type Grants interface {
	CreateGrant(ctx context.Context, patientID, encryptionKey string, ttl time.Duration) (*models.AccessGrant, error)
	ValidateGrant(ctx context.Context, token string) (encryptionKey, patientID string, err error)
	RevokeGrant(ctx context.Context, patientID, token string) error
	ListGrants(ctx context.Context, patientID string) ([]services.GrantStatus, error)
}

type Records interface {
	AddRecord(ctx context.Context, token string, in services.NewRecord) (*services.AddedRecord, error)
	ViewRecords(ctx context.Context, viewerID, token string, recordIDs []string) ([]*services.ViewedRecord, error)
}

type Audit interface {
	ListFor(ctx context.Context, id string) iter.Seq2[*models.AuditLog, error]
}

// Services bundles what the handlers call into.
type Services struct {
	Users   Users
	Grants  Grants
	Records Records
	Audit   Audit
}

type GRPCServer struct {
	pb.UnimplementedSehatiServer
	address         string
	users           Users
	grants          Grants
	records         Records
	audit           Audit
	logger          logging.Logger
	metrics         *metrics.Collector
	jwtSecret       []byte
	defaultGrantTTL time.Duration
}

func NewGRPCServer(a string, l logging.Logger, svc Services, mc *metrics.Collector, secretKey string, defaultGrantTTL time.Duration) *GRPCServer {
	return &GRPCServer{
		address:         a,
		logger:          l.With("module", "grpc_server"),
		users:           svc.Users,
		grants:          svc.Grants,
		records:         svc.Records,
		audit:           svc.Audit,
		metrics:         mc,
		jwtSecret:       []byte(secretKey),
		defaultGrantTTL: defaultGrantTTL,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.metricsInterceptor, s.accessTokenInterceptor))
	pb.RegisterSehatiServer(srv, s)
	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis and stops gracefully once ctx is done.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
