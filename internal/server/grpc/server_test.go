package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/sehati-health/sehati/internal/common"
	pb "github.com/sehati-health/sehati/internal/proto"
	"github.com/sehati-health/sehati/internal/server/auth"
	"github.com/sehati-health/sehati/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func dialBufconn(t *testing.T, s *GRPCServer) pb.SehatiClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		cancel()
		<-done
	})
	return pb.NewSehatiClient(conn)
}

func TestServer_JSONRoundTrip(t *testing.T) {
	s, f := newServer()
	f.users.loginResp = &services.TokenPair{AccessToken: "a", RefreshToken: "r"}
	f.grants.key, f.grants.patient = "key-abc", "patient-1"
	client := dialBufconn(t, s)
	ctx := context.Background()

	ping, err := client.Ping(ctx, &pb.PingRequest{})
	require.NoError(t, err)
	assert.Equal(t, "OK", ping.Status)

	login, err := client.Login(ctx, &pb.LoginRequest{WalletAddress: "0xabc", SignedAt: 1, Signature: "sig"})
	require.NoError(t, err)
	assert.Equal(t, "a", login.AccessToken)

	v, err := client.ValidateGrant(ctx, &pb.ValidateGrantRequest{Token: "T"})
	require.NoError(t, err)
	assert.Equal(t, &pb.ValidateGrantResponse{PatientID: "patient-1", EncryptionKey: "key-abc"}, v)
}

func TestServer_AuthenticatedCall(t *testing.T) {
	s, f := newServer()
	client := dialBufconn(t, s)

	_, err := client.CreateGrant(context.Background(), &pb.CreateGrantRequest{EncryptionKey: "k"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	token, err := auth.GenerateToken("p1", common.RolePatient, []byte("k"), time.Minute)
	require.NoError(t, err)
	ctx := metadata.AppendToOutgoingContext(context.Background(), common.AccessTokenHeaderName, token)

	resp, err := client.CreateGrant(ctx, &pb.CreateGrantRequest{EncryptionKey: "k", TTLSeconds: 60})
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.Grant.Token)
	assert.Equal(t, "p1", f.grants.createdFor)
	assert.Equal(t, time.Minute, f.grants.createdTTL)
}

func TestServer_ErrorCarriesOnlyUserMessage(t *testing.T) {
	s, f := newServer()
	f.grants.validateErr = common.ErrGrantExpired
	client := dialBufconn(t, s)

	_, err := client.ValidateGrant(context.Background(), &pb.ValidateGrantRequest{Token: "T"})
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.FailedPrecondition, st.Code())
	assert.Equal(t, common.UserMessage(common.ErrGrantExpired), st.Message())
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()
	s, _ := newServer()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on graceful stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()
	s, _ := newServer()
	s.address = "127.0.0.1:99999"

	if err := s.Run(context.Background()); err == nil {
		t.Fatal("expected listen error")
	}
}
