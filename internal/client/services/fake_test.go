package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/sehati-health/sehati/internal/client/biometric"
	"github.com/sehati-health/sehati/internal/client/client"
	"github.com/sehati-health/sehati/internal/common"
	pb "github.com/sehati-health/sehati/internal/proto"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	access, refresh string
	onRefresh       func(access, refresh string)

	registerReq *pb.RegisterRequest
	registerErr error

	loginWallet string
	loginTS     int64
	loginSig    string
	loginTokens [2]string
	loginErr    error

	logoutCalls int
	logoutErr   error

	grantKey string
	grantTTL time.Duration
	grant    *pb.Grant

	validateKey     string
	validatePatient string
	validateErr     error
	revoked         []string
	listErr         error

	addReq  *pb.AddRecordRequest
	addResp *pb.AddRecordResponse

	viewed []*pb.ViewedRecord
	audit  []*pb.AuditEntry
}

var _ client.Client = (*fakeClient)(nil)

func (f *fakeClient) Close() error                 { return nil }
func (f *fakeClient) Ping(ctx context.Context) error { return nil }

func (f *fakeClient) Register(ctx context.Context, req *pb.RegisterRequest) (string, error) {
	f.registerReq = req
	return "user-1", f.registerErr
}

func (f *fakeClient) Login(ctx context.Context, walletAddress string, signedAt int64, signature string) error {
	f.loginWallet, f.loginTS, f.loginSig = walletAddress, signedAt, signature
	if f.loginErr != nil {
		return f.loginErr
	}
	f.access, f.refresh = f.loginTokens[0], f.loginTokens[1]
	return nil
}

func (f *fakeClient) Logout(ctx context.Context) error {
	f.logoutCalls++
	f.access, f.refresh = "", ""
	return f.logoutErr
}

func (f *fakeClient) Tokens() (string, string)      { return f.access, f.refresh }
func (f *fakeClient) SetTokens(access, refresh string) { f.access, f.refresh = access, refresh }
func (f *fakeClient) OnTokenRefresh(fn func(access, refresh string)) {
	f.onRefresh = fn
}

func (f *fakeClient) CreateGrant(ctx context.Context, encryptionKey string, ttl time.Duration) (*pb.Grant, error) {
	f.grantKey, f.grantTTL = encryptionKey, ttl
	return f.grant, nil
}

func (f *fakeClient) ValidateGrant(ctx context.Context, token string) (string, string, error) {
	return f.validateKey, f.validatePatient, f.validateErr
}

func (f *fakeClient) RevokeGrant(ctx context.Context, token string) error {
	f.revoked = append(f.revoked, token)
	return nil
}

func (f *fakeClient) ListGrants(ctx context.Context) ([]*pb.Grant, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return []*pb.Grant{f.grant}, nil
}

func (f *fakeClient) AddRecord(ctx context.Context, req *pb.AddRecordRequest) (*pb.AddRecordResponse, error) {
	f.addReq = req
	return f.addResp, nil
}

func (f *fakeClient) ViewRecords(ctx context.Context, token string, recordIDs []string) ([]*pb.ViewedRecord, error) {
	return f.viewed, nil
}

func (f *fakeClient) ListAudit(ctx context.Context) ([]*pb.AuditEntry, error) {
	return f.audit, nil
}

// fakeGate matches a sample when it equals the enrolled one and hands out a
// fixed key for it.
type fakeGate struct {
	enrolled  string
	key       []byte
	verifyErr error
	calls     int
}

func (g *fakeGate) Enroll(ctx context.Context, sampleRef, contextID string) (*biometric.Enrollment, error) {
	g.enrolled = sampleRef
	return &biometric.Enrollment{HelperData: "helper:" + contextID, VerifierHash: "vh"}, nil
}

func (g *fakeGate) Verify(ctx context.Context, sampleRef, helperData string) (*biometric.Verification, error) {
	g.calls++
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	if sampleRef != g.enrolled {
		return nil, common.ErrBiometricVerificationFailed
	}
	k := make([]byte, len(g.key))
	copy(k, g.key)
	return &biometric.Verification{DerivedKey: k}, nil
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}
