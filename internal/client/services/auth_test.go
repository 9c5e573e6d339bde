package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sehati-health/sehati/internal/client/client"
	"github.com/sehati-health/sehati/internal/client/session"
	"github.com/sehati-health/sehati/internal/common"
	"github.com/sehati-health/sehati/internal/logging"
	"github.com/sehati-health/sehati/internal/server/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuth(t *testing.T) (*AuthService, *fakeClient, *session.Store) {
	t.Helper()
	fc := &fakeClient{}
	store := session.NewStore(newTestDB(t))
	return NewAuthService(fc, store, logging.Nop{}), fc, store
}

func TestAuthService_RegisterSendsProfileAndKey(t *testing.T) {
	a, fc, _ := newAuth(t)
	w, err := NewWallet()
	require.NoError(t, err)

	id, err := a.Register(context.Background(), w, Profile{DisplayName: "Siti", Role: common.RolePatient, Phone: "+62"})
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)

	require.NotNil(t, fc.registerReq)
	assert.Equal(t, w.Address, fc.registerReq.WalletAddress)
	assert.Equal(t, w.PublicKeyHex(), fc.registerReq.PublicKey)
	assert.Equal(t, common.RolePatient, fc.registerReq.Role)
	assert.Equal(t, "+62", fc.registerReq.Phone)
}

func TestAuthService_RegisterWrapsError(t *testing.T) {
	a, fc, _ := newAuth(t)
	fc.registerErr = &client.RemoteError{Kind: common.ErrAlreadyExists, Message: "wallet already registered"}
	w, _ := NewWallet()

	_, err := a.Register(context.Background(), w, Profile{Role: common.RolePatient})
	require.ErrorIs(t, err, common.ErrAlreadyExists)
}

func TestAuthService_LoginSavesSessionFromClaims(t *testing.T) {
	a, fc, store := newAuth(t)
	fixed := time.Unix(1_700_000_000, 0)
	a.now = func() time.Time { return fixed }

	access, err := auth.GenerateToken("user-7", common.RoleDoctor, []byte("secret"), time.Minute)
	require.NoError(t, err)
	fc.loginTokens = [2]string{access, "refresh-1"}

	w, _ := NewWallet()
	s, err := a.Login(context.Background(), w)
	require.NoError(t, err)

	assert.Equal(t, fixed.Unix(), fc.loginTS)
	assert.Equal(t, w.SignLogin(fixed.Unix()), fc.loginSig)

	want := &session.Session{
		WalletAddress: w.Address,
		UserID:        "user-7",
		Role:          common.RoleDoctor,
		AccessToken:   access,
		RefreshToken:  "refresh-1",
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Fatalf("session mismatch (-want +got):\n%s", diff)
	}

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	if diff := cmp.Diff(want, loaded); diff != "" {
		t.Fatalf("stored session mismatch (-want +got):\n%s", diff)
	}
}

func TestAuthService_LoginFailureKeepsNoSession(t *testing.T) {
	a, fc, store := newAuth(t)
	fc.loginErr = &client.RemoteError{Kind: client.ErrUnauthorized, Message: "bad signature"}
	w, _ := NewWallet()

	_, err := a.Login(context.Background(), w)
	require.ErrorIs(t, err, client.ErrUnauthorized)

	_, err = store.Load(context.Background())
	require.ErrorIs(t, err, session.ErrNoSession)
}

func TestAuthService_RefreshedTokensArePersisted(t *testing.T) {
	a, fc, store := newAuth(t)
	access, _ := auth.GenerateToken("user-7", common.RolePatient, []byte("secret"), time.Minute)
	fc.loginTokens = [2]string{access, "refresh-1"}
	w, _ := NewWallet()

	_, err := a.Login(context.Background(), w)
	require.NoError(t, err)
	require.NotNil(t, fc.onRefresh)

	fc.onRefresh("access-2", "refresh-2")

	s, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-2", s.AccessToken)
	assert.Equal(t, "refresh-2", s.RefreshToken)
}

func TestAuthService_RestoreSetsClientTokens(t *testing.T) {
	a, fc, store := newAuth(t)
	require.NoError(t, store.Save(context.Background(), &session.Session{
		WalletAddress: "0xabc", UserID: "u", Role: common.RolePatient,
		AccessToken: "a", RefreshToken: "r",
	}))

	s, err := a.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0xabc", s.WalletAddress)
	assert.Equal(t, "a", fc.access)
	assert.Equal(t, "r", fc.refresh)
	assert.NotNil(t, fc.onRefresh)
}

func TestAuthService_RestoreWithoutSession(t *testing.T) {
	a, _, _ := newAuth(t)
	_, err := a.Restore(context.Background())
	require.ErrorIs(t, err, session.ErrNoSession)
}

func TestAuthService_Logout(t *testing.T) {
	tests := []struct {
		name      string
		remoteErr error
		wantErr   error
	}{
		{name: "ok"},
		{name: "server unreachable still logs out locally", remoteErr: client.ErrUnavailable},
		{name: "other errors surface", remoteErr: errors.New("boom"), wantErr: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, fc, store := newAuth(t)
			fc.logoutErr = tt.remoteErr
			require.NoError(t, store.Save(context.Background(), &session.Session{
				WalletAddress: "0xabc", AccessToken: "a", RefreshToken: "r",
			}))

			err := a.Logout(context.Background())
			if tt.wantErr != nil {
				require.EqualError(t, err, tt.wantErr.Error())
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, 1, fc.logoutCalls)

			_, err = store.Load(context.Background())
			require.ErrorIs(t, err, session.ErrNoSession)
		})
	}
}
