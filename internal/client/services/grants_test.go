package services

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/sehati-health/sehati/internal/client/client"
	"github.com/sehati-health/sehati/internal/client/qr"
	"github.com/sehati-health/sehati/internal/client/repositories/grants"
	"github.com/sehati-health/sehati/internal/common"
	"github.com/sehati-health/sehati/internal/logging"
	pb "github.com/sehati-health/sehati/internal/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGrants(t *testing.T, fc *fakeClient) *GrantService {
	t.Helper()
	return NewGrantService(fc, grants.NewSQLiteRepository(newTestDB(t)), logging.Nop{})
}

func TestGrantService_CreateEmbedsKeyInPayload(t *testing.T) {
	fc := &fakeClient{grant: &pb.Grant{ID: "g1", Token: "tok-1", Active: true}}
	g := newGrants(t, fc)
	w, _ := NewWallet()

	issued, err := g.Create(context.Background(), w, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, fc.grantTTL)

	wantKey, raw, err := w.EncryptionKey()
	require.NoError(t, err)
	assert.Equal(t, wantKey, fc.grantKey)

	p, err := qr.Parse(issued.Payload)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", p.Token)
	assert.Equal(t, raw, p.Key)
}

func TestGrantService_CreateNegativeTTLRejected(t *testing.T) {
	fc := &fakeClient{grant: &pb.Grant{Token: "tok-1"}}
	w, _ := NewWallet()

	_, err := newGrants(t, fc).Create(context.Background(), w, -time.Hour)
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Empty(t, fc.grantKey, "server must not be called")
}

func TestGrantService_ValidatePayloadChecksKey(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	payload := qr.Encode(qr.Payload{Token: "tok-1", Key: key})

	t.Run("match", func(t *testing.T) {
		fc := &fakeClient{validateKey: base64.StdEncoding.EncodeToString(key), validatePatient: "p1"}
		v, err := newGrants(t, fc).Validate(context.Background(), payload)
		require.NoError(t, err)
		assert.Equal(t, "p1", v.PatientID)
		assert.Equal(t, "tok-1", v.Token)
		assert.True(t, v.KeyChecked)
	})

	t.Run("mismatch", func(t *testing.T) {
		other := base64.StdEncoding.EncodeToString([]byte("ffffffffffffffffffffffffffffffff"))
		fc := &fakeClient{validateKey: other, validatePatient: "p1"}
		_, err := newGrants(t, fc).Validate(context.Background(), payload)
		require.ErrorIs(t, err, common.ErrUnauthorized)
	})
}

func TestGrantService_ValidateBareToken(t *testing.T) {
	fc := &fakeClient{validateKey: "whatever", validatePatient: "p1"}
	v, err := newGrants(t, fc).Validate(context.Background(), "  tok-9 ")
	require.NoError(t, err)
	assert.Equal(t, "tok-9", v.Token)
	assert.False(t, v.KeyChecked)
}

func TestGrantService_ValidateErrors(t *testing.T) {
	fc := &fakeClient{validateErr: common.ErrGrantExpired}
	g := newGrants(t, fc)

	_, err := g.Validate(context.Background(), "tok-1")
	require.ErrorIs(t, err, common.ErrGrantExpired)

	_, err = g.Validate(context.Background(), "")
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestGrantService_CreateCachesAndRevokeByID(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	fc := &fakeClient{grant: &pb.Grant{ID: "g1", Token: "tok-1", PatientID: "p1", CreatedAt: now, ExpiresAt: now.Add(time.Hour), Active: true}}
	g := newGrants(t, fc)
	w, _ := NewWallet()

	_, err := g.Create(context.Background(), w, time.Hour)
	require.NoError(t, err)

	cached, err := g.cache.GetByID(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", cached.Token)

	require.NoError(t, g.Revoke(context.Background(), "g1"))
	assert.Equal(t, []string{"tok-1"}, fc.revoked)

	cached, err = g.cache.GetByID(context.Background(), "g1")
	require.NoError(t, err)
	assert.True(t, cached.Revoked)
}

func TestGrantService_RevokeUnknownIDTreatedAsToken(t *testing.T) {
	fc := &fakeClient{}
	require.NoError(t, newGrants(t, fc).Revoke(context.Background(), "tok-raw"))
	assert.Equal(t, []string{"tok-raw"}, fc.revoked)
}

func TestGrantService_ListFromServer(t *testing.T) {
	fc := &fakeClient{grant: &pb.Grant{ID: "g1"}}
	list, cached, err := newGrants(t, fc).List(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, cached)
	require.Len(t, list, 1)
	assert.Equal(t, "g1", list[0].ID)
}

func TestGrantService_ListOfflineUsesCache(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	fc := &fakeClient{grant: &pb.Grant{ID: "g1", Token: "tok-1", PatientID: "p1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}}
	g := newGrants(t, fc)
	w, _ := NewWallet()
	_, err := g.Create(context.Background(), w, time.Hour)
	require.NoError(t, err)

	fc.listErr = &client.RemoteError{Kind: client.ErrUnavailable, Message: "server unavailable"}
	list, cached, err := g.List(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, cached)
	require.Len(t, list, 1)
	assert.Equal(t, "g1", list[0].ID)
	assert.True(t, list[0].Active)
	assert.Empty(t, list[0].Token)

	g.now = func() time.Time { return now.Add(2 * time.Hour) }
	list, _, err = g.List(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, list[0].Active)
}

func TestGrantService_ListOtherErrorsSurface(t *testing.T) {
	fc := &fakeClient{listErr: &client.RemoteError{Kind: client.ErrUnauthorized, Message: "denied"}}
	_, _, err := newGrants(t, fc).List(context.Background(), "p1")
	require.ErrorIs(t, err, client.ErrUnauthorized)
}
