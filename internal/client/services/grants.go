package services

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sehati-health/sehati/internal/client/client"
	"github.com/sehati-health/sehati/internal/client/models"
	"github.com/sehati-health/sehati/internal/client/qr"
	"github.com/sehati-health/sehati/internal/client/repositories/grants"
	"github.com/sehati-health/sehati/internal/common"
	"github.com/sehati-health/sehati/internal/logging"
	pb "github.com/sehati-health/sehati/internal/proto"
)

type IssuedGrant struct {
	Grant *pb.Grant
	// Payload is the sehati:grant URI to show as a QR code.
	Payload string
}

// ValidatedGrant is what a doctor learns from a token. KeyChecked is true
// when the scanned payload carried the key and it matched the server's.
type ValidatedGrant struct {
	Token      string
	PatientID  string
	KeyChecked bool
}

// GrantService issues and manages access grants. Issued grants are also
// remembered in a local cache.
type GrantService struct {
	client client.Client
	cache  grants.Repository
	logger logging.Logger
	now    func() time.Time
}

func NewGrantService(c client.Client, cache grants.Repository, l logging.Logger) *GrantService {
	return &GrantService{client: c, cache: cache, logger: l.With("module", "grants"), now: time.Now}
}

// Create issues a grant over w's encryption key. A zero ttl lets the server
// pick its default.
func (g *GrantService) Create(ctx context.Context, w *Wallet, ttl time.Duration) (*IssuedGrant, error) {
	if ttl < 0 {
		return nil, fmt.Errorf("%w: ttl must not be negative", common.ErrValidation)
	}
	encoded, raw, err := w.EncryptionKey()
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(raw)

	grant, err := g.client.CreateGrant(ctx, encoded, ttl)
	if err != nil {
		return nil, fmt.Errorf("create grant: %w", err)
	}

	err = g.cache.Save(ctx, &models.IssuedGrant{
		ID:        grant.ID,
		Token:     grant.Token,
		PatientID: grant.PatientID,
		ExpiresAt: grant.ExpiresAt,
		CreatedAt: grant.CreatedAt,
	})
	if err != nil {
		g.logger.Warn(ctx, "could not cache issued grant", "grant_id", grant.ID, "error", err)
	}

	return &IssuedGrant{
		Grant:   grant,
		Payload: qr.Encode(qr.Payload{Token: grant.Token, Key: raw}),
	}, nil
}

// Revoke accepts either a grant id known to the local cache or a token.
func (g *GrantService) Revoke(ctx context.Context, idOrToken string) error {
	token := idOrToken
	if cached, err := g.cache.GetByID(ctx, idOrToken); err == nil {
		token = cached.Token
	} else if !errors.Is(err, grants.ErrNotFound) {
		return err
	}

	if err := g.client.RevokeGrant(ctx, token); err != nil {
		return fmt.Errorf("revoke grant: %w", err)
	}
	if err := g.cache.MarkRevoked(ctx, token); err != nil {
		g.logger.Warn(ctx, "could not update grant cache", "error", err)
	}
	return nil
}

// List returns patientID's grants from the server. When the server is
// unreachable the cached grants are returned instead and cached is true.
func (g *GrantService) List(ctx context.Context, patientID string) (list []*pb.Grant, cached bool, err error) {
	remote, err := g.client.ListGrants(ctx)
	if errors.Is(err, client.ErrUnavailable) {
		local, cerr := g.cache.List(ctx, patientID)
		if cerr != nil {
			return nil, false, errors.Join(err, cerr)
		}
		now := g.now()
		for _, c := range local {
			list = append(list, &pb.Grant{
				ID:        c.ID,
				PatientID: c.PatientID,
				ExpiresAt: c.ExpiresAt,
				CreatedAt: c.CreatedAt,
				Active:    c.Active(now),
			})
		}
		return list, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("list grants: %w", err)
	}
	return remote, false, nil
}

// TokenFrom accepts either a scanned sehati:grant payload or a bare token.
func TokenFrom(input string) (*qr.Payload, error) {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "sehati:") {
		return qr.Parse(input)
	}
	if input == "" {
		return nil, fmt.Errorf("%w: token is required", common.ErrValidation)
	}
	return &qr.Payload{Token: input}, nil
}

// Validate asks the server whether the grant is usable. When input is a
// full payload the key it carries must match the one the server holds.
func (g *GrantService) Validate(ctx context.Context, input string) (*ValidatedGrant, error) {
	p, err := TokenFrom(input)
	if err != nil {
		return nil, err
	}

	key, patientID, err := g.client.ValidateGrant(ctx, p.Token)
	if err != nil {
		return nil, fmt.Errorf("validate grant: %w", err)
	}

	v := &ValidatedGrant{Token: p.Token, PatientID: patientID}
	if len(p.Key) > 0 {
		serverKey, err := base64.StdEncoding.DecodeString(key)
		if err != nil || subtle.ConstantTimeCompare(serverKey, p.Key) != 1 {
			return nil, fmt.Errorf("%w: grant key does not match the scanned code", common.ErrUnauthorized)
		}
		v.KeyChecked = true
	}
	return v, nil
}
