package services

import (
	"context"
	"fmt"
	"time"

	"github.com/hengadev/errsx"
	"github.com/sehati-health/sehati/internal/common"
	"github.com/sehati-health/sehati/internal/dbx"
	"github.com/sehati-health/sehati/internal/logging"
	"github.com/sehati-health/sehati/internal/server/metrics"
	"github.com/sehati-health/sehati/internal/server/models"
	"github.com/sehati-health/sehati/internal/server/repositories/repomanager"
)

// GrantService issues, validates and revokes QR access grants. A grant is a
// bearer capability: whoever holds a usable token gets its key.
type GrantService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	audit       *AuditService
	log         logging.Logger
	metrics     *metrics.Collector

	now      func() time.Time
	newToken func() (string, error)
	maxTTL   time.Duration
}

type GrantOption func(*GrantService)

// WithClock replaces time.Now; expiry is always judged against this clock.
func WithClock(now func() time.Time) GrantOption {
	return func(s *GrantService) { s.now = now }
}

// WithMaxTTL caps the lifetime a patient may request. Zero means no cap.
func WithMaxTTL(d time.Duration) GrantOption {
	return func(s *GrantService) { s.maxTTL = d }
}

func NewGrantService(tx dbx.Transactor, m repomanager.RepositoryManager, audit *AuditService,
	log logging.Logger, mc *metrics.Collector, opts ...GrantOption) *GrantService {
	s := &GrantService{
		tx:          tx,
		repomanager: m,
		audit:       audit,
		log:         log.With("module", "grants"),
		metrics:     mc,
		now:         time.Now,
		newToken: func() (string, error) {
			return common.MakeRandHexString(common.TokenBytes)
		},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// GrantStatus pairs a stored grant with its effective state at read time.
type GrantStatus struct {
	Grant  *models.AccessGrant
	Active bool
}

// CreateGrant stores a new active grant expiring at now+ttl and its
// AccessGranted audit row in one transaction.
func (s *GrantService) CreateGrant(ctx context.Context, patientID, encryptionKey string, ttl time.Duration) (*models.AccessGrant, error) {
	var errs errsx.Map
	if patientID == "" {
		errs.Set("patient_id", "is required")
	}
	if encryptionKey == "" {
		errs.Set("encryption_key", "is required")
	}
	if ttl <= 0 {
		errs.Set("ttl", "must be positive")
	} else if s.maxTTL > 0 && ttl > s.maxTTL {
		errs.Set("ttl", fmt.Sprintf("must not exceed %s", s.maxTTL))
	}
	if !errs.IsEmpty() {
		s.metrics.RecordGrant("create", "invalid")
		return nil, fmt.Errorf("%w: %w", common.ErrValidation, errs.AsError())
	}

	token, err := s.newToken()
	if err != nil {
		return nil, fmt.Errorf("%w: token generation: %v", common.ErrorInternal, err)
	}

	grant := &models.AccessGrant{
		PatientID:     patientID,
		Token:         token,
		EncryptionKey: encryptionKey,
		ExpiresAt:     s.now().Add(ttl),
	}

	err = s.tx.WithTx(ctx, dbx.ReadCommitted, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repomanager.Grants(tx).Create(ctx, grant)
		if err != nil {
			return err
		}
		grant = created

		_, err = s.audit.AppendTx(ctx, tx, AuditEntry{
			ActorID:    patientID,
			TargetID:   patientID,
			Action:     models.ActionAccessGranted,
			EntityType: models.EntityAccess,
			Metadata: auditMetadata(map[string]any{
				"grantId":   grant.ID,
				"expiresAt": grant.ExpiresAt.UTC().Format(time.RFC3339),
			}),
		})
		return err
	})
	if err != nil {
		s.metrics.RecordGrant("create", "error")
		s.log.Error(ctx, "grant create failed", "patient_id", patientID, "error", err)
		return nil, persistence(err)
	}

	s.metrics.RecordGrant("create", "ok")
	s.log.Info(ctx, "grant created", "patient_id", patientID, "token", common.Fingerprint(token), "expires_at", grant.ExpiresAt)
	return grant, nil
}

// ValidateGrant returns the grant's key and patient if the token is usable
// right now. It is a single committed read, so a revoke that has committed
// is always observed.
func (s *GrantService) ValidateGrant(ctx context.Context, token string) (encryptionKey, patientID string, err error) {
	g, err := s.usableGrant(ctx, token)
	if err != nil {
		return "", "", err
	}
	return g.EncryptionKey, g.PatientID, nil
}

func (s *GrantService) usableGrant(ctx context.Context, token string) (*models.AccessGrant, error) {
	if token == "" {
		s.metrics.RecordGrant("validate", "not_found")
		return nil, common.ErrGrantNotFound
	}

	g, err := s.repomanager.Grants(s.tx.DB()).FindByToken(ctx, token)
	if err != nil {
		if errorsIsNotFound(err) {
			s.metrics.RecordGrant("validate", "not_found")
			return nil, common.ErrGrantNotFound
		}
		s.metrics.RecordGrant("validate", "error")
		return nil, fmt.Errorf("%w: %v", common.ErrPersistenceFailure, err)
	}

	if !g.Usable(s.now()) {
		s.metrics.RecordGrant("validate", "expired")
		s.log.Info(ctx, "grant rejected", "token", common.Fingerprint(token), "is_active", g.IsActive)
		return nil, common.ErrGrantExpired
	}

	s.metrics.RecordGrant("validate", "ok")
	return g, nil
}

// RevokeGrant deactivates the grant if patientID issued it. Revoking an
// already inactive grant succeeds and is audited again.
func (s *GrantService) RevokeGrant(ctx context.Context, patientID, token string) error {
	err := s.tx.WithTx(ctx, dbx.ReadCommitted, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Grants(tx)

		g, err := repo.FindByTokenForUpdate(ctx, token)
		if err != nil {
			if errorsIsNotFound(err) {
				return common.ErrGrantNotFound
			}
			return err
		}
		if g.PatientID != patientID {
			return common.ErrUnauthorized
		}

		if err := repo.Deactivate(ctx, g.ID); err != nil {
			return err
		}

		_, err = s.audit.AppendTx(ctx, tx, AuditEntry{
			ActorID:    patientID,
			TargetID:   patientID,
			Action:     models.ActionAccessRevoked,
			EntityType: models.EntityAccess,
			Metadata:   auditMetadata(map[string]any{"grantId": g.ID}),
		})
		return err
	})
	if err != nil {
		s.metrics.RecordGrant("revoke", "error")
		s.log.Warn(ctx, "grant revoke failed", "patient_id", patientID, "token", common.Fingerprint(token), "error", err)
		return persistence(err)
	}

	s.metrics.RecordGrant("revoke", "ok")
	s.log.Info(ctx, "grant revoked", "patient_id", patientID, "token", common.Fingerprint(token))
	return nil
}

// ListGrants returns patientID's grants newest first with their effective
// state.
func (s *GrantService) ListGrants(ctx context.Context, patientID string) ([]GrantStatus, error) {
	grants, err := s.repomanager.Grants(s.tx.DB()).ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrPersistenceFailure, err)
	}

	now := s.now()
	out := make([]GrantStatus, 0, len(grants))
	for _, g := range grants {
		out = append(out, GrantStatus{Grant: g, Active: g.Usable(now)})
	}
	return out, nil
}
