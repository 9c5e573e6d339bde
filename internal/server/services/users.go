package services

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/hengadev/errsx"
	"github.com/sehati-health/sehati/internal/common"
	"github.com/sehati-health/sehati/internal/dbx"
	"github.com/sehati-health/sehati/internal/logging"
	"github.com/sehati-health/sehati/internal/server/auth"
	"github.com/sehati-health/sehati/internal/server/config"
	"github.com/sehati-health/sehati/internal/server/models"
	"github.com/sehati-health/sehati/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a single-use refresh
// token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Registration is the profile a wallet registers with.
type Registration struct {
	WalletAddress string
	DisplayName   string
	Role          string
	DateOfBirth   *time.Time
	Gender        string
	Phone         string
	Hospital      string
	// PublicKey is the hex ed25519 key login signatures are checked against.
	PublicKey string
}

// UserService registers wallet identities and mints session tokens.
type UserService struct {
	tx                           dbx.Transactor
	repomanager                  repomanager.RepositoryManager
	audit                        *AuditService
	log                          logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	now                          func() time.Time
}

func NewUserService(tx dbx.Transactor, m repomanager.RepositoryManager, audit *AuditService, log logging.Logger, cfg *config.Config) *UserService {
	return &UserService{
		tx:                           tx,
		repomanager:                  m,
		audit:                        audit,
		log:                          log.With("module", "users"),
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		now:                          time.Now,
	}
}

// Register creates the user and its UserRegistered audit row together. A
// wallet can register once.
func (s *UserService) Register(ctx context.Context, r Registration) (*models.User, error) {
	if err := validateRegistration(r); err != nil {
		return nil, err
	}

	user := &models.User{
		WalletAddress: r.WalletAddress,
		DisplayName:   r.DisplayName,
		Role:          r.Role,
		DateOfBirth:   r.DateOfBirth,
		Gender:        r.Gender,
		Phone:         r.Phone,
		Hospital:      r.Hospital,
		PublicKey:     r.PublicKey,
	}

	err := s.tx.WithTx(ctx, nil, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repomanager.Users(tx).Create(ctx, user)
		if err != nil {
			return err
		}
		user = created

		_, err = s.audit.AppendTx(ctx, tx, AuditEntry{
			ActorID:    user.ID,
			TargetID:   user.ID,
			Action:     models.ActionUserRegistered,
			EntityType: models.EntityUser,
			Metadata:   auditMetadata(map[string]any{"role": user.Role}),
		})
		return err
	})
	if err != nil {
		return nil, persistence(err)
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Login verifies a wallet signature over auth.LoginMessage and returns a new
// token pair. Unknown wallets and bad signatures are indistinguishable.
func (s *UserService) Login(ctx context.Context, walletAddress string, signedAt int64, signatureHex string) (*TokenPair, error) {
	user, err := s.repomanager.Users(s.tx.DB()).GetByWallet(ctx, walletAddress)
	if err != nil {
		if errorsIsNotFound(err) {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("%w: %v", common.ErrPersistenceFailure, err)
	}

	if err := auth.VerifyLogin(user.PublicKey, walletAddress, signedAt, signatureHex, s.now()); err != nil {
		s.log.Warn(ctx, "login rejected", "user_id", user.ID, "error", err)
		return nil, common.ErrUnauthorized
	}

	return s.generateTokenPair(ctx, s.tx.DB(), user)
}

// RefreshToken exchanges a refresh token for a new pair. The old token is
// consumed in the same transaction that stores the new one.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var pair *TokenPair
	err := s.tx.WithTx(ctx, nil, func(ctx context.Context, tx dbx.DBTX) error {
		rt, err := s.repomanager.RefreshTokens(tx).Consume(ctx, refreshToken)
		if err != nil {
			if errorsIsNotFound(err) {
				return common.ErrInvalidToken
			}
			return err
		}
		if rt.Expired(s.now()) {
			return common.ErrRefreshTokenExpired
		}

		user, err := s.repomanager.Users(tx).GetByID(ctx, rt.UserID)
		if err != nil {
			return err
		}

		pair, err = s.generateTokenPair(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, persistence(err)
	}
	return pair, nil
}

// Logout drops every refresh token of userID. Access tokens already issued
// stay valid until they expire.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	if err := s.repomanager.RefreshTokens(s.tx.DB()).DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("%w: %v", common.ErrPersistenceFailure, err)
	}
	return nil
}

func (s *UserService) generateTokenPair(ctx context.Context, db dbx.DBTX, user *models.User) (*TokenPair, error) {
	access, err := auth.GenerateToken(user.ID, user.Role, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := common.MakeRandHexString(common.TokenBytes)
	if err != nil {
		return nil, common.ErrorInternal
	}
	expires := s.now().Add(s.refreshTokenValidityDuration)
	if err := s.repomanager.RefreshTokens(db).Create(ctx, user.ID, refresh, expires); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrPersistenceFailure, err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func validateRegistration(r Registration) error {
	var errs errsx.Map
	if r.WalletAddress == "" {
		errs.Set("wallet_address", "is required")
	}
	if r.DisplayName == "" {
		errs.Set("display_name", "is required")
	}
	if r.Role != common.RolePatient && r.Role != common.RoleDoctor {
		errs.Set("role", fmt.Sprintf("must be %q or %q", common.RolePatient, common.RoleDoctor))
	}
	if pk, err := hex.DecodeString(r.PublicKey); err != nil || len(pk) != ed25519.PublicKeySize {
		errs.Set("public_key", "must be a hex ed25519 public key")
	}
	if r.DateOfBirth != nil && r.DateOfBirth.After(time.Now()) {
		errs.Set("date_of_birth", "is in the future")
	}
	if !errs.IsEmpty() {
		return fmt.Errorf("%w: %w", common.ErrValidation, errs.AsError())
	}
	return nil
}
