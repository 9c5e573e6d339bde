package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sehati-health/sehati/internal/client/client"
	"github.com/sehati-health/sehati/internal/client/session"
	"github.com/sehati-health/sehati/internal/logging"
	pb "github.com/sehati-health/sehati/internal/proto"
	"github.com/sehati-health/sehati/internal/server/auth"
)

// Profile is what a wallet registers with besides its key.
type Profile struct {
	DisplayName string
	Role        string
	DateOfBirth string
	Gender      string
	Phone       string
	Hospital    string
}

// AuthService handles registration, wallet login and the persisted session.
type AuthService struct {
	client   client.Client
	sessions *session.Store
	logger   logging.Logger
	now      func() time.Time
}

func NewAuthService(c client.Client, sessions *session.Store, l logging.Logger) *AuthService {
	return &AuthService{client: c, sessions: sessions, logger: l.With("module", "auth"), now: time.Now}
}

// Register announces w to the server. The caller stores the wallet seed in
// a keystore first so a failed call never loses the key.
func (a *AuthService) Register(ctx context.Context, w *Wallet, p Profile) (string, error) {
	req := &pb.RegisterRequest{
		WalletAddress: w.Address,
		DisplayName:   p.DisplayName,
		Role:          p.Role,
		DateOfBirth:   p.DateOfBirth,
		Gender:        p.Gender,
		Phone:         p.Phone,
		Hospital:      p.Hospital,
		PublicKey:     w.PublicKeyHex(),
	}
	id, err := a.client.Register(ctx, req)
	if err != nil {
		return "", fmt.Errorf("register: %w", err)
	}
	return id, nil
}

// Login signs the challenge with w, saves the issued session and returns it.
func (a *AuthService) Login(ctx context.Context, w *Wallet) (*session.Session, error) {
	ts := a.now().Unix()
	if err := a.client.Login(ctx, w.Address, ts, w.SignLogin(ts)); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	access, refresh := a.client.Tokens()
	claims, err := auth.PeekClaims(access)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	s := &session.Session{
		WalletAddress: w.Address,
		UserID:        claims.UserID,
		Role:          claims.Role,
		AccessToken:   access,
		RefreshToken:  refresh,
	}
	if err := a.sessions.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	a.watchRefresh()

	a.logger.Info(ctx, "logged in", "wallet", w.Address, "role", claims.Role)
	return s, nil
}

// Restore resumes the session saved by an earlier run, if any.
func (a *AuthService) Restore(ctx context.Context) (*session.Session, error) {
	s, err := a.sessions.Load(ctx)
	if err != nil {
		return nil, err
	}
	a.client.SetTokens(s.AccessToken, s.RefreshToken)
	a.watchRefresh()
	return s, nil
}

func (a *AuthService) watchRefresh() {
	a.client.OnTokenRefresh(func(access, refresh string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.sessions.UpdateTokens(ctx, access, refresh); err != nil {
			a.logger.Warn(ctx, "could not persist refreshed tokens", "error", err)
		}
	})
}

// Logout revokes the server session and always forgets the local one.
func (a *AuthService) Logout(ctx context.Context) error {
	remoteErr := a.client.Logout(ctx)
	if err := a.sessions.Reset(ctx); err != nil {
		return errors.Join(remoteErr, err)
	}
	if remoteErr != nil && !errors.Is(remoteErr, client.ErrUnavailable) {
		return remoteErr
	}
	return nil
}

func (a *AuthService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

func (a *AuthService) Close() error {
	return a.client.Close()
}
