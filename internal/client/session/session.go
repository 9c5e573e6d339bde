// Package session persists the logged-in wallet between CLI runs.
//
// A Session lives in the "session" namespace of the local metadata table.
// It is written as a whole inside one transaction and wiped with Reset on
// logout, so a half-written session is never observed.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sehati-health/sehati/internal/client/repositories/metadata"
	"github.com/sehati-health/sehati/internal/dbx"
)

const namespace = "session"

var ErrNoSession = errors.New("not logged in")

const (
	keyWallet  = "wallet_address"
	keyUserID  = "user_id"
	keyRole    = "role"
	keyAccess  = "access_token"
	keyRefresh = "refresh_token"
)

type Session struct {
	WalletAddress string
	UserID        string
	Role          string
	AccessToken   string
	RefreshToken  string
}

func (s *Session) LoggedIn() bool {
	return s != nil && s.WalletAddress != "" && s.RefreshToken != ""
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) repo(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db, namespace)
}

// Load returns the saved session or ErrNoSession.
func (s *Store) Load(ctx context.Context) (*Session, error) {
	values, err := s.repo(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	sess := &Session{
		WalletAddress: string(values[keyWallet]),
		UserID:        string(values[keyUserID]),
		Role:          string(values[keyRole]),
		AccessToken:   string(values[keyAccess]),
		RefreshToken:  string(values[keyRefresh]),
	}
	if !sess.LoggedIn() {
		return nil, ErrNoSession
	}
	return sess, nil
}

func (s *Store) Save(ctx context.Context, sess *Session) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := s.repo(tx)
		if err := r.Clear(ctx); err != nil {
			return err
		}
		for k, v := range map[string]string{
			keyWallet:  sess.WalletAddress,
			keyUserID:  sess.UserID,
			keyRole:    sess.Role,
			keyAccess:  sess.AccessToken,
			keyRefresh: sess.RefreshToken,
		} {
			if v == "" {
				continue
			}
			if err := r.Set(ctx, k, []byte(v)); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateTokens replaces the token pair of the saved session. Used after a
// transparent refresh.
func (s *Store) UpdateTokens(ctx context.Context, access, refresh string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := s.repo(tx)
		if err := r.Set(ctx, keyAccess, []byte(access)); err != nil {
			return err
		}
		return r.Set(ctx, keyRefresh, []byte(refresh))
	})
}

// Reset forgets the session.
func (s *Store) Reset(ctx context.Context) error {
	return s.repo(s.db).Clear(ctx)
}
