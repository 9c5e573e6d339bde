// Package refreshtokens persists rotating refresh tokens.
package refreshtokens

import (
	"context"
	"time"

	"github.com/sehati-health/sehati/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, userID string, token string, expiresAt time.Time) error

	// Consume deletes the token and returns what it was bound to, so a token
	// can be exchanged at most once. Unknown tokens yield common.ErrorNotFound.
	Consume(ctx context.Context, token string) (*models.RefreshToken, error)

	// DeleteByUser drops every refresh token of userID (logout).
	DeleteByUser(ctx context.Context, userID string) error
}
