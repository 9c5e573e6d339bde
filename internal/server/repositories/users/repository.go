// Package users declares and implements persistence of wallet identities.
package users

import (
	"context"

	"github.com/sehati-health/sehati/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills in ID and CreatedAt. A duplicate wallet
	// address yields common.ErrAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByWallet(ctx context.Context, walletAddress string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
