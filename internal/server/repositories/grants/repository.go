// Package grants persists QR access grants.
package grants

import (
	"context"

	"github.com/sehati-health/sehati/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, grant *models.AccessGrant) (*models.AccessGrant, error)
	FindByToken(ctx context.Context, token string) (*models.AccessGrant, error)
	// FindByTokenForUpdate locks the row until the surrounding transaction ends.
	FindByTokenForUpdate(ctx context.Context, token string) (*models.AccessGrant, error)
	Deactivate(ctx context.Context, id string) error
	// ListByPatient returns grants newest first.
	ListByPatient(ctx context.Context, patientID string) ([]*models.AccessGrant, error)
}
