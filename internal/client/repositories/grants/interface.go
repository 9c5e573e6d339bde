package grants

import (
	"context"
	"errors"

	"github.com/sehati-health/sehati/internal/client/models"
)

var ErrNotFound = errors.New("grant not found in local cache")

// Repository describes the operations on locally cached grants.
type Repository interface {
	// Save inserts g or refreshes an existing row with the same id.
	Save(ctx context.Context, g *models.IssuedGrant) error

	// List returns all cached grants for patientID, newest first.
	List(ctx context.Context, patientID string) ([]*models.IssuedGrant, error)

	// GetByID returns ErrNotFound when id is unknown.
	GetByID(ctx context.Context, id string) (*models.IssuedGrant, error)

	// MarkRevoked flags the grant with token as revoked. Unknown tokens are
	// not an error; the grant may have been issued from another device.
	MarkRevoked(ctx context.Context, token string) error
}
