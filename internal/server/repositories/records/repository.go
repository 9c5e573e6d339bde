// Package records persists encrypted medical records. There is no update
// or delete path.
package records

import (
	"context"

	"github.com/sehati-health/sehati/internal/server/models"
)

type Repository interface {
	// Create inserts record under its caller-assigned ID and fills in CreatedAt.
	Create(ctx context.Context, record *models.MedicalRecord) (*models.MedicalRecord, error)
	// ListByPatient returns the patient's records oldest first. When ids is
	// non-empty only those records are returned; ids belonging to another
	// patient are silently excluded.
	ListByPatient(ctx context.Context, patientID string, ids []string) ([]*models.MedicalRecord, error)
}
