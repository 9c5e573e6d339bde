// Package auditlogs persists the append-only audit ledger. The repository
// exposes no update or delete, and the schema rejects both.
package auditlogs

import (
	"context"
	"iter"

	"github.com/sehati-health/sehati/internal/server/models"
)

type Repository interface {
	// Insert writes entry and fills in ID, Seq and CreatedAt. If entry has an
	// IdempotencyKey that was already used, the existing row is returned and
	// nothing is written.
	Insert(ctx context.Context, entry *models.AuditLog) (*models.AuditLog, error)
	Get(ctx context.Context, id string) (*models.AuditLog, error)
	// ListFor yields rows whose actor or target is id, in seq order. The
	// query runs when iteration starts.
	ListFor(ctx context.Context, id string) iter.Seq2[*models.AuditLog, error]
}
