// Package services holds the server-side business logic: wallet identity,
// access grants, encrypted medical records and the audit ledger.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"

	"github.com/hengadev/errsx"
	"github.com/sehati-health/sehati/internal/common"
	"github.com/sehati-health/sehati/internal/dbx"
	"github.com/sehati-health/sehati/internal/logging"
	"github.com/sehati-health/sehati/internal/server/metrics"
	"github.com/sehati-health/sehati/internal/server/models"
	"github.com/sehati-health/sehati/internal/server/repositories/repomanager"
)

// AuditEntry is what callers supply; ID, Seq and CreatedAt are assigned on
// write.
type AuditEntry struct {
	ActorID        string
	TargetID       string
	Action         models.AuditAction
	EntityType     models.EntityType
	Metadata       string
	TxHash         string
	IdempotencyKey string
}

type AuditService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	log         logging.Logger
	metrics     *metrics.Collector
}

func NewAuditService(tx dbx.Transactor, m repomanager.RepositoryManager, log logging.Logger, mc *metrics.Collector) *AuditService {
	return &AuditService{
		tx:          tx,
		repomanager: m,
		log:         log.With("module", "audit"),
		metrics:     mc,
	}
}

// Append writes one row outside any caller transaction.
func (s *AuditService) Append(ctx context.Context, e AuditEntry) (*models.AuditLog, error) {
	return s.AppendTx(ctx, s.tx.DB(), e)
}

// AppendTx writes one row through db, which is normally the transaction that
// carries the audited change, so both commit or neither does. Failures are
// returned as common.ErrPersistenceFailure and must not be ignored.
func (s *AuditService) AppendTx(ctx context.Context, db dbx.DBTX, e AuditEntry) (*models.AuditLog, error) {
	if err := validateAuditEntry(e); err != nil {
		return nil, err
	}

	row, err := s.repomanager.AuditLogs(db).Insert(ctx, &models.AuditLog{
		ActorID:        e.ActorID,
		TargetID:       e.TargetID,
		Action:         e.Action,
		EntityType:     e.EntityType,
		Metadata:       e.Metadata,
		TxHash:         e.TxHash,
		IdempotencyKey: e.IdempotencyKey,
	})
	if err != nil {
		s.metrics.RecordAuditEvent(string(e.Action), false)
		s.log.Error(ctx, "audit append failed", "action", e.Action, "actor_id", e.ActorID, "error", err)
		return nil, fmt.Errorf("%w: audit append: %v", common.ErrPersistenceFailure, err)
	}

	s.metrics.RecordAuditEvent(string(e.Action), true)
	s.log.Debug(ctx, "audit appended", "action", row.Action, "seq", row.Seq, "actor_id", row.ActorID)
	return row, nil
}

// ListFor yields every row where id is the actor or the target, ordered by
// seq ascending, which is insertion order.
func (s *AuditService) ListFor(ctx context.Context, id string) iter.Seq2[*models.AuditLog, error] {
	return func(yield func(*models.AuditLog, error) bool) {
		if id == "" {
			yield(nil, fmt.Errorf("%w: id is required", common.ErrValidation))
			return
		}
		for row, err := range s.repomanager.AuditLogs(s.tx.DB()).ListFor(ctx, id) {
			if err != nil {
				yield(nil, fmt.Errorf("%w: %v", common.ErrPersistenceFailure, err))
				return
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

func (s *AuditService) Get(ctx context.Context, id string) (*models.AuditLog, error) {
	row, err := s.repomanager.AuditLogs(s.tx.DB()).Get(ctx, id)
	if err != nil {
		if errorsIsNotFound(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrPersistenceFailure, err)
	}
	return row, nil
}

func validateAuditEntry(e AuditEntry) error {
	var errs errsx.Map
	if e.ActorID == "" {
		errs.Set("actor_id", "is required")
	}
	if _, err := models.ParseAuditAction(string(e.Action)); err != nil {
		errs.Set("action", err)
	}
	if _, err := models.ParseEntityType(string(e.EntityType)); err != nil {
		errs.Set("entity_type", err)
	}
	if !errs.IsEmpty() {
		return fmt.Errorf("%w: %w", common.ErrValidation, errs.AsError())
	}
	return nil
}

// auditMetadata renders kv as the JSON stored in AuditLog.Metadata.
func auditMetadata(kv map[string]any) string {
	b, err := json.Marshal(kv)
	if err != nil {
		return ""
	}
	return string(b)
}
