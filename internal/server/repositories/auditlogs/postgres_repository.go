package auditlogs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"

	"github.com/sehati-health/sehati/internal/common"
	"github.com/sehati-health/sehati/internal/dbx"
	"github.com/sehati-health/sehati/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const auditColumns = `id, seq, actor_id, target_id, action, entity_type, metadata, tx_hash, idempotency_key, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanAudit(s scanner) (*models.AuditLog, error) {
	e := &models.AuditLog{}
	var key sql.NullString
	var action, entity string
	if err := s.Scan(&e.ID, &e.Seq, &e.ActorID, &e.TargetID, &action, &entity,
		&e.Metadata, &e.TxHash, &key, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Action = models.AuditAction(action)
	e.EntityType = models.EntityType(entity)
	e.IdempotencyKey = key.String
	return e, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, entry *models.AuditLog) (*models.AuditLog, error) {
	if entry.IdempotencyKey == "" {
		query := `
			INSERT INTO audit_logs (actor_id, target_id, action, entity_type, metadata, tx_hash)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, seq, created_at
		`
		err := r.db.QueryRowContext(ctx, query,
			entry.ActorID, entry.TargetID, string(entry.Action), string(entry.EntityType), entry.Metadata, entry.TxHash,
		).Scan(&entry.ID, &entry.Seq, &entry.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		return entry, nil
	}

	query := `
		INSERT INTO audit_logs (actor_id, target_id, action, entity_type, metadata, tx_hash, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING id, seq, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		entry.ActorID, entry.TargetID, string(entry.Action), string(entry.EntityType), entry.Metadata, entry.TxHash, entry.IdempotencyKey,
	).Scan(&entry.ID, &entry.Seq, &entry.CreatedAt)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("db error: %w", err)
	}

	existing, err := scanAudit(r.db.QueryRowContext(ctx,
		`SELECT `+auditColumns+` FROM audit_logs WHERE idempotency_key = $1`, entry.IdempotencyKey))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return existing, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.AuditLog, error) {
	e, err := scanAudit(r.db.QueryRowContext(ctx, `SELECT `+auditColumns+` FROM audit_logs WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) ListFor(ctx context.Context, id string) iter.Seq2[*models.AuditLog, error] {
	return func(yield func(*models.AuditLog, error) bool) {
		query := `
			SELECT ` + auditColumns + `
			FROM audit_logs
			WHERE actor_id::text = $1 OR target_id = $1
			ORDER BY seq ASC
		`
		rows, err := r.db.QueryContext(ctx, query, id)
		if err != nil {
			yield(nil, fmt.Errorf("db error: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			e, err := scanAudit(rows)
			if err != nil {
				yield(nil, fmt.Errorf("db error: %w", err))
				return
			}
			if !yield(e, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("db error: %w", err))
		}
	}
}
