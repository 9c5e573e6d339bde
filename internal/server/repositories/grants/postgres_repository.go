package grants

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sehati-health/sehati/internal/common"
	"github.com/sehati-health/sehati/internal/dbx"
	"github.com/sehati-health/sehati/internal/server/models"
	"github.com/sehati-health/sehati/internal/server/repositories/pgerr"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const grantColumns = `id, patient_id, token, encryption_key, expires_at, is_active, created_at`

func (r *PostgresRepository) Create(ctx context.Context, grant *models.AccessGrant) (*models.AccessGrant, error) {
	query := `
		INSERT INTO access_grants (patient_id, token, encryption_key, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_active, created_at
	`
	err := r.db.QueryRowContext(ctx, query, grant.PatientID, grant.Token, grant.EncryptionKey, grant.ExpiresAt).
		Scan(&grant.ID, &grant.IsActive, &grant.CreatedAt)
	if err != nil {
		if pgerr.IsUniqueViolation(err, "") {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return grant, nil
}

func (r *PostgresRepository) FindByToken(ctx context.Context, token string) (*models.AccessGrant, error) {
	query := `SELECT ` + grantColumns + ` FROM access_grants WHERE token = $1`
	return r.findOne(ctx, query, token)
}

func (r *PostgresRepository) FindByTokenForUpdate(ctx context.Context, token string) (*models.AccessGrant, error) {
	query := `SELECT ` + grantColumns + ` FROM access_grants WHERE token = $1 FOR UPDATE`
	return r.findOne(ctx, query, token)
}

func (r *PostgresRepository) findOne(ctx context.Context, query, token string) (*models.AccessGrant, error) {
	g := &models.AccessGrant{}
	err := r.db.QueryRowContext(ctx, query, token).
		Scan(&g.ID, &g.PatientID, &g.Token, &g.EncryptionKey, &g.ExpiresAt, &g.IsActive, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return g, nil
}

func (r *PostgresRepository) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE access_grants SET is_active = FALSE WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) ListByPatient(ctx context.Context, patientID string) ([]*models.AccessGrant, error) {
	query := `
		SELECT ` + grantColumns + `
		FROM access_grants
		WHERE patient_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.AccessGrant
	for rows.Next() {
		g := &models.AccessGrant{}
		if err := rows.Scan(&g.ID, &g.PatientID, &g.Token, &g.EncryptionKey, &g.ExpiresAt, &g.IsActive, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
