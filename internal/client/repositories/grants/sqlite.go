package grants

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sehati-health/sehati/internal/client/models"
	"github.com/sehati-health/sehati/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Save upserts by id. A revoked flag already set locally is kept.
func (r *SQLiteRepository) Save(ctx context.Context, g *models.IssuedGrant) error {
	query := `INSERT INTO issued_grants (id, token, patient_id, expires_at, created_at, revoked)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				expires_at = excluded.expires_at,
				revoked = MAX(issued_grants.revoked, excluded.revoked)
	`
	_, err := r.db.ExecContext(ctx, query,
		g.ID, g.Token, g.PatientID, formatTime(g.ExpiresAt), formatTime(g.CreatedAt), g.Revoked)
	if err != nil {
		return fmt.Errorf("failed to save grant: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context, patientID string) ([]*models.IssuedGrant, error) {
	query := `SELECT id, token, patient_id, expires_at, created_at, revoked
			FROM issued_grants WHERE patient_id = ? ORDER BY created_at DESC, id`
	rows, err := r.db.QueryContext(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to select grants: %w", err)
	}
	defer rows.Close()

	var result []*models.IssuedGrant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.IssuedGrant, error) {
	query := `SELECT id, token, patient_id, expires_at, created_at, revoked
			FROM issued_grants WHERE id = ?`
	g, err := scanGrant(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return g, err
}

func (r *SQLiteRepository) MarkRevoked(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE issued_grants SET revoked = 1 WHERE token = ?`, token); err != nil {
		return fmt.Errorf("failed to mark grant revoked: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGrant(s scanner) (*models.IssuedGrant, error) {
	var (
		g                models.IssuedGrant
		expires, created string
	)
	if err := s.Scan(&g.ID, &g.Token, &g.PatientID, &expires, &created, &g.Revoked); err != nil {
		return nil, err
	}

	var err error
	if g.ExpiresAt, err = time.Parse(time.RFC3339Nano, expires); err != nil {
		return nil, fmt.Errorf("bad expires_at %q: %w", expires, err)
	}
	if g.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("bad created_at %q: %w", created, err)
	}
	return &g, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
