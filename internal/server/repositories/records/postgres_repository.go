package records

import (
	"context"
	"fmt"
	"strings"

	"github.com/sehati-health/sehati/internal/dbx"
	"github.com/sehati-health/sehati/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, rec *models.MedicalRecord) (*models.MedicalRecord, error) {
	query := `
		INSERT INTO medical_records (id, patient_id, doctor_id, hospital, record_type, title,
			encrypted_content, nonce, content_hash, tx_hash, attachment_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		rec.ID, rec.PatientID, rec.DoctorID, rec.Hospital, rec.RecordType, rec.Title,
		rec.EncryptedContent, rec.Nonce, rec.ContentHash, rec.TxHash, rec.AttachmentKey,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}
	return rec, nil
}

func (r *PostgresRepository) ListByPatient(ctx context.Context, patientID string, ids []string) ([]*models.MedicalRecord, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT id, patient_id, doctor_id, hospital, record_type, title,
			encrypted_content, nonce, content_hash, tx_hash, attachment_key, created_at
		FROM medical_records
		WHERE patient_id = $1`)

	args := []any{patientID}
	if len(ids) > 0 {
		sb.WriteString(` AND id IN (`)
		for i, id := range ids {
			if i > 0 {
				sb.WriteString(", ")
			}
			args = append(args, id)
			fmt.Fprintf(&sb, "$%d", len(args))
		}
		sb.WriteString(`)`)
	}
	sb.WriteString(` ORDER BY created_at, id`)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.MedicalRecord
	for rows.Next() {
		rec := &models.MedicalRecord{}
		if err := rows.Scan(&rec.ID, &rec.PatientID, &rec.DoctorID, &rec.Hospital, &rec.RecordType, &rec.Title,
			&rec.EncryptedContent, &rec.Nonce, &rec.ContentHash, &rec.TxHash, &rec.AttachmentKey, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
