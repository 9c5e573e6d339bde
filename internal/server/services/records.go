package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hengadev/errsx"
	"github.com/sehati-health/sehati/internal/common"
	"github.com/sehati-health/sehati/internal/cryptox"
	"github.com/sehati-health/sehati/internal/dbx"
	"github.com/sehati-health/sehati/internal/logging"
	"github.com/sehati-health/sehati/internal/server/metrics"
	"github.com/sehati-health/sehati/internal/server/models"
	"github.com/sehati-health/sehati/internal/server/repositories/repomanager"
)

// AttachmentStore issues short-lived upload and download URLs for
// encrypted attachments.
type AttachmentStore interface {
	NewKey(patientID string) string
	PresignPut(ctx context.Context, key string) (string, error)
	PresignGet(ctx context.Context, key string) (string, error)
}

// RecordService writes and reads medical records under a grant. Content is
// sealed with a key derived from the grant's key material and the patient,
// and the record ID is bound in as associated data.
type RecordService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	grants      *GrantService
	audit       *AuditService
	blobs       AttachmentStore
	log         logging.Logger
	metrics     *metrics.Collector
	newID       func() string
}

// NewRecordService builds the service; blobs may be nil when attachments
// are not configured.
func NewRecordService(tx dbx.Transactor, m repomanager.RepositoryManager, grants *GrantService, audit *AuditService,
	blobs AttachmentStore, log logging.Logger, mc *metrics.Collector) *RecordService {
	return &RecordService{
		tx:          tx,
		repomanager: m,
		grants:      grants,
		audit:       audit,
		blobs:       blobs,
		log:         log.With("module", "records"),
		metrics:     mc,
		newID:       uuid.NewString,
	}
}

type NewRecord struct {
	DoctorID       string
	Hospital       string
	RecordType     string
	Title          string
	Content        []byte
	TxHash         string
	WithAttachment bool
}

type AddedRecord struct {
	Record *models.MedicalRecord
	// UploadURL is set when an attachment was requested.
	UploadURL string
}

type ViewedRecord struct {
	Record        *models.MedicalRecord
	Content       []byte
	AttachmentURL string
}

// AddRecord encrypts and stores a record for the patient behind token and
// audits RecordAdded in the same transaction.
func (s *RecordService) AddRecord(ctx context.Context, token string, in NewRecord) (*AddedRecord, error) {
	var errs errsx.Map
	if in.DoctorID == "" {
		errs.Set("doctor_id", "is required")
	}
	if in.Title == "" {
		errs.Set("title", "is required")
	}
	if len(in.Content) == 0 {
		errs.Set("content", "is required")
	}
	if err := models.ValidateRecordType(in.RecordType); err != nil {
		errs.Set("record_type", err)
	}
	if in.WithAttachment && s.blobs == nil {
		errs.Set("attachment", "attachments are not enabled on this server")
	}
	if !errs.IsEmpty() {
		return nil, fmt.Errorf("%w: %w", common.ErrValidation, errs.AsError())
	}

	grant, err := s.grants.usableGrant(ctx, token)
	if err != nil {
		return nil, err
	}

	key, err := cryptox.DeriveRecordKey([]byte(grant.EncryptionKey), grant.PatientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	defer common.WipeByteArray(key)

	rec := &models.MedicalRecord{
		ID:          s.newID(),
		PatientID:   grant.PatientID,
		DoctorID:    in.DoctorID,
		Hospital:    in.Hospital,
		RecordType:  in.RecordType,
		Title:       in.Title,
		ContentHash: cryptox.ContentHash(in.Content),
		TxHash:      in.TxHash,
	}
	rec.EncryptedContent, rec.Nonce, err = cryptox.Seal(key, in.Content, []byte(rec.ID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	out := &AddedRecord{}
	if in.WithAttachment {
		rec.AttachmentKey = s.blobs.NewKey(rec.PatientID)
		if out.UploadURL, err = s.blobs.PresignPut(ctx, rec.AttachmentKey); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
		}
	}

	err = s.tx.WithTx(ctx, dbx.ReadCommitted, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repomanager.Records(tx).Create(ctx, rec)
		if err != nil {
			return err
		}
		rec = created

		_, err = s.audit.AppendTx(ctx, tx, AuditEntry{
			ActorID:    in.DoctorID,
			TargetID:   rec.PatientID,
			Action:     models.ActionRecordAdded,
			EntityType: models.EntityRecord,
			Metadata:   auditMetadata(map[string]any{"recordId": rec.ID, "recordType": rec.RecordType}),
			TxHash:     rec.TxHash,
		})
		return err
	})
	if err != nil {
		s.log.Error(ctx, "record add failed", "patient_id", grant.PatientID, "doctor_id", in.DoctorID, "error", err)
		return nil, persistence(err)
	}

	s.metrics.RecordRecords("add", 1)
	s.log.Info(ctx, "record added", "record_id", rec.ID, "patient_id", rec.PatientID, "doctor_id", rec.DoctorID)
	out.Record = rec
	return out, nil
}

// ViewRecords decrypts the patient's records named by recordIDs (all of
// them when empty) and audits one RecordViewed row per record before
// returning anything.
func (s *RecordService) ViewRecords(ctx context.Context, viewerID, token string, recordIDs []string) ([]*ViewedRecord, error) {
	var errs errsx.Map
	if viewerID == "" {
		errs.Set("viewer_id", "is required")
	}
	for _, id := range recordIDs {
		if _, err := uuid.Parse(id); err != nil {
			errs.Set("record_ids", fmt.Sprintf("%q is not a record id", id))
			break
		}
	}
	if !errs.IsEmpty() {
		return nil, fmt.Errorf("%w: %w", common.ErrValidation, errs.AsError())
	}

	grant, err := s.grants.usableGrant(ctx, token)
	if err != nil {
		return nil, err
	}

	recs, err := s.repomanager.Records(s.tx.DB()).ListByPatient(ctx, grant.PatientID, recordIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrPersistenceFailure, err)
	}

	key, err := cryptox.DeriveRecordKey([]byte(grant.EncryptionKey), grant.PatientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	defer common.WipeByteArray(key)

	out := make([]*ViewedRecord, 0, len(recs))
	for _, rec := range recs {
		plain, err := cryptox.Open(key, rec.EncryptedContent, rec.Nonce, []byte(rec.ID))
		if err != nil {
			if errors.Is(err, cryptox.ErrDecrypt) {
				s.log.Warn(ctx, "record does not open under grant", "record_id", rec.ID, "token", common.Fingerprint(token))
				return nil, fmt.Errorf("%w: record %s was sealed under a different key", common.ErrUnauthorized, rec.ID)
			}
			return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
		}

		v := &ViewedRecord{Record: rec, Content: plain}
		if rec.AttachmentKey != "" && s.blobs != nil {
			if v.AttachmentURL, err = s.blobs.PresignGet(ctx, rec.AttachmentKey); err != nil {
				return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
			}
		}
		out = append(out, v)
	}

	if len(out) > 0 {
		err = s.tx.WithTx(ctx, dbx.ReadCommitted, func(ctx context.Context, tx dbx.DBTX) error {
			for _, v := range out {
				if _, err := s.audit.AppendTx(ctx, tx, AuditEntry{
					ActorID:    viewerID,
					TargetID:   grant.PatientID,
					Action:     models.ActionRecordViewed,
					EntityType: models.EntityRecord,
					Metadata:   auditMetadata(map[string]any{"recordId": v.Record.ID}),
				}); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			for _, v := range out {
				common.WipeByteArray(v.Content)
			}
			return nil, persistence(err)
		}
	}

	s.metrics.RecordRecords("view", len(out))
	s.log.Info(ctx, "records viewed", "viewer_id", viewerID, "patient_id", grant.PatientID, "count", len(out))
	return out, nil
}
