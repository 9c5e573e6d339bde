package models

import (
	"fmt"
	"time"

	"github.com/sehati-health/sehati/internal/common"
)

// Record types a doctor may author.
const (
	RecordTypeLabResult    = "lab_result"
	RecordTypeDiagnosis    = "diagnosis"
	RecordTypePrescription = "prescription"
)

// MedicalRecord is owned by PatientID and authored by DoctorID. Rows are
// append-only: there is no update path.
type MedicalRecord struct {
	ID               string
	PatientID        string
	DoctorID         string
	Hospital         string
	RecordType       string
	Title            string
	EncryptedContent []byte
	Nonce            []byte
	// ContentHash and TxHash are stored verbatim for external anchoring.
	ContentHash string
	TxHash      string
	// AttachmentKey is the object-storage key of an encrypted attachment, if any.
	AttachmentKey string
	CreatedAt     time.Time
}

// ValidateRecordType rejects anything outside the closed set of record types.
func ValidateRecordType(t string) error {
	switch t {
	case RecordTypeLabResult, RecordTypeDiagnosis, RecordTypePrescription:
		return nil
	default:
		return fmt.Errorf("%w: unknown record type %q", common.ErrValidation, t)
	}
}
