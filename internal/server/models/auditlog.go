package models

import (
	"fmt"
	"time"

	"github.com/sehati-health/sehati/internal/common"
)

// AuditAction is the closed taxonomy of audited events. New actions are added
// here; they are never inferred from free text.
type AuditAction string

const (
	ActionRecordAdded    AuditAction = "RecordAdded"
	ActionAccessGranted  AuditAction = "AccessGranted"
	ActionAccessRevoked  AuditAction = "AccessRevoked"
	ActionRecordViewed   AuditAction = "RecordViewed"
	ActionUserRegistered AuditAction = "UserRegistered"
)

// EntityType names what an audit row is about.
type EntityType string

const (
	EntityRecord EntityType = "record"
	EntityAccess EntityType = "access"
	EntityUser   EntityType = "user"
)

// ParseAuditAction maps a stored or transmitted string back to the taxonomy.
func ParseAuditAction(s string) (AuditAction, error) {
	switch a := AuditAction(s); a {
	case ActionRecordAdded, ActionAccessGranted, ActionAccessRevoked, ActionRecordViewed, ActionUserRegistered:
		return a, nil
	default:
		return "", fmt.Errorf("%w: unknown audit action %q", common.ErrValidation, s)
	}
}

// ParseEntityType maps a string to an EntityType.
func ParseEntityType(s string) (EntityType, error) {
	switch e := EntityType(s); e {
	case EntityRecord, EntityAccess, EntityUser:
		return e, nil
	default:
		return "", fmt.Errorf("%w: unknown entity type %q", common.ErrValidation, s)
	}
}

// AuditLog is one immutable row of the audit ledger. Seq is assigned by the
// database and orders rows in insertion order.
type AuditLog struct {
	ID             string
	Seq            int64
	ActorID        string
	TargetID       string
	Action         AuditAction
	EntityType     EntityType
	Metadata       string
	TxHash         string
	IdempotencyKey string
	CreatedAt      time.Time
}
