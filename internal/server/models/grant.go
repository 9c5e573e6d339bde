package models

import "time"

// AccessGrant is a bearer capability scoping one encryption key of one patient.
type AccessGrant struct {
	ID            string
	PatientID     string
	Token         string
	EncryptionKey string
	ExpiresAt     time.Time
	IsActive      bool
	CreatedAt     time.Time
}

// Usable reports the effective state: the stored flag is not enough, an
// expired grant is inactive regardless of IsActive.
func (g *AccessGrant) Usable(now time.Time) bool {
	return g.IsActive && now.Before(g.ExpiresAt)
}
