// Package models defines client-side data models kept in the local database.
package models

import "time"

// IssuedGrant is a grant this device created. The server never lists
// tokens again after creation, so the local copy is what lets a patient
// revoke by id or review grants while offline.
type IssuedGrant struct {
	ID        string
	Token     string
	PatientID string
	ExpiresAt time.Time
	CreatedAt time.Time
	Revoked   bool
}

// Active reports whether the grant is still usable at now.
func (g *IssuedGrant) Active(now time.Time) bool {
	return !g.Revoked && now.Before(g.ExpiresAt)
}
