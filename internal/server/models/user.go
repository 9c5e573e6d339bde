// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a wallet identity. WalletAddress is the sole authentication anchor.
type User struct {
	ID            string
	WalletAddress string
	DisplayName   string
	Role          string
	DateOfBirth   *time.Time
	Gender        string
	Phone         string
	Hospital      string
	// PublicKey is the hex-encoded ed25519 key used to verify wallet logins.
	PublicKey  string
	IsVerified bool
	CreatedAt  time.Time
}
