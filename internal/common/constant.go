// Package common contains shared constants and sentinel errors used across
// SEHATI components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the JWT access
// token on outbound requests.
const AccessTokenHeaderName = "access_token"

// Roles a wallet identity can register with.
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
)

// TokenBytes is the number of random bytes behind every opaque token
// (grant tokens and refresh tokens). Hex encoding doubles the length.
const TokenBytes = 32
