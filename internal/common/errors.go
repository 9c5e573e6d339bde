package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Access-grant and audit taxonomy.
	ErrValidation                  = errors.New("validation error")
	ErrGrantNotFound               = errors.New("grant not found")
	ErrGrantExpired                = errors.New("grant expired")
	ErrUnauthorized                = errors.New("unauthorized")
	ErrBiometricVerificationFailed = errors.New("biometric verification failed")
	ErrPersistenceFailure          = errors.New("persistence failure")

	// Identity errors.
	ErrAlreadyExists = errors.New("already exists")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
