package common

import "errors"

// userMessages maps every error kind to text that is safe to show an end user.
// Order matters: the first kind matched by errors.Is wins.
var userMessages = []struct {
	kind error
	msg  string
}{
	{ErrValidation, "The request is invalid. Please check the entered values."},
	{ErrGrantNotFound, "This access code is not recognised."},
	{ErrGrantExpired, "This access code has expired or was revoked."},
	{ErrUnauthorized, "You are not allowed to perform this action."},
	{ErrBiometricVerificationFailed, "Biometric verification failed. Please import your key manually."},
	{ErrPersistenceFailure, "The action could not be saved. Please try again."},
	{ErrAlreadyExists, "This wallet is already registered."},
	{ErrorNotFound, "The requested item was not found."},
	{ErrInvalidToken, "Your session is invalid. Please log in again."},
	{ErrTokenExpired, "Your session has expired. Please log in again."},
	{ErrRefreshTokenExpired, "Your session has expired. Please log in again."},
}

const genericMessage = "Something went wrong. Please try again later."

// UserMessage returns a stable, user-displayable message for err. Internal
// error text never leaks through it.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, m := range userMessages {
		if errors.Is(err, m.kind) {
			return m.msg
		}
	}
	return genericMessage
}
