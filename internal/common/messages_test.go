package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserMessage_KnownKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"validation", fmt.Errorf("%w: ttl must be positive", ErrValidation), "The request is invalid. Please check the entered values."},
		{"not found", ErrGrantNotFound, "This access code is not recognised."},
		{"expired", ErrGrantExpired, "This access code has expired or was revoked."},
		{"unauthorized", ErrUnauthorized, "You are not allowed to perform this action."},
		{"biometric", ErrBiometricVerificationFailed, "Biometric verification failed. Please import your key manually."},
		{"persistence", fmt.Errorf("%w: pq: connection refused", ErrPersistenceFailure), "The action could not be saved. Please try again."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

func TestUserMessage_UnknownErrorDoesNotLeak(t *testing.T) {
	msg := UserMessage(errors.New("pq: relation \"users\" does not exist"))
	assert.Equal(t, genericMessage, msg)
	assert.NotContains(t, msg, "pq")
}

func TestUserMessage_Nil(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
}
