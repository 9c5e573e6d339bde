package grpc

import (
	"errors"

	"github.com/sehati-health/sehati/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var errorCodes = []struct {
	kind error
	code codes.Code
}{
	{common.ErrValidation, codes.InvalidArgument},
	{common.ErrGrantNotFound, codes.NotFound},
	{common.ErrorNotFound, codes.NotFound},
	{common.ErrGrantExpired, codes.FailedPrecondition},
	{common.ErrBiometricVerificationFailed, codes.FailedPrecondition},
	{common.ErrUnauthorized, codes.PermissionDenied},
	{common.ErrAlreadyExists, codes.AlreadyExists},
	{common.ErrInvalidToken, codes.Unauthenticated},
	{common.ErrTokenExpired, codes.Unauthenticated},
	{common.ErrRefreshTokenExpired, codes.Unauthenticated},
	{common.ErrPersistenceFailure, codes.Unavailable},
}

// toStatus converts a service error to a status carrying only the stable
// user message.
func toStatus(err error) error {
	code := codes.Internal
	for _, e := range errorCodes {
		if errors.Is(err, e.kind) {
			code = e.code
			break
		}
	}
	return status.Error(code, common.UserMessage(err))
}
