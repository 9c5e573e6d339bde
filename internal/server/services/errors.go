package services

import (
	"errors"
	"fmt"

	"github.com/sehati-health/sehati/internal/common"
)

func errorsIsNotFound(err error) bool {
	return errors.Is(err, common.ErrorNotFound)
}

// persistence classifies err from a unit of work: domain errors pass
// through, anything else becomes common.ErrPersistenceFailure.
func persistence(err error) error {
	for _, known := range []error{
		common.ErrValidation,
		common.ErrGrantNotFound,
		common.ErrGrantExpired,
		common.ErrUnauthorized,
		common.ErrAlreadyExists,
		common.ErrPersistenceFailure,
		common.ErrInvalidToken,
		common.ErrRefreshTokenExpired,
		common.ErrorNotFound,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", common.ErrPersistenceFailure, err)
}
