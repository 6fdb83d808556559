package service

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Every service method reports failures as one of these. Callers branch with
// errors.Is and never see raw store errors.
var (
	ErrValidation           = errors.New("validation failed")
	ErrNotFound             = errors.New("user not found")
	ErrConflict             = errors.New("email or nickname already taken")
	ErrInvalidToken         = errors.New("invalid verification token")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrStore                = errors.New("store unavailable")
	ErrUnsupportedEmailType = errors.New("unsupported email type")
)

func validationErr(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

// storeErr converts a gorm error into one of the service errors. Anything
// unexpected is logged here so callers don't have to.
func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	}

	// Sentinels produced inside a transaction pass through untouched
	for _, e := range []error{ErrValidation, ErrNotFound, ErrConflict, ErrInvalidToken} {
		if errors.Is(err, e) {
			return err
		}
	}

	zap.L().Error("Store operation failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}
