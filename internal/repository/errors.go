package repository

import (
	"errors"
	"fmt"

	apperrors "github.com/welldanyogia/brochure-contact-backend/internal/errors"
	"gorm.io/gorm"
)

// Common repository errors
var (
	ErrNotFound     = apperrors.ErrNotFound
	ErrInvalidInput = apperrors.ErrInvalidInput
)

// storageError classifies a driver failure as a storage fault while keeping
// the driver error in the chain for logging.
func storageError(op string, err error) error {
	return fmt.Errorf("failed to %s: %w: %w", op, apperrors.ErrStorageUnavailable, err)
}

// lookupError maps gorm's not-found error to ErrNotFound and anything else to a storage fault
func lookupError(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return storageError(op, err)
}
