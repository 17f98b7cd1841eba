package services

import (
	"errors"
	"fmt"

	"restaurant_pos_backend/internal/repositories"
)

// Service-level errors. Handlers map these onto HTTP responses.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrConflict           = errors.New("record was modified by someone else")
	ErrOrderClosed        = errors.New("order is already closed")
	ErrForbidden          = errors.New("operation not allowed for this user")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameExists     = errors.New("username already exists")
)

var (
	ErrOrderNotFound         = fmt.Errorf("order %w", ErrNotFound)
	ErrTableNotFound         = fmt.Errorf("table %w", ErrNotFound)
	ErrTableMapNotFound      = fmt.Errorf("table map %w", ErrNotFound)
	ErrInventoryItemNotFound = fmt.Errorf("inventory item %w", ErrNotFound)
	ErrUserNotFound          = fmt.Errorf("user %w", ErrNotFound)
)

func validationErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// storeError translates repository failures. notFound replaces
// repositories.ErrNotFound when non-nil.
func storeError(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case notFound != nil && errors.Is(err, repositories.ErrNotFound):
		return notFound
	case errors.Is(err, repositories.ErrVersionConflict):
		return ErrConflict
	case errors.Is(err, repositories.ErrDatabaseError):
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	default:
		return err
	}
}
