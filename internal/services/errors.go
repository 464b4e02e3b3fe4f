package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Common service errors
var (
	ErrNotFound          = errors.New("record not found")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflicting state")
	ErrInvalidState      = errors.New("invalid status transition")
	ErrDuplicate         = errors.New("duplicate record")
	ErrInsufficientFunds = errors.New("insufficient savings balance")
	ErrNoRecipients      = errors.New("no recipients matched")
)

// notFound maps gorm's missing-row error to ErrNotFound for the named entity
func notFound(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %w", entity, ErrNotFound)
	}
	return err
}

// invalid builds a validation error with a human readable reason
func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
