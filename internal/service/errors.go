package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input rejected before any storage call.
	ErrValidation = errors.New("invalid mission")

	ErrEmptyTitle      = fmt.Errorf("%w: title is required", ErrValidation)
	ErrMissingDeadline = fmt.Errorf("%w: deadline is required", ErrValidation)
	ErrPastDeadline    = fmt.Errorf("%w: deadline cannot be earlier than today", ErrValidation)
)

var (
	// ErrStorage wraps every failure of the underlying database.
	ErrStorage = errors.New("mission storage failure")

	ErrMissionNotFound = errors.New("mission not found")
)

func storageError(err error) error {
	return fmt.Errorf("%w: %w", ErrStorage, err)
}
