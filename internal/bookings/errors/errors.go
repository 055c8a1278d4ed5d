package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrStatusChanged = errors.New("booking status changed concurrently")

	ErrLockHeld = errors.New("accommodation is locked by another request")

	ErrPartialUpdate = errors.New("batch update modified fewer bookings than matched")
)
