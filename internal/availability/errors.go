package availability

import "errors"

var (
	ErrInvalidWindow = errors.New("check-in must be before check-out")

	ErrCheckInPast = errors.New("check-in cannot be in the past")

	ErrNegativeCapacity = errors.New("capacity cannot be negative")

	ErrUnknownOverlapRule = errors.New("unknown overlap rule")
)
