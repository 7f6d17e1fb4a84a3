package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist
	// (or is soft-deleted and therefore invisible).
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicateTrip is returned when a trip insert violates the
	// unique constraint on the booking reference. This is the storage
	// guarantee behind at-most-one-trip-per-booking.
	ErrDuplicateTrip = errors.New("trip already exists for booking")

	// ErrDuplicateEmail is returned when a user insert violates the
	// unique constraint on email.
	ErrDuplicateEmail = errors.New("email already registered")
)
