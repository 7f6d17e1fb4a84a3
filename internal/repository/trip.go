package repository

import (
	"context"
	"time"

	"fleet/internal/domain"
)

// TripRepository defines the persistence operations for trips.
type TripRepository interface {
	// Create persists a new trip. Returns ErrDuplicateTrip if a trip
	// already exists for the same booking.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// GetByBookingID retrieves the trip for a booking.
	// Returns nil, nil if no trip exists.
	GetByBookingID(ctx context.Context, bookingID string) (*domain.Trip, error)

	// Update updates an existing trip.
	Update(ctx context.Context, trip *domain.Trip) error

	// GetAll retrieves trips, optionally filtered by status, newest first.
	GetAll(ctx context.Context, status domain.TripStatus) ([]*domain.Trip, error)

	// GetByDriverID retrieves a driver's trips, newest start time first.
	GetByDriverID(ctx context.Context, driverID string) ([]*domain.Trip, error)

	// CancelActiveByVehicleID cancels all scheduled or in-progress trips
	// whose booking references the given vehicle, stamping endTime.
	// Returns the number of trips cancelled.
	CancelActiveByVehicleID(ctx context.Context, vehicleID string, at time.Time) (int64, error)

	// Summary returns counts by status and completed revenue. Revenue
	// prefers the booking's total amount and falls back to the trip's
	// earnings total.
	Summary(ctx context.Context) (*domain.TripSummary, error)
}
