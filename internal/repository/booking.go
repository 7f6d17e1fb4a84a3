package repository

import (
	"context"
	"time"

	"fleet/internal/domain"
)

// BookingRepository defines the persistence operations for bookings.
// All reads exclude soft-deleted rows.
type BookingRepository interface {
	// Create persists a new booking.
	Create(ctx context.Context, booking *domain.Booking) error

	// GetByID retrieves a booking by ID.
	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// Update updates an existing booking.
	Update(ctx context.Context, booking *domain.Booking) error

	// GetAll retrieves bookings, optionally filtered by status.
	GetAll(ctx context.Context, status domain.BookingStatus) ([]*domain.Booking, error)

	// GetByCustomerID retrieves a customer's bookings, newest first.
	GetByCustomerID(ctx context.Context, customerID string) ([]*domain.Booking, error)

	// GetByDriverID retrieves a driver's assigned bookings, ordered by
	// scheduled start.
	GetByDriverID(ctx context.Context, driverID string) ([]*domain.Booking, error)

	// GetByVehicleOwnerID retrieves bookings for all vehicles owned by
	// the given user, newest first.
	GetByVehicleOwnerID(ctx context.Context, ownerID string) ([]*domain.Booking, error)

	// CancelActiveByVehicleID cancels all bookings of a vehicle that are
	// pending, confirmed, or in progress. Returns the number of bookings
	// cancelled. Used by the vehicle-delete cascade.
	CancelActiveByVehicleID(ctx context.Context, vehicleID, reason string, at time.Time) (int64, error)
}
