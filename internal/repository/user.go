package repository

import (
	"context"

	"fleet/internal/domain"
)

// UserRepository defines the persistence operations for users and the
// driver eligibility index.
type UserRepository interface {
	// Create persists a new user. Returns ErrDuplicateEmail if the
	// email is taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// RegisterDriverVehicle records that a driver has self-registered to
	// a vehicle. Idempotent.
	RegisterDriverVehicle(ctx context.Context, driverID, vehicleID string) error

	// IsDriverRegistered reports whether the driver is registered to the
	// vehicle.
	IsDriverRegistered(ctx context.Context, driverID, vehicleID string) (bool, error)
}
