package repository

import (
	"context"

	"fleet/internal/domain"
)

// VehicleFilter narrows a vehicle listing. Zero-valued fields are
// ignored; nil pointers mean "no constraint".
type VehicleFilter struct {
	Status       domain.VehicleStatus
	Availability *bool
	MinRate      *float64
	MaxRate      *float64
}

// VehicleRepository defines the persistence operations for vehicles.
// All reads exclude soft-deleted rows.
type VehicleRepository interface {
	// Create persists a new vehicle.
	Create(ctx context.Context, vehicle *domain.Vehicle) error

	// GetByID retrieves a vehicle by ID.
	GetByID(ctx context.Context, id string) (*domain.Vehicle, error)

	// GetAll retrieves vehicles matching the filter.
	GetAll(ctx context.Context, filter VehicleFilter) ([]*domain.Vehicle, error)

	// Update updates an existing vehicle.
	Update(ctx context.Context, vehicle *domain.Vehicle) error

	// SoftDelete marks a vehicle deleted. Returns ErrNotFound if the
	// vehicle does not exist or is already deleted.
	SoftDelete(ctx context.Context, id string) error
}
