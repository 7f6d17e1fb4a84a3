package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fleet/internal/domain"
	"fleet/internal/repository"
)

// VehicleRepository is a PostgreSQL implementation of repository.VehicleRepository.
type VehicleRepository struct {
	q Querier
}

// NewVehicleRepository creates a new PostgreSQL vehicle repository.
func NewVehicleRepository(db *sql.DB) *VehicleRepository {
	return &VehicleRepository{q: db}
}

// NewVehicleRepositoryWithTx creates a vehicle repository using a transaction.
func NewVehicleRepositoryWithTx(tx *sql.Tx) *VehicleRepository {
	return &VehicleRepository{q: tx}
}

const vehicleColumns = `
	id, owner_id, make, model, year, license_plate,
	base_rate, rate_type, currency, availability, status, created_at
`

// Create persists a new vehicle.
func (r *VehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	query := `
		INSERT INTO vehicles (` + vehicleColumns + `, is_deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, FALSE)
	`

	_, err := r.q.ExecContext(ctx, query,
		vehicle.ID,
		vehicle.OwnerID,
		vehicle.Make,
		vehicle.Model,
		vehicle.Year,
		vehicle.LicensePlate,
		vehicle.BaseRate,
		vehicle.RateType,
		vehicle.Currency,
		vehicle.Availability,
		vehicle.Status,
		vehicle.CreatedAt,
	)
	return err
}

// GetByID retrieves a vehicle by ID.
func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1 AND ` + notDeleted

	var vehicle domain.Vehicle
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&vehicle.ID,
		&vehicle.OwnerID,
		&vehicle.Make,
		&vehicle.Model,
		&vehicle.Year,
		&vehicle.LicensePlate,
		&vehicle.BaseRate,
		&vehicle.RateType,
		&vehicle.Currency,
		&vehicle.Availability,
		&vehicle.Status,
		&vehicle.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &vehicle, nil
}

// GetAll retrieves vehicles matching the filter.
func (r *VehicleRepository) GetAll(ctx context.Context, filter repository.VehicleFilter) ([]*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE ` + notDeleted
	args := []any{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if filter.Availability != nil {
		args = append(args, *filter.Availability)
		query += fmt.Sprintf(` AND availability = $%d`, len(args))
	}
	if filter.MinRate != nil {
		args = append(args, *filter.MinRate)
		query += fmt.Sprintf(` AND base_rate >= $%d`, len(args))
	}
	if filter.MaxRate != nil {
		args = append(args, *filter.MaxRate)
		query += fmt.Sprintf(` AND base_rate <= $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC LIMIT 200`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []*domain.Vehicle
	for rows.Next() {
		var vehicle domain.Vehicle
		if err := rows.Scan(
			&vehicle.ID,
			&vehicle.OwnerID,
			&vehicle.Make,
			&vehicle.Model,
			&vehicle.Year,
			&vehicle.LicensePlate,
			&vehicle.BaseRate,
			&vehicle.RateType,
			&vehicle.Currency,
			&vehicle.Availability,
			&vehicle.Status,
			&vehicle.CreatedAt,
		); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, &vehicle)
	}
	return vehicles, rows.Err()
}

// Update updates an existing vehicle.
func (r *VehicleRepository) Update(ctx context.Context, vehicle *domain.Vehicle) error {
	query := `
		UPDATE vehicles
		SET make = $1, model = $2, year = $3, license_plate = $4,
		    base_rate = $5, rate_type = $6, currency = $7,
		    availability = $8, status = $9
		WHERE id = $10 AND ` + notDeleted

	result, err := r.q.ExecContext(ctx, query,
		vehicle.Make,
		vehicle.Model,
		vehicle.Year,
		vehicle.LicensePlate,
		vehicle.BaseRate,
		vehicle.RateType,
		vehicle.Currency,
		vehicle.Availability,
		vehicle.Status,
		vehicle.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SoftDelete marks a vehicle deleted. A second delete of the same vehicle
// returns ErrNotFound.
func (r *VehicleRepository) SoftDelete(ctx context.Context, id string) error {
	query := `UPDATE vehicles SET is_deleted = TRUE WHERE id = $1 AND ` + notDeleted

	result, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Ensure VehicleRepository implements repository.VehicleRepository.
var _ repository.VehicleRepository = (*VehicleRepository)(nil)
