package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"fleet/internal/domain"
	"fleet/internal/repository"
)

// UserRepository is a PostgreSQL implementation of repository.UserRepository.
// The driver eligibility index lives in the driver_vehicles join table.
type UserRepository struct {
	q Querier
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{q: db}
}

// Create persists a new user.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, role, created_at, is_deleted)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
	`

	_, err := r.q.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return repository.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// GetByID retrieves a user by ID, including the driver eligibility list.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT id, name, email, password_hash, role, created_at
		FROM users WHERE id = $1 AND ` + notDeleted

	var user domain.User
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if user.Role == domain.RoleDriver {
		vehicleIDs, err := r.driverVehicles(ctx, id)
		if err != nil {
			return nil, err
		}
		user.DriverVehicleIDs = vehicleIDs
	}
	return &user, nil
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT id, name, email, password_hash, role, created_at
		FROM users WHERE email = $1 AND ` + notDeleted

	var user domain.User
	err := r.q.QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// RegisterDriverVehicle records that a driver has self-registered to a
// vehicle. Safe to repeat.
func (r *UserRepository) RegisterDriverVehicle(ctx context.Context, driverID, vehicleID string) error {
	query := `
		INSERT INTO driver_vehicles (driver_id, vehicle_id)
		VALUES ($1, $2)
		ON CONFLICT (driver_id, vehicle_id) DO NOTHING
	`
	_, err := r.q.ExecContext(ctx, query, driverID, vehicleID)
	return err
}

// IsDriverRegistered reports whether the driver is registered to the vehicle.
func (r *UserRepository) IsDriverRegistered(ctx context.Context, driverID, vehicleID string) (bool, error) {
	query := `SELECT EXISTS(
		SELECT 1 FROM driver_vehicles WHERE driver_id = $1 AND vehicle_id = $2
	)`

	var registered bool
	if err := r.q.QueryRowContext(ctx, query, driverID, vehicleID).Scan(&registered); err != nil {
		return false, err
	}
	return registered, nil
}

func (r *UserRepository) driverVehicles(ctx context.Context, driverID string) ([]string, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT vehicle_id FROM driver_vehicles WHERE driver_id = $1`, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Ensure UserRepository implements repository.UserRepository.
var _ repository.UserRepository = (*UserRepository)(nil)
