package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"

	"fleet/internal/domain"
	"fleet/internal/repository"
)

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
//
// Route, expenses, and rating are stored as JSONB documents; earnings are
// flattened into columns so the summary aggregation can run in SQL.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

const tripColumns = `
	id, booking_id, driver_id, status, start_time, end_time,
	start_odometer, end_odometer, distance,
	route, expenses, rating,
	earnings_base, earnings_bonuses, earnings_deductions, earnings_total,
	notes, created_at
`

// Create persists a new trip. The unique index on booking_id guarantees
// at most one trip per booking; a violation maps to ErrDuplicateTrip.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (` + tripColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	route, expenses, rating, err := marshalTripDocs(trip)
	if err != nil {
		return err
	}

	_, err = r.q.ExecContext(ctx, query,
		trip.ID,
		trip.BookingID,
		trip.DriverID,
		trip.Status,
		nullTime(trip.StartTime),
		nullTime(trip.EndTime),
		trip.StartOdometer,
		trip.EndOdometer,
		trip.Distance,
		route,
		expenses,
		rating,
		trip.Earnings.BaseAmount,
		trip.Earnings.Bonuses,
		trip.Earnings.Deductions,
		trip.Earnings.TotalAmount,
		trip.Notes,
		trip.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return repository.ErrDuplicateTrip
		}
		return err
	}
	return nil
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return trip, nil
}

// GetByBookingID retrieves the trip for a booking. Returns nil, nil if
// no trip exists.
func (r *TripRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE booking_id = $1`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, bookingID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return trip, nil
}

// Update updates an existing trip. BookingID and DriverID are immutable
// and deliberately absent from the SET list.
func (r *TripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	query := `
		UPDATE trips
		SET status = $1, start_time = $2, end_time = $3,
		    start_odometer = $4, end_odometer = $5, distance = $6,
		    route = $7, expenses = $8, rating = $9,
		    earnings_base = $10, earnings_bonuses = $11,
		    earnings_deductions = $12, earnings_total = $13,
		    notes = $14
		WHERE id = $15
	`

	route, expenses, rating, err := marshalTripDocs(trip)
	if err != nil {
		return err
	}

	result, err := r.q.ExecContext(ctx, query,
		trip.Status,
		nullTime(trip.StartTime),
		nullTime(trip.EndTime),
		trip.StartOdometer,
		trip.EndOdometer,
		trip.Distance,
		route,
		expenses,
		rating,
		trip.Earnings.BaseAmount,
		trip.Earnings.Bonuses,
		trip.Earnings.Deductions,
		trip.Earnings.TotalAmount,
		trip.Notes,
		trip.ID,
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

// GetAll retrieves trips, optionally filtered by status.
func (r *TripRepository) GetAll(ctx context.Context, status domain.TripStatus) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC LIMIT 200`

	return r.queryTrips(ctx, query, args...)
}

// GetByDriverID retrieves a driver's trips, newest start time first.
func (r *TripRepository) GetByDriverID(ctx context.Context, driverID string) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips
		WHERE driver_id = $1 ORDER BY start_time DESC NULLS LAST`
	return r.queryTrips(ctx, query, driverID)
}

// CancelActiveByVehicleID cancels all scheduled or in-progress trips whose
// booking references the given vehicle. Part of the vehicle-delete cascade.
func (r *TripRepository) CancelActiveByVehicleID(ctx context.Context, vehicleID string, at time.Time) (int64, error) {
	query := `
		UPDATE trips
		SET status = $1, end_time = $2
		WHERE booking_id IN (SELECT id FROM bookings WHERE vehicle_id = $3)
		  AND status IN ($4, $5)
	`

	result, err := r.q.ExecContext(ctx, query,
		domain.TripStatusCancelled,
		at,
		vehicleID,
		domain.TripStatusScheduled,
		domain.TripStatusInProgress,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Summary returns counts by status plus completed revenue, preferring the
// booking's total amount over the trip's earnings total.
func (r *TripRepository) Summary(ctx context.Context) (*domain.TripSummary, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE t.status = 'scheduled'),
			COUNT(*) FILTER (WHERE t.status = 'in_progress'),
			COUNT(*) FILTER (WHERE t.status = 'completed'),
			COUNT(*) FILTER (WHERE t.status = 'cancelled'),
			COALESCE(SUM(
				CASE WHEN t.status = 'completed' THEN
					CASE WHEN b.total_amount > 0 THEN b.total_amount ELSE t.earnings_total END
				ELSE 0 END
			), 0)
		FROM trips t
		LEFT JOIN bookings b ON b.id = t.booking_id
	`

	var s domain.TripSummary
	err := r.q.QueryRowContext(ctx, query).Scan(
		&s.TotalTrips,
		&s.ScheduledTrips,
		&s.InProgressTrips,
		&s.CompletedTrips,
		&s.CancelledTrips,
		&s.TotalRevenue,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *TripRepository) queryTrips(ctx context.Context, query string, args ...any) ([]*domain.Trip, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}

func marshalTripDocs(trip *domain.Trip) (route, expenses, rating []byte, err error) {
	if route, err = json.Marshal(trip.Route); err != nil {
		return nil, nil, nil, err
	}
	if expenses, err = json.Marshal(trip.Expenses); err != nil {
		return nil, nil, nil, err
	}
	if rating, err = json.Marshal(trip.Rating); err != nil {
		return nil, nil, nil, err
	}
	return route, expenses, rating, nil
}

func scanTrip(row rowScanner) (*domain.Trip, error) {
	var trip domain.Trip
	var startTime, endTime sql.NullTime
	var route, expenses, rating []byte

	err := row.Scan(
		&trip.ID,
		&trip.BookingID,
		&trip.DriverID,
		&trip.Status,
		&startTime,
		&endTime,
		&trip.StartOdometer,
		&trip.EndOdometer,
		&trip.Distance,
		&route,
		&expenses,
		&rating,
		&trip.Earnings.BaseAmount,
		&trip.Earnings.Bonuses,
		&trip.Earnings.Deductions,
		&trip.Earnings.TotalAmount,
		&trip.Notes,
		&trip.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if startTime.Valid {
		trip.StartTime = startTime.Time
	}
	if endTime.Valid {
		trip.EndTime = endTime.Time
	}
	if err := json.Unmarshal(route, &trip.Route); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(expenses, &trip.Expenses); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(rating, &trip.Rating); err != nil {
		return nil, err
	}
	return &trip, nil
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
