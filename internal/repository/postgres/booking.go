package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"fleet/internal/domain"
	"fleet/internal/repository"
)

// BookingRepository is a PostgreSQL implementation of repository.BookingRepository.
type BookingRepository struct {
	q Querier
}

// NewBookingRepository creates a new PostgreSQL booking repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{q: db}
}

// NewBookingRepositoryWithTx creates a booking repository using a transaction.
func NewBookingRepositoryWithTx(tx *sql.Tx) *BookingRepository {
	return &BookingRepository{q: tx}
}

const bookingColumns = `
	id, customer_id, vehicle_id, driver_id, trip_id,
	scheduled_start, scheduled_end,
	pickup_lng, pickup_lat, pickup_address,
	dropoff_lng, dropoff_lat, dropoff_address,
	base_amount, taxes, fees, total_amount, currency,
	payment_method, payment_status,
	status, customer_notes, cancel_reason, cancelled_by, cancelled_at, created_at
`

// Create persists a new booking.
func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `, is_deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, FALSE)
	`

	_, err := r.q.ExecContext(ctx, query,
		booking.ID,
		booking.CustomerID,
		booking.VehicleID,
		nullString(booking.DriverID),
		nullString(booking.TripID),
		booking.ScheduledStart,
		booking.ScheduledEnd,
		booking.PickupLocation.Lng,
		booking.PickupLocation.Lat,
		booking.PickupLocation.Address,
		booking.DropoffLocation.Lng,
		booking.DropoffLocation.Lat,
		booking.DropoffLocation.Address,
		booking.Pricing.BaseAmount,
		booking.Pricing.Taxes,
		booking.Pricing.Fees,
		booking.Pricing.TotalAmount,
		booking.Pricing.Currency,
		booking.Payment.Method,
		booking.Payment.Status,
		booking.Status,
		booking.CustomerNotes,
		nullString(booking.CancelReason),
		nullString(booking.CancelledBy),
		nullTime(booking.CancelledAt),
		booking.CreatedAt,
	)

	return err
}

// GetByID retrieves a booking by ID.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 AND ` + notDeleted

	booking, err := scanBooking(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return booking, nil
}

// Update updates an existing booking.
func (r *BookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	query := `
		UPDATE bookings
		SET driver_id = $1, trip_id = $2, status = $3,
		    payment_method = $4, payment_status = $5,
		    cancel_reason = $6, cancelled_by = $7, cancelled_at = $8
		WHERE id = $9 AND ` + notDeleted

	result, err := r.q.ExecContext(ctx, query,
		nullString(booking.DriverID),
		nullString(booking.TripID),
		booking.Status,
		booking.Payment.Method,
		booking.Payment.Status,
		nullString(booking.CancelReason),
		nullString(booking.CancelledBy),
		nullTime(booking.CancelledAt),
		booking.ID,
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

// GetAll retrieves bookings, optionally filtered by status.
func (r *BookingRepository) GetAll(ctx context.Context, status domain.BookingStatus) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE ` + notDeleted
	args := []any{}
	if status != "" {
		query += ` AND status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC LIMIT 200`

	return r.queryBookings(ctx, query, args...)
}

// GetByCustomerID retrieves a customer's bookings, newest first.
func (r *BookingRepository) GetByCustomerID(ctx context.Context, customerID string) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE customer_id = $1 AND ` + notDeleted + ` ORDER BY created_at DESC`
	return r.queryBookings(ctx, query, customerID)
}

// GetByDriverID retrieves a driver's assigned bookings, ordered by scheduled start.
func (r *BookingRepository) GetByDriverID(ctx context.Context, driverID string) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE driver_id = $1 AND ` + notDeleted + ` ORDER BY scheduled_start ASC`
	return r.queryBookings(ctx, query, driverID)
}

// GetByVehicleOwnerID retrieves bookings for all vehicles owned by the given user.
func (r *BookingRepository) GetByVehicleOwnerID(ctx context.Context, ownerID string) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE vehicle_id IN (SELECT id FROM vehicles WHERE owner_id = $1)
		  AND ` + notDeleted + `
		ORDER BY created_at DESC`
	return r.queryBookings(ctx, query, ownerID)
}

// CancelActiveByVehicleID cancels all pending, confirmed, or in-progress
// bookings of a vehicle. Part of the vehicle-delete cascade.
func (r *BookingRepository) CancelActiveByVehicleID(ctx context.Context, vehicleID, reason string, at time.Time) (int64, error) {
	query := `
		UPDATE bookings
		SET status = $1, cancel_reason = $2, cancelled_at = $3
		WHERE vehicle_id = $4
		  AND status IN ($5, $6, $7)
		  AND ` + notDeleted

	result, err := r.q.ExecContext(ctx, query,
		domain.BookingStatusCancelled,
		reason,
		at,
		vehicleID,
		domain.BookingStatusPending,
		domain.BookingStatusConfirmed,
		domain.BookingStatusInProgress,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *BookingRepository) queryBookings(ctx context.Context, query string, args ...any) ([]*domain.Booking, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var booking domain.Booking
	var driverID, tripID, cancelReason, cancelledBy sql.NullString
	var cancelledAt sql.NullTime

	err := row.Scan(
		&booking.ID,
		&booking.CustomerID,
		&booking.VehicleID,
		&driverID,
		&tripID,
		&booking.ScheduledStart,
		&booking.ScheduledEnd,
		&booking.PickupLocation.Lng,
		&booking.PickupLocation.Lat,
		&booking.PickupLocation.Address,
		&booking.DropoffLocation.Lng,
		&booking.DropoffLocation.Lat,
		&booking.DropoffLocation.Address,
		&booking.Pricing.BaseAmount,
		&booking.Pricing.Taxes,
		&booking.Pricing.Fees,
		&booking.Pricing.TotalAmount,
		&booking.Pricing.Currency,
		&booking.Payment.Method,
		&booking.Payment.Status,
		&booking.Status,
		&booking.CustomerNotes,
		&cancelReason,
		&cancelledBy,
		&cancelledAt,
		&booking.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.DriverID = driverID.String
	booking.TripID = tripID.String
	booking.CancelReason = cancelReason.String
	booking.CancelledBy = cancelledBy.String
	if cancelledAt.Valid {
		booking.CancelledAt = cancelledAt.Time
	}
	return &booking, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

// Ensure BookingRepository implements repository.BookingRepository.
var _ repository.BookingRepository = (*BookingRepository)(nil)
