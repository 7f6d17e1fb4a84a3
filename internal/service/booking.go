package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"fleet/internal/domain"
	"fleet/internal/redis"
	"fleet/internal/repository"
	"fleet/internal/repository/postgres"
)

// Share of the booking base amount the driver earns, and the platform's
// cut, used when the coordinator pre-populates trip earnings.
const (
	driverShare     = 0.7
	platformFeeRate = 0.1
	taxRate         = 0.10
	feeRate         = 0.05
)

// bookingLockTTL bounds how long a driver-assignment critical section can
// hold the per-booking lock.
const bookingLockTTL = 10 * time.Second

// BookingService owns the booking lifecycle state machine and the
// coordinator that creates a trip when a driver is assigned to a
// confirmed booking.
//
// When db is non-nil the coordinator's two writes (trip insert, booking
// update) run in one transaction. With a nil db the writes are
// sequential: a crash between them can leave a trip whose booking does
// not reference it back; the unique index on the trip's booking id makes
// re-running the assignment safe, which is the documented mitigation.
type BookingService struct {
	db            *sql.DB
	bookingRepo   repository.BookingRepository
	tripRepo      repository.TripRepository
	vehicleRepo   repository.VehicleRepository
	userRepo      repository.UserRepository
	cache         redis.CacheStoreInterface
	locks         redis.LockStoreInterface
	notifications *NotificationService
}

// NewBookingService creates a new BookingService. db, cache, locks, and
// notifications may be nil.
func NewBookingService(
	db *sql.DB,
	bookingRepo repository.BookingRepository,
	tripRepo repository.TripRepository,
	vehicleRepo repository.VehicleRepository,
	userRepo repository.UserRepository,
	cache redis.CacheStoreInterface,
	locks redis.LockStoreInterface,
	notifications *NotificationService,
) *BookingService {
	return &BookingService{
		db:            db,
		bookingRepo:   bookingRepo,
		tripRepo:      tripRepo,
		vehicleRepo:   vehicleRepo,
		userRepo:      userRepo,
		cache:         cache,
		locks:         locks,
		notifications: notifications,
	}
}

// CreateBookingRequest contains the parameters for creating a booking.
type CreateBookingRequest struct {
	CustomerID      string
	VehicleID       string
	PickupDate      time.Time
	DropoffDate     time.Time
	PickupLocation  domain.GeoPoint
	DropoffLocation domain.GeoPoint
	PaymentMethod   domain.PaymentMethod
	CustomerNotes   string
}

// CreateBooking validates the request against the vehicle registry,
// computes pricing, and creates the booking in pending status.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error) {
	if !req.DropoffDate.After(req.PickupDate) {
		return nil, ErrInvalidDateRange
	}
	if req.PickupDate.Before(time.Now()) {
		return nil, ErrPickupInPast
	}
	if !validGeoPoint(req.PickupLocation) {
		return nil, ErrInvalidPickupLocation
	}
	if !validGeoPoint(req.DropoffLocation) {
		return nil, ErrInvalidDropoffLocation
	}

	vehicle, err := s.bookableVehicle(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}
	if !vehicle.Bookable() {
		return nil, ErrVehicleUnavailable
	}

	paymentMethod, err := ValidatePaymentMethod(string(req.PaymentMethod))
	if err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		ID:              uuid.New().String(),
		CustomerID:      req.CustomerID,
		VehicleID:       req.VehicleID,
		ScheduledStart:  req.PickupDate,
		ScheduledEnd:    req.DropoffDate,
		PickupLocation:  req.PickupLocation,
		DropoffLocation: req.DropoffLocation,
		Pricing:         computePricing(vehicle, req.PickupDate, req.DropoffDate),
		Payment: domain.Payment{
			Method: paymentMethod,
			Status: domain.PaymentStatusPending,
		},
		Status:        domain.BookingStatusPending,
		CustomerNotes: req.CustomerNotes,
		CreatedAt:     time.Now(),
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, err
	}

	s.notifyAsync(func(ctx context.Context) error {
		return s.notifications.NotifyBookingConfirmation(ctx, booking)
	})

	return booking, nil
}

// UpdateBookingRequest contains the parameters for an owner update.
type UpdateBookingRequest struct {
	BookingID string
	CallerID  string
	Status    domain.BookingStatus // optional
	DriverID  string               // optional
}

// UpdateBooking lets the vehicle owner change booking status and assign a
// driver. Assigning a driver to a booking that is or becomes confirmed
// triggers trip auto-creation; that creation is idempotent and its
// failure never fails the booking update.
func (s *BookingService) UpdateBooking(ctx context.Context, req UpdateBookingRequest) (*domain.Booking, error) {
	if req.Status != "" && !domain.ValidBookingStatus(req.Status) {
		return nil, ErrInvalidBookingStatus
	}

	booking, err := s.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, booking.VehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle.OwnerID != req.CallerID {
		return nil, ErrNotVehicleOwner
	}

	confirming := req.Status == domain.BookingStatusConfirmed || booking.Status == domain.BookingStatusConfirmed
	if confirming && booking.DriverID == "" && req.DriverID == "" {
		return nil, ErrConfirmWithoutDriver
	}

	if req.DriverID != "" {
		if err := s.checkDriverEligibility(ctx, req.DriverID, booking.VehicleID); err != nil {
			return nil, err
		}
		booking.DriverID = req.DriverID
	}
	if req.Status != "" {
		booking.Status = req.Status
	}

	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, err
	}

	if booking.DriverID != "" && booking.Status == domain.BookingStatusConfirmed {
		if err := s.autoCreateTrip(ctx, booking); err != nil {
			// Booking update success is independent of trip creation.
			log.Printf("auto-creating trip for booking %s failed: %v", booking.ID, err)
		}
	}

	return booking, nil
}

// bookableVehicle resolves the rate and availability fields needed to
// price a booking, through the short-TTL Redis cache when available.
// Cached entries are written only from live reads of non-deleted rows
// and invalidated on every mutation, so a hit stands in for the record.
func (s *BookingService) bookableVehicle(ctx context.Context, vehicleID string) (*domain.Vehicle, error) {
	if s.cache != nil {
		cached, err := s.cache.GetVehicle(ctx, vehicleID)
		if err != nil {
			log.Printf("[CACHE] vehicle %s read failed: %v", vehicleID, err)
		} else if cached != nil {
			return &domain.Vehicle{
				ID:           cached.ID,
				OwnerID:      cached.OwnerID,
				BaseRate:     cached.BaseRate,
				RateType:     domain.RateType(cached.RateType),
				Currency:     cached.Currency,
				Availability: cached.Availability,
				Status:       domain.VehicleStatus(cached.Status),
			}, nil
		}
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetVehicle(ctx, &redis.CachedVehicle{
			ID:           vehicle.ID,
			OwnerID:      vehicle.OwnerID,
			BaseRate:     vehicle.BaseRate,
			RateType:     string(vehicle.RateType),
			Currency:     vehicle.Currency,
			Availability: vehicle.Availability,
			Status:       string(vehicle.Status),
		}); err != nil {
			log.Printf("[CACHE] vehicle %s write failed: %v", vehicle.ID, err)
		}
	}
	return vehicle, nil
}

// checkDriverEligibility verifies the user exists, holds the driver role,
// and has self-registered to the vehicle.
func (s *BookingService) checkDriverEligibility(ctx context.Context, driverID, vehicleID string) error {
	driver, err := s.userRepo.GetByID(ctx, driverID)
	if err != nil {
		return err
	}
	if driver.Role != domain.RoleDriver {
		return ErrNotADriver
	}
	registered, err := s.userRepo.IsDriverRegistered(ctx, driverID, vehicleID)
	if err != nil {
		return err
	}
	if !registered {
		return ErrDriverNotRegistered
	}
	return nil
}

// autoCreateTrip is the coordinator: it creates exactly one scheduled
// trip for a confirmed booking with an assigned driver, and links the
// booking back to it. A second invocation for the same booking is a
// no-op.
func (s *BookingService) autoCreateTrip(ctx context.Context, booking *domain.Booking) error {
	if s.locks != nil {
		acquired, err := s.locks.AcquireBookingLock(ctx, booking.ID, bookingLockTTL)
		if err == nil && !acquired {
			// Another assignment holds the lock; it will create the trip.
			return nil
		}
		if err == nil {
			defer func() { _ = s.locks.ReleaseBookingLock(context.WithoutCancel(ctx), booking.ID) }()
		}
	}

	existing, err := s.tripRepo.GetByBookingID(ctx, booking.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		if booking.TripID == "" {
			booking.TripID = existing.ID
			return s.bookingRepo.Update(ctx, booking)
		}
		return nil
	}

	driverEarnings := booking.Pricing.BaseAmount * driverShare
	platformFee := booking.Pricing.BaseAmount * platformFeeRate

	trip := &domain.Trip{
		ID:        uuid.New().String(),
		BookingID: booking.ID,
		DriverID:  booking.DriverID,
		Status:    domain.TripStatusScheduled,
		Route: domain.Route{
			StartLocation: &domain.RoutePoint{
				Lng:       booking.PickupLocation.Lng,
				Lat:       booking.PickupLocation.Lat,
				Address:   booking.PickupLocation.Address,
				Timestamp: booking.ScheduledStart,
			},
		},
		Expenses: domain.Expenses{
			Fuel: &domain.FuelExpense{
				Amount:        0,
				Liters:        0,
				PricePerLiter: defaultFuelPricePerLiter,
				Location:      "To be updated",
			},
		},
		Earnings: domain.Earnings{
			BaseAmount:  driverEarnings,
			Bonuses:     0,
			Deductions:  platformFee,
			TotalAmount: driverEarnings - platformFee,
		},
		Notes: fmt.Sprintf("Trip scheduled. Route: %s to %s",
			booking.PickupLocation.Address, booking.DropoffLocation.Address),
		CreatedAt: time.Now(),
	}

	return s.linkTrip(ctx, booking, trip)
}

// linkTrip writes the trip and the booking's back-reference, in one
// transaction when a DB handle is available.
func (s *BookingService) linkTrip(ctx context.Context, booking *domain.Booking, trip *domain.Trip) error {
	if s.db == nil {
		if err := s.tripRepo.Create(ctx, trip); err != nil {
			if err == repository.ErrDuplicateTrip {
				return nil // lost the race; the other trip stands
			}
			return err
		}
		booking.TripID = trip.ID
		return s.bookingRepo.Update(ctx, booking)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = postgres.NewTripRepositoryWithTx(tx).Create(ctx, trip); err != nil {
		if err == repository.ErrDuplicateTrip {
			err = nil
			return nil
		}
		return err
	}

	booking.TripID = trip.ID
	if err = postgres.NewBookingRepositoryWithTx(tx).Update(ctx, booking); err != nil {
		return err
	}

	return tx.Commit()
}

// CancelBookingRequest contains the parameters for a customer cancellation.
type CancelBookingRequest struct {
	BookingID  string
	CustomerID string
	Reason     string
}

// CancelBooking cancels a pending or confirmed booking on behalf of the
// customer who made it.
func (s *BookingService) CancelBooking(ctx context.Context, req CancelBookingRequest) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}

	if booking.CustomerID != req.CustomerID {
		return nil, ErrNotBookingCustomer
	}
	if booking.Status != domain.BookingStatusPending && booking.Status != domain.BookingStatusConfirmed {
		return nil, ErrBookingNotCancellable
	}

	reason := req.Reason
	if reason == "" {
		reason = "Customer cancelled"
	}

	booking.Status = domain.BookingStatusCancelled
	booking.CancelledBy = req.CustomerID
	booking.CancelledAt = time.Now()
	booking.CancelReason = reason

	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, err
	}

	s.notifyAsync(func(ctx context.Context) error {
		return s.notifications.NotifyBookingCancelled(ctx, booking, reason)
	})

	return booking, nil
}

// StartBookingTrip is the booking-level start: the assigned driver moves
// a confirmed booking to in_progress without touching the trip record.
func (s *BookingService) StartBookingTrip(ctx context.Context, bookingID, driverID string) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.DriverID == "" || booking.DriverID != driverID {
		return nil, ErrNotAssignedDriver
	}
	if booking.Status != domain.BookingStatusConfirmed {
		return nil, ErrBookingNotStartable
	}

	booking.Status = domain.BookingStatusInProgress
	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// CompleteBookingTrip is the booking-level completion: the assigned
// driver moves an in_progress booking to completed.
func (s *BookingService) CompleteBookingTrip(ctx context.Context, bookingID, driverID string) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.DriverID == "" || booking.DriverID != driverID {
		return nil, ErrNotAssignedDriver
	}
	if booking.Status != domain.BookingStatusInProgress {
		return nil, ErrBookingNotCompletable
	}

	booking.Status = domain.BookingStatusCompleted
	if err := s.bookingRepo.Update(ctx, booking); err != nil {
		return nil, err
	}

	s.notifyAsync(func(ctx context.Context) error {
		return s.notifications.NotifyTripCompleted(ctx, booking, nil)
	})

	return booking, nil
}

// GetBooking retrieves a booking by id.
func (s *BookingService) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	return s.bookingRepo.GetByID(ctx, bookingID)
}

// GetAllBookings retrieves bookings, optionally filtered by status.
func (s *BookingService) GetAllBookings(ctx context.Context, status domain.BookingStatus) ([]*domain.Booking, error) {
	return s.bookingRepo.GetAll(ctx, status)
}

// GetCustomerBookings retrieves the caller's own bookings.
func (s *BookingService) GetCustomerBookings(ctx context.Context, customerID string) ([]*domain.Booking, error) {
	return s.bookingRepo.GetByCustomerID(ctx, customerID)
}

// GetOwnerBookings retrieves bookings for the caller's vehicles.
func (s *BookingService) GetOwnerBookings(ctx context.Context, ownerID string) ([]*domain.Booking, error) {
	return s.bookingRepo.GetByVehicleOwnerID(ctx, ownerID)
}

// GetDriverBookings retrieves the caller's assigned bookings.
func (s *BookingService) GetDriverBookings(ctx context.Context, driverID string) ([]*domain.Booking, error) {
	return s.bookingRepo.GetByDriverID(ctx, driverID)
}

// notifyAsync dispatches a notification without blocking the request and
// swallows any failure.
func (s *BookingService) notifyAsync(fn func(ctx context.Context) error) {
	if s.notifications == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = fn(ctx)
	}()
}

// computePricing derives booking pricing from the vehicle's rate. Pricing
// is computed once here and never re-derived.
func computePricing(vehicle *domain.Vehicle, start, end time.Time) domain.Pricing {
	days := int(math.Ceil(end.Sub(start).Hours() / 24))
	units := days
	if vehicle.RateType != domain.RateTypeDaily {
		units = days * 24
	}
	baseAmount := vehicle.BaseRate * float64(units)
	taxes := baseAmount * taxRate
	fees := baseAmount * feeRate

	currency := vehicle.Currency
	if currency == "" {
		currency = "USD"
	}

	return domain.Pricing{
		BaseAmount:  baseAmount,
		Taxes:       taxes,
		Fees:        fees,
		TotalAmount: baseAmount + taxes + fees,
		Currency:    currency,
	}
}

// ValidatePaymentMethod validates a payment method string, defaulting to
// credit_card when empty.
func ValidatePaymentMethod(method string) (domain.PaymentMethod, error) {
	switch domain.PaymentMethod(method) {
	case domain.PaymentMethodCreditCard, domain.PaymentMethodCash, domain.PaymentMethodBankTransfer:
		return domain.PaymentMethod(method), nil
	case "":
		return domain.PaymentMethodCreditCard, nil
	default:
		return "", ErrInvalidPaymentMethod
	}
}

func validGeoPoint(p domain.GeoPoint) bool {
	return p.Lng >= -180 && p.Lng <= 180 &&
		p.Lat >= -90 && p.Lat <= 90 &&
		p.Address != ""
}
