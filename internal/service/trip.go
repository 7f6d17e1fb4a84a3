package service

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"fleet/internal/domain"
	"fleet/internal/repository"
	"fleet/internal/repository/postgres"
)

// Expense synthesis constants, used when a driver completes a trip
// without reporting expenses. Fuel burn is 0.08 L/km.
const (
	defaultFuelPricePerLiter = 90.0
	fuelLitersPerKm          = 0.08
	tollRatePerKm            = 0.5
	tollDistanceThresholdKm  = 30.0
	defaultParkingCharge     = 20.0
	defaultParkingMinutes    = 30
)

// Earnings bonus constants.
const (
	distanceBonusAmount      = 50.0
	distanceBonusThresholdKm = 50.0
	ratingBonusAmount        = 25.0
	ratingBonusThreshold     = 4.5
)

// TripService owns the trip lifecycle state machine and the derived
// expense/earnings accounting. Booking status mirrors trip status; when
// db is non-nil the two writes share a transaction, otherwise they are
// sequential (see BookingService for the fallback semantics).
type TripService struct {
	db            *sql.DB
	tripRepo      repository.TripRepository
	bookingRepo   repository.BookingRepository
	vehicleRepo   repository.VehicleRepository
	userRepo      repository.UserRepository
	notifications *NotificationService
}

// NewTripService creates a new TripService. db and notifications may be nil.
func NewTripService(
	db *sql.DB,
	tripRepo repository.TripRepository,
	bookingRepo repository.BookingRepository,
	vehicleRepo repository.VehicleRepository,
	userRepo repository.UserRepository,
	notifications *NotificationService,
) *TripService {
	return &TripService{
		db:            db,
		tripRepo:      tripRepo,
		bookingRepo:   bookingRepo,
		vehicleRepo:   vehicleRepo,
		userRepo:      userRepo,
		notifications: notifications,
	}
}

// CreateTripRequest contains the parameters for direct trip creation by
// the vehicle owner.
type CreateTripRequest struct {
	BookingID string
	DriverID  string
	CallerID  string
}

// CreateTrip creates a scheduled trip for a booking and confirms the
// booking. Only the owner of the booking's vehicle may call it, the
// driver must be eligible, and the booking must not already have a trip.
func (s *TripService) CreateTrip(ctx context.Context, req CreateTripRequest) (*domain.Trip, error) {
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

	driver, err := s.userRepo.GetByID(ctx, req.DriverID)
	if err != nil {
		return nil, err
	}
	if driver.Role != domain.RoleDriver {
		return nil, ErrNotADriver
	}
	registered, err := s.userRepo.IsDriverRegistered(ctx, req.DriverID, booking.VehicleID)
	if err != nil {
		return nil, err
	}
	if !registered {
		return nil, ErrDriverNotRegistered
	}

	existing, err := s.tripRepo.GetByBookingID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrTripExists
	}

	trip := &domain.Trip{
		ID:        uuid.New().String(),
		BookingID: req.BookingID,
		DriverID:  req.DriverID,
		Status:    domain.TripStatusScheduled,
		CreatedAt: time.Now(),
	}

	booking.DriverID = req.DriverID
	booking.TripID = trip.ID
	booking.Status = domain.BookingStatusConfirmed

	if err := s.createTripWithBooking(ctx, trip, booking); err != nil {
		if err == repository.ErrDuplicateTrip {
			return nil, ErrTripExists
		}
		return nil, err
	}
	return trip, nil
}

// StartTripRequest contains the parameters for starting a trip.
type StartTripRequest struct {
	TripID          string
	DriverID        string
	Odometer        float64
	CurrentLocation *domain.GeoPoint // optional; booking pickup used when absent
}

// StartTrip moves a scheduled trip to in_progress, captures the starting
// odometer and route start location, and mirrors the status onto the
// booking.
func (s *TripService) StartTrip(ctx context.Context, req StartTripRequest) (*domain.Trip, error) {
	trip, err := s.tripRepo.GetByID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}
	if trip.DriverID != req.DriverID {
		return nil, ErrNotAssignedDriver
	}
	if trip.Status != domain.TripStatusScheduled {
		return nil, ErrTripNotStartable
	}

	booking, err := s.bookingRepo.GetByID(ctx, trip.BookingID)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	trip.Status = domain.TripStatusInProgress
	trip.StartTime = startTime
	trip.StartOdometer = req.Odometer
	trip.Route.StartLocation = routePointAt(req.CurrentLocation, booking.PickupLocation, startTime)

	booking.Status = domain.BookingStatusInProgress

	if err := s.updateTripWithBooking(ctx, trip, booking); err != nil {
		return nil, err
	}
	return trip, nil
}

// CompleteTripRequest contains the parameters for completing a trip.
type CompleteTripRequest struct {
	TripID          string
	DriverID        string
	Odometer        float64
	CurrentLocation *domain.GeoPoint // optional; booking dropoff used when absent
	Expenses        *domain.Expenses // optional; synthesized when absent
	Rating          *domain.Rating   // optional; only the driver's side is applied
	Notes           string
}

// CompleteTrip moves an in-progress trip to completed, derives distance,
// expenses, and earnings, and mirrors completion onto the booking
// including its payment flag.
func (s *TripService) CompleteTrip(ctx context.Context, req CompleteTripRequest) (*domain.Trip, error) {
	trip, err := s.tripRepo.GetByID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}
	if trip.DriverID != req.DriverID {
		return nil, ErrNotAssignedDriver
	}
	if trip.Status != domain.TripStatusInProgress {
		return nil, ErrTripNotCompletable
	}
	if req.Odometer < trip.StartOdometer {
		return nil, ErrOdometerRegression
	}

	booking, err := s.bookingRepo.GetByID(ctx, trip.BookingID)
	if err != nil {
		return nil, err
	}

	endTime := time.Now()
	trip.Status = domain.TripStatusCompleted
	trip.EndTime = endTime
	trip.EndOdometer = req.Odometer
	trip.Distance = math.Max(0, trip.EndOdometer-trip.StartOdometer)
	trip.Route.EndLocation = routePointAt(req.CurrentLocation, booking.DropoffLocation, endTime)

	if req.Expenses != nil {
		trip.Expenses = normalizeExpenses(req.Expenses)
	} else {
		trip.Expenses = defaultExpenses(trip.Distance)
	}

	if req.Rating != nil {
		trip.Rating.ByDriver = req.Rating.ByDriver
		trip.Rating.DriverComment = req.Rating.DriverComment
	}

	if req.Notes != "" {
		trip.Notes = req.Notes
	} else {
		minutes := int(math.Round(endTime.Sub(trip.StartTime).Minutes()))
		trip.Notes = fmt.Sprintf("Trip completed. Distance: %.0fkm, Duration: %d minutes",
			trip.Distance, minutes)
	}

	trip.Earnings = deriveEarnings(booking, trip)

	booking.Status = domain.BookingStatusCompleted
	booking.Payment.Status = domain.PaymentStatusCompleted

	if err := s.updateTripWithBooking(ctx, trip, booking); err != nil {
		return nil, err
	}

	if s.notifications != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = s.notifications.NotifyTripCompleted(ctx, booking, trip)
		}()
	}

	return trip, nil
}

// CancelTrip cancels a scheduled or in-progress trip (admin operation)
// and mirrors cancellation onto the booking. A negative persisted
// earnings total is clamped to zero on the way out.
func (s *TripService) CancelTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.Status.IsTerminal() {
		return nil, ErrTripNotCancellable
	}

	trip.Status = domain.TripStatusCancelled
	trip.EndTime = time.Now()
	if trip.Earnings.TotalAmount < 0 {
		trip.Earnings.TotalAmount = 0
	}

	booking, err := s.bookingRepo.GetByID(ctx, trip.BookingID)
	if err != nil {
		return nil, err
	}
	booking.Status = domain.BookingStatusCancelled

	if err := s.updateTripWithBooking(ctx, trip, booking); err != nil {
		return nil, err
	}
	return trip, nil
}

// TripPatch is the whitelisted field set for the driver's correction
// endpoint. Booking, driver, status, and earnings are deliberately not
// patchable; whether odometers should also freeze after completion is an
// open product question.
type TripPatch struct {
	StartOdometer *float64
	EndOdometer   *float64
	Expenses      *domain.Expenses
	Rating        *domain.Rating
	Notes         *string
}

// UpdateTrip applies a whitelisted field merge on behalf of the assigned
// driver. No lifecycle validation is performed; this is the escape hatch
// for correcting mistakes.
func (s *TripService) UpdateTrip(ctx context.Context, tripID, driverID string, patch TripPatch) (*domain.Trip, error) {
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.DriverID != driverID {
		return nil, ErrNotAssignedDriver
	}

	if patch.StartOdometer == nil && patch.EndOdometer == nil &&
		patch.Expenses == nil && patch.Rating == nil && patch.Notes == nil {
		return nil, ErrNoUpdatableFields
	}

	if patch.StartOdometer != nil {
		trip.StartOdometer = *patch.StartOdometer
	}
	if patch.EndOdometer != nil {
		trip.EndOdometer = *patch.EndOdometer
	}
	if patch.Expenses != nil {
		trip.Expenses = normalizeExpenses(patch.Expenses)
	}
	if patch.Rating != nil {
		trip.Rating = *patch.Rating
	}
	if patch.Notes != nil {
		trip.Notes = *patch.Notes
	}

	if err := s.tripRepo.Update(ctx, trip); err != nil {
		return nil, err
	}
	return trip, nil
}

// GetTrip retrieves a trip by ID.
func (s *TripService) GetTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	return s.tripRepo.GetByID(ctx, tripID)
}

// GetAllTrips retrieves trips, optionally filtered by status.
func (s *TripService) GetAllTrips(ctx context.Context, status domain.TripStatus) ([]*domain.Trip, error) {
	return s.tripRepo.GetAll(ctx, status)
}

// GetDriverTrips retrieves the caller's trips.
func (s *TripService) GetDriverTrips(ctx context.Context, driverID string) ([]*domain.Trip, error) {
	return s.tripRepo.GetByDriverID(ctx, driverID)
}

// Summary returns trip counts by status and completed revenue.
func (s *TripService) Summary(ctx context.Context) (*domain.TripSummary, error) {
	return s.tripRepo.Summary(ctx)
}

// createTripWithBooking inserts a trip and updates its booking, in one
// transaction when possible.
func (s *TripService) createTripWithBooking(ctx context.Context, trip *domain.Trip, booking *domain.Booking) error {
	if s.db == nil {
		if err := s.tripRepo.Create(ctx, trip); err != nil {
			return err
		}
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
		return err
	}
	if err = postgres.NewBookingRepositoryWithTx(tx).Update(ctx, booking); err != nil {
		return err
	}
	return tx.Commit()
}

// updateTripWithBooking writes a trip mutation and its booking status
// mirror, in one transaction when possible.
func (s *TripService) updateTripWithBooking(ctx context.Context, trip *domain.Trip, booking *domain.Booking) error {
	if s.db == nil {
		if err := s.tripRepo.Update(ctx, trip); err != nil {
			return err
		}
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

	if err = postgres.NewTripRepositoryWithTx(tx).Update(ctx, trip); err != nil {
		return err
	}
	if err = postgres.NewBookingRepositoryWithTx(tx).Update(ctx, booking); err != nil {
		return err
	}
	return tx.Commit()
}

// routePointAt builds a route point from the caller-supplied location,
// falling back to the booking location, stamped with the event time.
func routePointAt(current *domain.GeoPoint, fallback domain.GeoPoint, at time.Time) *domain.RoutePoint {
	point := fallback
	if current != nil {
		point = *current
		if point.Address == "" {
			point.Address = fallback.Address
		}
	}
	return &domain.RoutePoint{
		Lng:       point.Lng,
		Lat:       point.Lat,
		Address:   point.Address,
		Timestamp: at,
	}
}

// normalizeExpenses stores caller-supplied expenses verbatim with empty
// slices for absent categories.
func normalizeExpenses(e *domain.Expenses) domain.Expenses {
	out := domain.Expenses{
		Fuel:    e.Fuel,
		Tolls:   e.Tolls,
		Parking: e.Parking,
		Other:   e.Other,
	}
	if out.Tolls == nil {
		out.Tolls = []domain.TollExpense{}
	}
	if out.Parking == nil {
		out.Parking = []domain.ParkingExpense{}
	}
	if out.Other == nil {
		out.Other = []domain.OtherExpense{}
	}
	return out
}

// defaultExpenses synthesizes realistic expenses from the trip distance
// when the driver reports none.
func defaultExpenses(distance float64) domain.Expenses {
	if distance == 0 {
		distance = 50
	}

	expenses := domain.Expenses{
		Fuel: &domain.FuelExpense{
			Amount:        math.Round(distance * fuelLitersPerKm * defaultFuelPricePerLiter),
			Liters:        math.Round(distance*fuelLitersPerKm*10) / 10,
			PricePerLiter: defaultFuelPricePerLiter,
			Location:      "Highway Petrol Pump",
		},
		Tolls:   []domain.TollExpense{},
		Parking: []domain.ParkingExpense{},
		Other:   []domain.OtherExpense{},
	}

	if distance > tollDistanceThresholdKm {
		expenses.Tolls = append(expenses.Tolls, domain.TollExpense{
			Amount:   math.Round(distance * tollRatePerKm),
			Location: "Highway Toll Plaza",
		})
	}

	expenses.Parking = append(expenses.Parking, domain.ParkingExpense{
		Amount:          defaultParkingCharge,
		Location:        "Destination Parking",
		DurationMinutes: defaultParkingMinutes,
	})

	return expenses
}

// deriveEarnings computes the driver's earnings breakdown for a completed
// trip. The base prefers the booking's base amount, falling back to its
// total. Tolls and parking count as deductions alongside fuel; the
// "other" category is stored but excluded from the sum — that asymmetry
// is the product's current behavior, kept on purpose. Every persisted
// component is clamped to zero.
func deriveEarnings(booking *domain.Booking, trip *domain.Trip) domain.Earnings {
	baseSource := booking.Pricing.BaseAmount
	if baseSource == 0 {
		baseSource = booking.Pricing.TotalAmount
	}
	baseEarnings := math.Max(0, baseSource*driverShare)

	var distanceBonus float64
	if trip.Distance > distanceBonusThresholdKm {
		distanceBonus = distanceBonusAmount
	}
	var ratingBonus float64
	if trip.Rating.ByCustomer >= ratingBonusThreshold {
		ratingBonus = ratingBonusAmount
	}

	var totalExpenses float64
	if trip.Expenses.Fuel != nil {
		totalExpenses += trip.Expenses.Fuel.Amount
	}
	for _, toll := range trip.Expenses.Tolls {
		totalExpenses += toll.Amount
	}
	for _, parking := range trip.Expenses.Parking {
		totalExpenses += parking.Amount
	}

	rawTotal := baseEarnings + distanceBonus + ratingBonus - totalExpenses

	return domain.Earnings{
		BaseAmount:  baseEarnings,
		Bonuses:     math.Max(0, distanceBonus+ratingBonus),
		Deductions:  math.Max(0, totalExpenses),
		TotalAmount: math.Max(0, rawTotal),
	}
}
