package tests

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"fleet/internal/domain"
	"fleet/internal/service"
)

// ──────────────────────────────────────────────
// 4. TRIP LIFECYCLE AND ACCOUNTING
// ──────────────────────────────────────────────

func newTripFixture() (*service.TripService, *MockBookingRepository, *MockTripRepository, *MockVehicleRepository, *MockUserRepository) {
	bookingRepo := NewMockBookingRepository()
	tripRepo := NewMockTripRepository()
	vehicleRepo := NewMockVehicleRepository()
	userRepo := NewMockUserRepository()

	svc := service.NewTripService(nil, tripRepo, bookingRepo, vehicleRepo, userRepo, nil)
	return svc, bookingRepo, tripRepo, vehicleRepo, userRepo
}

// seedTrip stores a booking and its trip in the given status.
func seedTrip(bookingRepo *MockBookingRepository, tripRepo *MockTripRepository, status domain.TripStatus, baseAmount float64) {
	booking := pendingBooking("booking-1", "customer-1", "veh-1")
	booking.Status = domain.BookingStatusConfirmed
	booking.DriverID = "driver-1"
	booking.TripID = "trip-1"
	booking.Pricing.BaseAmount = baseAmount
	booking.Pricing.TotalAmount = baseAmount * 1.15
	bookingRepo.AddBooking(booking)

	trip := &domain.Trip{
		ID:        "trip-1",
		BookingID: "booking-1",
		DriverID:  "driver-1",
		Status:    status,
		CreatedAt: time.Now(),
	}
	if status == domain.TripStatusInProgress {
		trip.StartTime = time.Now().Add(-90 * time.Minute)
		trip.StartOdometer = 1000
	}
	tripRepo.AddTrip(trip)
}

func TestStartTrip_CapturesOdometerAndRoute(t *testing.T) {
	t.Parallel()

	svc, bookingRepo, tripRepo, _, _ := newTripFixture()
	seedTrip(bookingRepo, tripRepo, domain.TripStatusScheduled, 300)

	trip, err := svc.StartTrip(context.Background(), service.StartTripRequest{
		TripID:   "trip-1",
		DriverID: "driver-1",
		Odometer: 1000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.Status != domain.TripStatusInProgress {
		t.Errorf("expected in_progress, got %s", trip.Status)
	}
	if trip.StartOdometer != 1000 {
		t.Errorf("expected start odometer 1000, got %v", trip.StartOdometer)
	}
	if trip.StartTime.IsZero() {
		t.Error("expected start time stamped")
	}

	// No current location supplied: booking pickup is used.
	if trip.Route.StartLocation == nil {
		t.Fatal("expected route start location")
	}
	if trip.Route.StartLocation.Address != "Bole Airport" {
		t.Errorf("expected pickup address fallback, got %q", trip.Route.StartLocation.Address)
	}

	// Booking mirrors the transition.
	if got := bookingRepo.GetBooking("booking-1").Status; got != domain.BookingStatusInProgress {
		t.Errorf("expected booking in_progress, got %s", got)
	}
}

func TestStartTrip_Guards(t *testing.T) {
	t.Parallel()

	svc, bookingRepo, tripRepo, _, _ := newTripFixture()
	seedTrip(bookingRepo, tripRepo, domain.TripStatusInProgress, 300)

	// Wrong driver.
	_, err := svc.StartTrip(context.Background(), service.StartTripRequest{
		TripID:   "trip-1",
		DriverID: "driver-2",
		Odometer: 1000,
	})
	if !errors.Is(err, service.ErrNotAssignedDriver) {
		t.Errorf("expected ErrNotAssignedDriver, got %v", err)
	}

	// Already in progress.
	_, err = svc.StartTrip(context.Background(), service.StartTripRequest{
		TripID:   "trip-1",
		DriverID: "driver-1",
		Odometer: 1000,
	})
	if !errors.Is(err, service.ErrTripNotStartable) {
		t.Errorf("expected ErrTripNotStartable, got %v", err)
	}
}

func TestCompleteTrip_OdometerRegressionRejected(t *testing.T) {
	t.Parallel()

	svc, bookingRepo, tripRepo, _, _ := newTripFixture()
	seedTrip(bookingRepo, tripRepo, domain.TripStatusInProgress, 300)

	_, err := svc.CompleteTrip(context.Background(), service.CompleteTripRequest{
		TripID:   "trip-1",
		DriverID: "driver-1",
		Odometer: 999, // below start odometer 1000
	})
	if !errors.Is(err, service.ErrOdometerRegression) {
		t.Errorf("expected ErrOdometerRegression, got %v", err)
	}
}

func TestCompleteTrip_DefaultExpenses(t *testing.T) {
	t.Parallel()

	svc, bookingRepo, tripRepo, _, _ := newTripFixture()
	seedTrip(bookingRepo, tripRepo, domain.TripStatusInProgress, 1000)

	// 80 km trip, no expenses reported.
	trip, err := svc.CompleteTrip(context.Background(), service.CompleteTripRequest{
		TripID:   "trip-1",
		DriverID: "driver-1",
		Odometer: 1080,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.Distance != 80 {
		t.Fatalf("expected distance 80, got %v", trip.Distance)
	}

	fuel := trip.Expenses.Fuel
	if fuel == nil {
		t.Fatal("expected synthesized fuel expense")
	}
	if fuel.Amount != 576 {
		t.Errorf("expected fuel amount 576, got %v", fuel.Amount)
	}
	if fuel.Liters != 6.4 {
		t.Errorf("expected 6.4 liters, got %v", fuel.Liters)
	}
	if fuel.PricePerLiter != 90 {
		t.Errorf("expected 90 per liter, got %v", fuel.PricePerLiter)
	}
	if fuel.Location != "Highway Petrol Pump" {
		t.Errorf("unexpected fuel location %q", fuel.Location)
	}

	if len(trip.Expenses.Tolls) != 1 || trip.Expenses.Tolls[0].Amount != 40 {
		t.Errorf("expected one toll of 40, got %+v", trip.Expenses.Tolls)
	}
	if len(trip.Expenses.Parking) != 1 || trip.Expenses.Parking[0].Amount != 20 {
		t.Errorf("expected one parking charge of 20, got %+v", trip.Expenses.Parking)
	}
	if trip.Expenses.Parking[0].DurationMinutes != 30 {
		t.Errorf("expected 30 minute parking, got %d", trip.Expenses.Parking[0].DurationMinutes)
	}
}

func TestCompleteTrip_NoTollForShortTrips(t *testing.T) {
	t.Parallel()

	svc, bookingRepo, tripRepo, _, _ := newTripFixture()
	seedTrip(bookingRepo, tripRepo, domain.TripStatusInProgress, 1000)

	// 20 km: under the 30 km toll threshold.
	trip, err := svc.CompleteTrip(context.Background(), service.CompleteTripRequest{
		TripID:   "trip-1",
		DriverID: "driver-1",
		Odometer: 1020,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.Expenses.Fuel.Amount != 144 {
		t.Errorf("expected fuel 144, got %v", trip.Expenses.Fuel.Amount)
	}
	if len(trip.Expenses.Tolls) != 0 {
		t.Errorf("expected no tolls under 30km, got %+v", trip.Expenses.Tolls)
	}
}

func TestCompleteTrip_EarningsDerivation(t *testing.T) {
	t.Parallel()

	svc, bookingRepo, tripRepo, _, _ := newTripFixture()
	seedTrip(bookingRepo, tripRepo, domain.TripStatusInProgress, 1000)

	trip, err := svc.CompleteTrip(context.Background(), service.CompleteTripRequest{
		TripID:   "trip-1",
		DriverID: "driver-1",
		Odometer: 1080, // 80 km
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// base = 0.7 * 1000 = 700; distance bonus 50 (80 > 50km);
	// deductions = 576 fuel + 40 toll + 20 parking = 636.
	if trip.Earnings.BaseAmount != 700 {
		t.Errorf("expected base 700, got %v", trip.Earnings.BaseAmount)
	}
	if trip.Earnings.Bonuses != 50 {
		t.Errorf("expected bonuses 50, got %v", trip.Earnings.Bonuses)
	}
	if trip.Earnings.Deductions != 636 {
		t.Errorf("expected deductions 636, got %v", trip.Earnings.Deductions)
	}
	if trip.Earnings.TotalAmount != 114 {
		t.Errorf("expected total 114, got %v", trip.Earnings.TotalAmount)
	}

	// Booking mirrors completion, including the payment flag.
	booking := bookingRepo.GetBooking("booking-1")
	if booking.Status != domain.BookingStatusCompleted {
		t.Errorf("expected booking completed, got %s", booking.Status)
	}
	if booking.Payment.Status != domain.PaymentStatusCompleted {
		t.Errorf("expected payment completed, got %s", booking.Payment.Status)
	}

	if !strings.HasPrefix(trip.Notes, "Trip completed. Distance: 80km, Duration: ") {
		t.Errorf("unexpected notes %q", trip.Notes)
	}
}

func TestCompleteTrip_NegativeEarningsClampedToZero(t *testing.T) {
	t.Parallel()

	svc, bookingRepo, tripRepo, _, _ := newTripFixture()
	// Cheap booking: base 200 → driver base 140. With 80 km the default
	// expenses (636) exceed earnings; the total clamps to zero.
	seedTrip(bookingRepo, tripRepo, domain.TripStatusInProgress, 200)

	trip, err := svc.CompleteTrip(context.Background(), service.CompleteTripRequest{
		TripID:   "trip-1",
		DriverID: "driver-1",
		Odometer: 1080,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.Earnings.BaseAmount != 140 {
		t.Errorf("expected base 140, got %v", trip.Earnings.BaseAmount)
	}
	if trip.Earnings.Bonuses != 50 {
		t.Errorf("expected bonuses 50, got %v", trip.Earnings.Bonuses)
	}
	if trip.Earnings.Deductions != 636 {
		t.Errorf("expected deductions 636, got %v", trip.Earnings.Deductions)
	}
	if trip.Earnings.TotalAmount != 0 {
		t.Errorf("expected total clamped to 0, got %v", trip.Earnings.TotalAmount)
	}
}

func TestCompleteTrip_RatingBonusFromCustomerRating(t *testing.T) {
	t.Parallel()

	svc, bookingRepo, tripRepo, _, _ := newTripFixture()
	seedTrip(bookingRepo, tripRepo, domain.TripStatusInProgress, 1000)

	// The customer rated the trip through the correction endpoint before
	// the driver completed it.
	_, err := svc.UpdateTrip(context.Background(), "trip-1", "driver-1", service.TripPatch{
		Rating: &domain.Rating{ByCustomer: 4.5},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	trip, err := svc.CompleteTrip(context.Background(), service.CompleteTripRequest{
		TripID:   "trip-1",
		DriverID: "driver-1",
		Odometer: 1080,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 50 distance bonus + 25 rating bonus.
	if trip.Earnings.Bonuses != 75 {
		t.Errorf("expected bonuses 75, got %v", trip.Earnings.Bonuses)
	}
}

func TestCompleteTrip_OtherExpensesExcludedFromDeductions(t *testing.T) {
	t.Parallel()

	svc, bookingRepo, tripRepo, _, _ := newTripFixture()
	seedTrip(bookingRepo, tripRepo, domain.TripStatusInProgress, 1000)

	trip, err := svc.CompleteTrip(context.Background(), service.CompleteTripRequest{
		TripID:   "trip-1",
		DriverID: "driver-1",
		Odometer: 1080,
		Expenses: &domain.Expenses{
			Fuel:    &domain.FuelExpense{Amount: 100},
			Tolls:   []domain.TollExpense{{Amount: 30}},
			Parking: []domain.ParkingExpense{{Amount: 20}},
			Other:   []domain.OtherExpense{{Description: "car wash", Amount: 500}},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Fuel + tolls + parking only; the "other" category is recorded but
	// never deducted.
	if trip.Earnings.Deductions != 150 {
		t.Errorf("expected deductions 150, got %v", trip.Earnings.Deductions)
	}
	if len(trip.Expenses.Other) != 1 || trip.Expenses.Other[0].Amount != 500 {
		t.Errorf("expected other expense preserved, got %+v", trip.Expenses.Other)
	}
}

func TestCompleteTrip_BaseFallsBackToTotalAmount(t *testing.T) {
	t.Parallel()

	svc, bookingRepo, tripRepo, _, _ := newTripFixture()
	seedTrip(bookingRepo, tripRepo, domain.TripStatusInProgress, 0)

	booking := bookingRepo.GetBooking("booking-1")
	booking.Pricing.TotalAmount = 2000
	bookingRepo.AddBooking(booking)

	trip, err := svc.CompleteTrip(context.Background(), service.CompleteTripRequest{
		TripID:   "trip-1",
		DriverID: "driver-1",
		Odometer: 1080,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.Earnings.BaseAmount != 1400 {
		t.Errorf("expected base 1400 from total amount fallback, got %v", trip.Earnings.BaseAmount)
	}
}

func TestCancelTrip_TerminalStatesRejected(t *testing.T) {
	t.Parallel()

	svc, _, tripRepo, _, _ := newTripFixture()

	for _, status := range []domain.TripStatus{domain.TripStatusCompleted, domain.TripStatusCancelled} {
		tripRepo.AddTrip(&domain.Trip{
			ID:        "trip-" + string(status),
			BookingID: "booking-x",
			DriverID:  "driver-1",
			Status:    status,
		})

		_, err := svc.CancelTrip(context.Background(), "trip-"+string(status))
		if !errors.Is(err, service.ErrTripNotCancellable) {
			t.Errorf("status %s: expected ErrTripNotCancellable, got %v", status, err)
		}
	}
}

func TestCancelTrip_MirrorsBookingAndClampsEarnings(t *testing.T) {
	t.Parallel()

	svc, bookingRepo, tripRepo, _, _ := newTripFixture()
	seedTrip(bookingRepo, tripRepo, domain.TripStatusInProgress, 300)

	// Simulate a legacy row with a negative stored total.
	stored := tripRepo.GetTrip("trip-1")
	stored.Earnings.TotalAmount = -50
	tripRepo.AddTrip(stored)

	trip, err := svc.CancelTrip(context.Background(), "trip-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.Status != domain.TripStatusCancelled {
		t.Errorf("expected cancelled, got %s", trip.Status)
	}
	if trip.EndTime.IsZero() {
		t.Error("expected end time stamped")
	}
	if trip.Earnings.TotalAmount != 0 {
		t.Errorf("expected clamped total 0, got %v", trip.Earnings.TotalAmount)
	}
	if got := bookingRepo.GetBooking("booking-1").Status; got != domain.BookingStatusCancelled {
		t.Errorf("expected booking cancelled, got %s", got)
	}
}

func TestUpdateTrip_WhitelistedPatch(t *testing.T) {
	t.Parallel()

	svc, bookingRepo, tripRepo, _, _ := newTripFixture()
	seedTrip(bookingRepo, tripRepo, domain.TripStatusInProgress, 300)

	// No fields is an error.
	_, err := svc.UpdateTrip(context.Background(), "trip-1", "driver-1", service.TripPatch{})
	if !errors.Is(err, service.ErrNoUpdatableFields) {
		t.Errorf("expected ErrNoUpdatableFields, got %v", err)
	}

	// Wrong driver is forbidden.
	notes := "corrected"
	_, err = svc.UpdateTrip(context.Background(), "trip-1", "driver-2", service.TripPatch{Notes: &notes})
	if !errors.Is(err, service.ErrNotAssignedDriver) {
		t.Errorf("expected ErrNotAssignedDriver, got %v", err)
	}

	startOdo := 950.0
	trip, err := svc.UpdateTrip(context.Background(), "trip-1", "driver-1", service.TripPatch{
		StartOdometer: &startOdo,
		Notes:         &notes,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.StartOdometer != 950 {
		t.Errorf("expected start odometer 950, got %v", trip.StartOdometer)
	}
	if trip.Notes != "corrected" {
		t.Errorf("expected notes corrected, got %q", trip.Notes)
	}
	// Identity and status stay untouched.
	if trip.BookingID != "booking-1" || trip.DriverID != "driver-1" || trip.Status != domain.TripStatusInProgress {
		t.Errorf("patch must not touch identity or status, got %+v", trip)
	}
}

func TestTripSummary_CountsAndRevenue(t *testing.T) {
	t.Parallel()

	svc, _, tripRepo, _, _ := newTripFixture()

	tripRepo.AddTrip(&domain.Trip{ID: "t1", BookingID: "b1", Status: domain.TripStatusScheduled})
	tripRepo.AddTrip(&domain.Trip{ID: "t2", BookingID: "b2", Status: domain.TripStatusInProgress})
	tripRepo.AddTrip(&domain.Trip{
		ID: "t3", BookingID: "b3", Status: domain.TripStatusCompleted,
		Earnings: domain.Earnings{TotalAmount: 114},
	})
	tripRepo.AddTrip(&domain.Trip{ID: "t4", BookingID: "b4", Status: domain.TripStatusCancelled})

	summary, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.TotalTrips != 4 {
		t.Errorf("expected 4 trips, got %d", summary.TotalTrips)
	}
	if summary.ScheduledTrips != 1 || summary.InProgressTrips != 1 ||
		summary.CompletedTrips != 1 || summary.CancelledTrips != 1 {
		t.Errorf("unexpected status counts: %+v", summary)
	}
	if summary.TotalRevenue != 114 {
		t.Errorf("expected revenue 114, got %v", summary.TotalRevenue)
	}
}
