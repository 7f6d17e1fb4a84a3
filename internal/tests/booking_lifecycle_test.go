package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"fleet/internal/domain"
	"fleet/internal/service"
)

// ──────────────────────────────────────────────
// 2. BOOKING LIFECYCLE
// ──────────────────────────────────────────────

func pendingBooking(id, customerID, vehicleID string) *domain.Booking {
	return &domain.Booking{
		ID:              id,
		CustomerID:      customerID,
		VehicleID:       vehicleID,
		Status:          domain.BookingStatusPending,
		ScheduledStart:  time.Now().Add(24 * time.Hour),
		ScheduledEnd:    time.Now().Add(48 * time.Hour),
		PickupLocation:  domain.GeoPoint{Lng: 38.76, Lat: 9.01, Address: "Bole Airport"},
		DropoffLocation: domain.GeoPoint{Lng: 38.70, Lat: 9.03, Address: "Piazza"},
		Pricing: domain.Pricing{
			BaseAmount:  300,
			Taxes:       30,
			Fees:        15,
			TotalAmount: 345,
			Currency:    "USD",
		},
		Payment: domain.Payment{
			Method: domain.PaymentMethodCash,
			Status: domain.PaymentStatusPending,
		},
		CreatedAt: time.Now(),
	}
}

func registeredDriver(userRepo *MockUserRepository, driverID, vehicleID string) {
	userRepo.AddUser(&domain.User{ID: driverID, Role: domain.RoleDriver})
	_ = userRepo.RegisterDriverVehicle(context.Background(), driverID, vehicleID)
}

func TestUpdateBooking_ConfirmWithoutDriverRejected(t *testing.T) {
	t.Parallel()

	svc, bookingRepo, _, vehicleRepo, _ := newBookingFixture()
	vehicleRepo.AddVehicle(activeVehicle("veh-1", "owner-1", 100, domain.RateTypeDaily))
	bookingRepo.AddBooking(pendingBooking("booking-1", "customer-1", "veh-1"))

	_, err := svc.UpdateBooking(context.Background(), service.UpdateBookingRequest{
		BookingID: "booking-1",
		CallerID:  "owner-1",
		Status:    domain.BookingStatusConfirmed,
	})
	if !errors.Is(err, service.ErrConfirmWithoutDriver) {
		t.Errorf("expected ErrConfirmWithoutDriver, got %v", err)
	}
}

func TestUpdateBooking_RejectsUnknownStatus(t *testing.T) {
	t.Parallel()

	svc, bookingRepo, _, vehicleRepo, _ := newBookingFixture()
	vehicleRepo.AddVehicle(activeVehicle("veh-1", "owner-1", 100, domain.RateTypeDaily))
	bookingRepo.AddBooking(pendingBooking("booking-1", "customer-1", "veh-1"))

	_, err := svc.UpdateBooking(context.Background(), service.UpdateBookingRequest{
		BookingID: "booking-1",
		CallerID:  "owner-1",
		Status:    "bogus",
	})
	if !errors.Is(err, service.ErrInvalidBookingStatus) {
		t.Errorf("expected ErrInvalidBookingStatus, got %v", err)
	}
	if got := bookingRepo.GetBooking("booking-1").Status; got != domain.BookingStatusPending {
		t.Errorf("booking must be untouched, got status %s", got)
	}
}

func TestUpdateBooking_NonOwnerForbidden(t *testing.T) {
	t.Parallel()

	svc, bookingRepo, _, vehicleRepo, _ := newBookingFixture()
	vehicleRepo.AddVehicle(activeVehicle("veh-1", "owner-1", 100, domain.RateTypeDaily))
	bookingRepo.AddBooking(pendingBooking("booking-1", "customer-1", "veh-1"))

	_, err := svc.UpdateBooking(context.Background(), service.UpdateBookingRequest{
		BookingID: "booking-1",
		CallerID:  "owner-2",
		Status:    domain.BookingStatusConfirmed,
		DriverID:  "driver-1",
	})
	if !errors.Is(err, service.ErrNotVehicleOwner) {
		t.Errorf("expected ErrNotVehicleOwner, got %v", err)
	}
}

func TestUpdateBooking_DriverEligibility(t *testing.T) {
	t.Parallel()

	svc, bookingRepo, _, vehicleRepo, userRepo := newBookingFixture()
	vehicleRepo.AddVehicle(activeVehicle("veh-1", "owner-1", 100, domain.RateTypeDaily))
	bookingRepo.AddBooking(pendingBooking("booking-1", "customer-1", "veh-1"))

	// A customer cannot be assigned as driver.
	userRepo.AddUser(&domain.User{ID: "user-customer", Role: domain.RoleCustomer})
	_, err := svc.UpdateBooking(context.Background(), service.UpdateBookingRequest{
		BookingID: "booking-1",
		CallerID:  "owner-1",
		DriverID:  "user-customer",
	})
	if !errors.Is(err, service.ErrNotADriver) {
		t.Errorf("expected ErrNotADriver, got %v", err)
	}

	// A driver who never registered to the vehicle is rejected.
	userRepo.AddUser(&domain.User{ID: "driver-unregistered", Role: domain.RoleDriver})
	_, err = svc.UpdateBooking(context.Background(), service.UpdateBookingRequest{
		BookingID: "booking-1",
		CallerID:  "owner-1",
		DriverID:  "driver-unregistered",
	})
	if !errors.Is(err, service.ErrDriverNotRegistered) {
		t.Errorf("expected ErrDriverNotRegistered, got %v", err)
	}
}

func TestCancelBooking_CustomerOnly(t *testing.T) {
	t.Parallel()

	svc, bookingRepo, _, vehicleRepo, _ := newBookingFixture()
	vehicleRepo.AddVehicle(activeVehicle("veh-1", "owner-1", 100, domain.RateTypeDaily))
	bookingRepo.AddBooking(pendingBooking("booking-1", "customer-1", "veh-1"))

	_, err := svc.CancelBooking(context.Background(), service.CancelBookingRequest{
		BookingID:  "booking-1",
		CustomerID: "customer-2",
	})
	if !errors.Is(err, service.ErrNotBookingCustomer) {
		t.Errorf("expected ErrNotBookingCustomer, got %v", err)
	}
}

func TestCancelBooking_DefaultReasonAndAudit(t *testing.T) {
	t.Parallel()

	svc, bookingRepo, _, vehicleRepo, _ := newBookingFixture()
	vehicleRepo.AddVehicle(activeVehicle("veh-1", "owner-1", 100, domain.RateTypeDaily))
	bookingRepo.AddBooking(pendingBooking("booking-1", "customer-1", "veh-1"))

	booking, err := svc.CancelBooking(context.Background(), service.CancelBookingRequest{
		BookingID:  "booking-1",
		CustomerID: "customer-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.Status != domain.BookingStatusCancelled {
		t.Errorf("expected cancelled, got %s", booking.Status)
	}
	if booking.CancelReason != "Customer cancelled" {
		t.Errorf("expected default reason, got %q", booking.CancelReason)
	}
	if booking.CancelledBy != "customer-1" {
		t.Errorf("expected cancelled_by customer-1, got %q", booking.CancelledBy)
	}
	if booking.CancelledAt.IsZero() {
		t.Error("expected cancelled_at to be stamped")
	}
}

func TestCancelBooking_TerminalStatesRejected(t *testing.T) {
	t.Parallel()

	svc, bookingRepo, _, vehicleRepo, _ := newBookingFixture()
	vehicleRepo.AddVehicle(activeVehicle("veh-1", "owner-1", 100, domain.RateTypeDaily))

	for _, status := range []domain.BookingStatus{
		domain.BookingStatusInProgress,
		domain.BookingStatusCompleted,
		domain.BookingStatusCancelled,
	} {
		booking := pendingBooking("booking-"+string(status), "customer-1", "veh-1")
		booking.Status = status
		bookingRepo.AddBooking(booking)

		_, err := svc.CancelBooking(context.Background(), service.CancelBookingRequest{
			BookingID:  booking.ID,
			CustomerID: "customer-1",
		})
		if !errors.Is(err, service.ErrBookingNotCancellable) {
			t.Errorf("status %s: expected ErrBookingNotCancellable, got %v", status, err)
		}
	}
}

func TestBookingStartComplete_DriverTransitions(t *testing.T) {
	t.Parallel()

	svc, bookingRepo, _, vehicleRepo, userRepo := newBookingFixture()
	vehicleRepo.AddVehicle(activeVehicle("veh-1", "owner-1", 100, domain.RateTypeDaily))
	registeredDriver(userRepo, "driver-1", "veh-1")

	booking := pendingBooking("booking-1", "customer-1", "veh-1")
	booking.Status = domain.BookingStatusConfirmed
	booking.DriverID = "driver-1"
	bookingRepo.AddBooking(booking)

	// Wrong driver cannot start.
	if _, err := svc.StartBookingTrip(context.Background(), "booking-1", "driver-2"); !errors.Is(err, service.ErrNotAssignedDriver) {
		t.Errorf("expected ErrNotAssignedDriver, got %v", err)
	}

	started, err := svc.StartBookingTrip(context.Background(), "booking-1", "driver-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if started.Status != domain.BookingStatusInProgress {
		t.Errorf("expected in_progress, got %s", started.Status)
	}

	// Starting twice is rejected.
	if _, err := svc.StartBookingTrip(context.Background(), "booking-1", "driver-1"); !errors.Is(err, service.ErrBookingNotStartable) {
		t.Errorf("expected ErrBookingNotStartable, got %v", err)
	}

	completed, err := svc.CompleteBookingTrip(context.Background(), "booking-1", "driver-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if completed.Status != domain.BookingStatusCompleted {
		t.Errorf("expected completed, got %s", completed.Status)
	}

	// Completing twice is rejected.
	if _, err := svc.CompleteBookingTrip(context.Background(), "booking-1", "driver-1"); !errors.Is(err, service.ErrBookingNotCompletable) {
		t.Errorf("expected ErrBookingNotCompletable, got %v", err)
	}
}
