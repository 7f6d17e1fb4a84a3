package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"fleet/internal/domain"
	"fleet/internal/repository"
	"fleet/internal/service"
)

// ──────────────────────────────────────────────
// 5. VEHICLE REGISTRY AND DELETE CASCADE
// ──────────────────────────────────────────────

func newVehicleFixture() (*service.VehicleService, *MockVehicleRepository, *MockBookingRepository, *MockTripRepository, *MockUserRepository, *MockCacheStore) {
	vehicleRepo := NewMockVehicleRepository()
	bookingRepo := NewMockBookingRepository()
	tripRepo := NewMockTripRepository()
	userRepo := NewMockUserRepository()
	cache := NewMockCacheStore()

	svc := service.NewVehicleService(vehicleRepo, bookingRepo, tripRepo, userRepo, cache)
	return svc, vehicleRepo, bookingRepo, tripRepo, userRepo, cache
}

func TestCreateVehicle_Defaults(t *testing.T) {
	t.Parallel()

	svc, _, _, _, _, _ := newVehicleFixture()

	vehicle, err := svc.CreateVehicle(context.Background(), service.CreateVehicleRequest{
		OwnerID:      "owner-1",
		Make:         "Toyota",
		Model:        "Hiace",
		Year:         2021,
		LicensePlate: "AA-12345",
		BaseRate:     100,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if vehicle.RateType != domain.RateTypeDaily {
		t.Errorf("expected default daily rate type, got %s", vehicle.RateType)
	}
	if vehicle.Currency != "USD" {
		t.Errorf("expected default USD, got %s", vehicle.Currency)
	}
	if !vehicle.Bookable() {
		t.Error("new vehicle should be bookable")
	}
}

func TestCreateVehicle_InvalidRateType(t *testing.T) {
	t.Parallel()

	svc, _, _, _, _, _ := newVehicleFixture()

	_, err := svc.CreateVehicle(context.Background(), service.CreateVehicleRequest{
		OwnerID:  "owner-1",
		BaseRate: 100,
		RateType: "weekly",
	})
	if !errors.Is(err, service.ErrInvalidRateType) {
		t.Errorf("expected ErrInvalidRateType, got %v", err)
	}
}

func TestDeleteVehicle_CancelsActiveBookingsAndTrips(t *testing.T) {
	t.Parallel()

	svc, vehicleRepo, bookingRepo, tripRepo, _, _ := newVehicleFixture()
	vehicleRepo.AddVehicle(activeVehicle("veh-1", "owner-1", 100, domain.RateTypeDaily))

	active := pendingBooking("booking-active", "customer-1", "veh-1")
	bookingRepo.AddBooking(active)

	done := pendingBooking("booking-done", "customer-2", "veh-1")
	done.Status = domain.BookingStatusCompleted
	bookingRepo.AddBooking(done)

	tripRepo.BookingVehicles["booking-active"] = "veh-1"
	tripRepo.AddTrip(&domain.Trip{
		ID:        "trip-1",
		BookingID: "booking-active",
		DriverID:  "driver-1",
		Status:    domain.TripStatusScheduled,
	})

	if err := svc.DeleteVehicle(context.Background(), "veh-1", "owner-1", domain.RoleVehicleOwner); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Vehicle is soft-deleted, not gone.
	if !vehicleRepo.GetVehicle("veh-1").IsDeleted {
		t.Error("expected vehicle soft-deleted")
	}
	if _, err := vehicleRepo.GetByID(context.Background(), "veh-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("soft-deleted vehicle should read as not found, got %v", err)
	}

	// Active booking cancelled with the cascade reason; completed one kept.
	cancelled := bookingRepo.GetBooking("booking-active")
	if cancelled.Status != domain.BookingStatusCancelled {
		t.Errorf("expected active booking cancelled, got %s", cancelled.Status)
	}
	if cancelled.CancelReason != "Vehicle deleted by owner" {
		t.Errorf("unexpected cancel reason %q", cancelled.CancelReason)
	}
	if got := bookingRepo.GetBooking("booking-done").Status; got != domain.BookingStatusCompleted {
		t.Errorf("completed booking must not be touched, got %s", got)
	}

	// Trip cancelled too.
	if got := tripRepo.GetTrip("trip-1").Status; got != domain.TripStatusCancelled {
		t.Errorf("expected trip cancelled, got %s", got)
	}
}

func TestDeleteVehicle_SecondDeleteNotFound(t *testing.T) {
	t.Parallel()

	svc, vehicleRepo, _, _, _, _ := newVehicleFixture()
	vehicleRepo.AddVehicle(activeVehicle("veh-1", "owner-1", 100, domain.RateTypeDaily))

	if err := svc.DeleteVehicle(context.Background(), "veh-1", "owner-1", domain.RoleVehicleOwner); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.DeleteVehicle(context.Background(), "veh-1", "owner-1", domain.RoleVehicleOwner); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestDeleteVehicle_NonOwnerForbidden(t *testing.T) {
	t.Parallel()

	svc, vehicleRepo, bookingRepo, _, _, _ := newVehicleFixture()
	vehicleRepo.AddVehicle(activeVehicle("veh-1", "owner-1", 100, domain.RateTypeDaily))

	if err := svc.DeleteVehicle(context.Background(), "veh-1", "owner-2", domain.RoleVehicleOwner); !errors.Is(err, service.ErrNotVehicleOwner) {
		t.Errorf("expected ErrNotVehicleOwner, got %v", err)
	}
	if bookingRepo.CancelByVehicleCount != 0 {
		t.Error("cascade must not run for forbidden delete")
	}
}

func TestDeleteVehicle_AdminDeletesAnyVehicle(t *testing.T) {
	t.Parallel()

	svc, vehicleRepo, bookingRepo, _, _, _ := newVehicleFixture()
	vehicleRepo.AddVehicle(activeVehicle("veh-1", "owner-1", 100, domain.RateTypeDaily))
	bookingRepo.AddBooking(pendingBooking("booking-1", "customer-1", "veh-1"))

	// An admin who owns nothing may still delete, and the cascade runs.
	if err := svc.DeleteVehicle(context.Background(), "veh-1", "admin-1", domain.RoleAdmin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !vehicleRepo.GetVehicle("veh-1").IsDeleted {
		t.Error("expected vehicle soft-deleted")
	}
	if got := bookingRepo.GetBooking("booking-1").Status; got != domain.BookingStatusCancelled {
		t.Errorf("expected active booking cancelled, got %s", got)
	}
}

func TestDeleteVehicle_InvalidatesCache(t *testing.T) {
	t.Parallel()

	svc, vehicleRepo, _, _, _, cache := newVehicleFixture()
	vehicleRepo.AddVehicle(activeVehicle("veh-1", "owner-1", 100, domain.RateTypeDaily))

	// Populate the cache through a read.
	if _, err := svc.GetVehicle(context.Background(), "veh-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.SetCallCount != 1 {
		t.Fatalf("expected cache populated, got %d sets", cache.SetCallCount)
	}

	if err := svc.DeleteVehicle(context.Background(), "veh-1", "owner-1", domain.RoleVehicleOwner); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.InvalidateCallCount != 1 {
		t.Errorf("expected cache invalidation, got %d", cache.InvalidateCallCount)
	}
}

func TestGetAllVehicles_Filters(t *testing.T) {
	t.Parallel()

	svc, vehicleRepo, _, _, _, _ := newVehicleFixture()

	cheap := activeVehicle("veh-cheap", "owner-1", 50, domain.RateTypeDaily)
	vehicleRepo.AddVehicle(cheap)

	pricey := activeVehicle("veh-pricey", "owner-1", 400, domain.RateTypeDaily)
	vehicleRepo.AddVehicle(pricey)

	parked := activeVehicle("veh-parked", "owner-2", 120, domain.RateTypeDaily)
	parked.Availability = false
	parked.Status = domain.VehicleStatusMaintenance
	vehicleRepo.AddVehicle(parked)

	all, err := svc.GetAllVehicles(context.Background(), repository.VehicleFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 vehicles unfiltered, got %d", len(all))
	}

	maintenance, err := svc.GetAllVehicles(context.Background(), repository.VehicleFilter{
		Status: domain.VehicleStatusMaintenance,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(maintenance) != 1 || maintenance[0].ID != "veh-parked" {
		t.Errorf("expected only veh-parked in maintenance, got %d vehicles", len(maintenance))
	}

	available := true
	minRate := 40.0
	maxRate := 200.0
	affordable, err := svc.GetAllVehicles(context.Background(), repository.VehicleFilter{
		Availability: &available,
		MinRate:      &minRate,
		MaxRate:      &maxRate,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(affordable) != 1 || affordable[0].ID != "veh-cheap" {
		t.Errorf("expected only veh-cheap available in 40-200, got %d vehicles", len(affordable))
	}
}

func TestRegisterDriver_RoleChecked(t *testing.T) {
	t.Parallel()

	svc, vehicleRepo, _, _, userRepo, _ := newVehicleFixture()
	vehicleRepo.AddVehicle(activeVehicle("veh-1", "owner-1", 100, domain.RateTypeDaily))

	userRepo.AddUser(&domain.User{ID: "user-1", Role: domain.RoleCustomer})
	if err := svc.RegisterDriver(context.Background(), "user-1", "veh-1"); !errors.Is(err, service.ErrNotADriver) {
		t.Errorf("expected ErrNotADriver, got %v", err)
	}

	userRepo.AddUser(&domain.User{ID: "driver-1", Role: domain.RoleDriver})
	if err := svc.RegisterDriver(context.Background(), "driver-1", "veh-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	registered, err := userRepo.IsDriverRegistered(context.Background(), "driver-1", "veh-1")
	if err != nil || !registered {
		t.Errorf("expected driver registered, got %v %v", registered, err)
	}

	// Registering twice is a no-op.
	if err := svc.RegisterDriver(context.Background(), "driver-1", "veh-1"); err != nil {
		t.Errorf("expected idempotent registration, got %v", err)
	}
}

func TestUpdateVehicle_OwnerOnlyAndCacheInvalidation(t *testing.T) {
	t.Parallel()

	svc, vehicleRepo, _, _, _, cache := newVehicleFixture()
	vehicle := activeVehicle("veh-1", "owner-1", 100, domain.RateTypeDaily)
	vehicle.CreatedAt = time.Now().Add(-time.Hour)
	vehicleRepo.AddVehicle(vehicle)

	newRate := 150.0
	_, err := svc.UpdateVehicle(context.Background(), service.UpdateVehicleRequest{
		VehicleID: "veh-1",
		CallerID:  "owner-2",
		BaseRate:  &newRate,
	})
	if !errors.Is(err, service.ErrNotVehicleOwner) {
		t.Errorf("expected ErrNotVehicleOwner, got %v", err)
	}

	updated, err := svc.UpdateVehicle(context.Background(), service.UpdateVehicleRequest{
		VehicleID: "veh-1",
		CallerID:  "owner-1",
		BaseRate:  &newRate,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.BaseRate != 150 {
		t.Errorf("expected base rate 150, got %v", updated.BaseRate)
	}
	if cache.InvalidateCallCount != 1 {
		t.Errorf("expected cache invalidated on update, got %d", cache.InvalidateCallCount)
	}
}
