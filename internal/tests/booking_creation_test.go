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
// 1. BOOKING CREATION AND PRICING
// ──────────────────────────────────────────────

func newBookingFixture() (*service.BookingService, *MockBookingRepository, *MockTripRepository, *MockVehicleRepository, *MockUserRepository) {
	bookingRepo := NewMockBookingRepository()
	tripRepo := NewMockTripRepository()
	vehicleRepo := NewMockVehicleRepository()
	userRepo := NewMockUserRepository()

	svc := service.NewBookingService(nil, bookingRepo, tripRepo, vehicleRepo, userRepo, nil, NewMockLockStore(), nil)
	return svc, bookingRepo, tripRepo, vehicleRepo, userRepo
}

func activeVehicle(id, ownerID string, rate float64, rateType domain.RateType) *domain.Vehicle {
	return &domain.Vehicle{
		ID:           id,
		OwnerID:      ownerID,
		Make:         "Toyota",
		Model:        "Hiace",
		Year:         2021,
		BaseRate:     rate,
		RateType:     rateType,
		Currency:     "USD",
		Availability: true,
		Status:       domain.VehicleStatusActive,
		CreatedAt:    time.Now(),
	}
}

func validCreateRequest(vehicleID string) service.CreateBookingRequest {
	return service.CreateBookingRequest{
		CustomerID:      "customer-1",
		VehicleID:       vehicleID,
		PickupDate:      time.Now().Add(24 * time.Hour),
		DropoffDate:     time.Now().Add(96 * time.Hour),
		PickupLocation:  domain.GeoPoint{Lng: 38.76, Lat: 9.01, Address: "Bole Airport"},
		DropoffLocation: domain.GeoPoint{Lng: 38.70, Lat: 9.03, Address: "Piazza"},
		PaymentMethod:   domain.PaymentMethodCash,
	}
}

func TestCreateBooking_DailyPricing(t *testing.T) {
	t.Parallel()

	svc, _, _, vehicleRepo, _ := newBookingFixture()
	vehicleRepo.AddVehicle(activeVehicle("veh-1", "owner-1", 100, domain.RateTypeDaily))

	req := validCreateRequest("veh-1")
	// 72h range is exactly 3 billable days.
	req.DropoffDate = req.PickupDate.Add(72 * time.Hour)

	booking, err := svc.CreateBooking(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.Pricing.BaseAmount != 300 {
		t.Errorf("expected base amount 300, got %v", booking.Pricing.BaseAmount)
	}
	if booking.Pricing.Taxes != 30 {
		t.Errorf("expected taxes 30, got %v", booking.Pricing.Taxes)
	}
	if booking.Pricing.Fees != 15 {
		t.Errorf("expected fees 15, got %v", booking.Pricing.Fees)
	}
	if booking.Pricing.TotalAmount != 345 {
		t.Errorf("expected total 345, got %v", booking.Pricing.TotalAmount)
	}
	if booking.Status != domain.BookingStatusPending {
		t.Errorf("expected pending status, got %s", booking.Status)
	}
	if booking.Payment.Status != domain.PaymentStatusPending {
		t.Errorf("expected pending payment, got %s", booking.Payment.Status)
	}
}

func TestCreateBooking_PartialDayRoundsUp(t *testing.T) {
	t.Parallel()

	svc, _, _, vehicleRepo, _ := newBookingFixture()
	vehicleRepo.AddVehicle(activeVehicle("veh-1", "owner-1", 100, domain.RateTypeDaily))

	req := validCreateRequest("veh-1")
	// 50h is more than 2 days, so 3 days are billed.
	req.DropoffDate = req.PickupDate.Add(50 * time.Hour)

	booking, err := svc.CreateBooking(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.Pricing.BaseAmount != 300 {
		t.Errorf("expected base amount 300 for partial third day, got %v", booking.Pricing.BaseAmount)
	}
}

func TestCreateBooking_HourlyPricing(t *testing.T) {
	t.Parallel()

	svc, _, _, vehicleRepo, _ := newBookingFixture()
	vehicleRepo.AddVehicle(activeVehicle("veh-1", "owner-1", 10, domain.RateTypeHourly))

	req := validCreateRequest("veh-1")
	// 30h range bills 2 days worth of hours: 48 * 10 = 480.
	req.DropoffDate = req.PickupDate.Add(30 * time.Hour)

	booking, err := svc.CreateBooking(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.Pricing.BaseAmount != 480 {
		t.Errorf("expected base amount 480, got %v", booking.Pricing.BaseAmount)
	}
	if booking.Pricing.TotalAmount != 480+48+24 {
		t.Errorf("expected total 552, got %v", booking.Pricing.TotalAmount)
	}
}

func TestCreateBooking_ValidationFailures(t *testing.T) {
	t.Parallel()

	svc, _, _, vehicleRepo, _ := newBookingFixture()
	vehicleRepo.AddVehicle(activeVehicle("veh-1", "owner-1", 100, domain.RateTypeDaily))

	testCases := []struct {
		name    string
		mutate  func(*service.CreateBookingRequest)
		wantErr error
	}{
		{
			name: "dropoff before pickup",
			mutate: func(r *service.CreateBookingRequest) {
				r.DropoffDate = r.PickupDate.Add(-time.Hour)
			},
			wantErr: service.ErrInvalidDateRange,
		},
		{
			name: "pickup in the past",
			mutate: func(r *service.CreateBookingRequest) {
				r.PickupDate = time.Now().Add(-time.Hour)
				r.DropoffDate = time.Now().Add(24 * time.Hour)
			},
			wantErr: service.ErrPickupInPast,
		},
		{
			name: "pickup longitude out of range",
			mutate: func(r *service.CreateBookingRequest) {
				r.PickupLocation.Lng = 200
			},
			wantErr: service.ErrInvalidPickupLocation,
		},
		{
			name: "dropoff address missing",
			mutate: func(r *service.CreateBookingRequest) {
				r.DropoffLocation.Address = ""
			},
			wantErr: service.ErrInvalidDropoffLocation,
		},
		{
			name: "unknown payment method",
			mutate: func(r *service.CreateBookingRequest) {
				r.PaymentMethod = "crypto"
			},
			wantErr: service.ErrInvalidPaymentMethod,
		},
		{
			name: "unknown vehicle",
			mutate: func(r *service.CreateBookingRequest) {
				r.VehicleID = "veh-missing"
			},
			wantErr: repository.ErrNotFound,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := validCreateRequest("veh-1")
			tc.mutate(&req)

			_, err := svc.CreateBooking(context.Background(), req)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestCreateBooking_UnavailableVehicleRejected(t *testing.T) {
	t.Parallel()

	svc, _, _, vehicleRepo, _ := newBookingFixture()

	maintenance := activeVehicle("veh-1", "owner-1", 100, domain.RateTypeDaily)
	maintenance.Status = domain.VehicleStatusMaintenance
	vehicleRepo.AddVehicle(maintenance)

	unavailable := activeVehicle("veh-2", "owner-1", 100, domain.RateTypeDaily)
	unavailable.Availability = false
	vehicleRepo.AddVehicle(unavailable)

	for _, vehicleID := range []string{"veh-1", "veh-2"} {
		_, err := svc.CreateBooking(context.Background(), validCreateRequest(vehicleID))
		if !errors.Is(err, service.ErrVehicleUnavailable) {
			t.Errorf("vehicle %s: expected ErrVehicleUnavailable, got %v", vehicleID, err)
		}
	}
}

func TestCreateBooking_DefaultPaymentMethod(t *testing.T) {
	t.Parallel()

	svc, _, _, vehicleRepo, _ := newBookingFixture()
	vehicleRepo.AddVehicle(activeVehicle("veh-1", "owner-1", 100, domain.RateTypeDaily))

	req := validCreateRequest("veh-1")
	req.PaymentMethod = ""

	booking, err := svc.CreateBooking(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.Payment.Method != domain.PaymentMethodCreditCard {
		t.Errorf("expected default credit_card, got %s", booking.Payment.Method)
	}
}

func TestCreateBooking_VehicleServedFromCache(t *testing.T) {
	t.Parallel()

	bookingRepo := NewMockBookingRepository()
	vehicleRepo := NewMockVehicleRepository()
	cache := NewMockCacheStore()
	svc := service.NewBookingService(nil, bookingRepo, NewMockTripRepository(), vehicleRepo, NewMockUserRepository(), cache, NewMockLockStore(), nil)

	vehicleRepo.AddVehicle(activeVehicle("veh-1", "owner-1", 100, domain.RateTypeDaily))

	// First create misses the cache and populates it.
	if _, err := svc.CreateBooking(context.Background(), validCreateRequest("veh-1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.SetCallCount != 1 {
		t.Errorf("expected cache populated once, got %d sets", cache.SetCallCount)
	}

	// Second create is served from cache.
	if _, err := svc.CreateBooking(context.Background(), validCreateRequest("veh-1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.HitCount != 1 {
		t.Errorf("expected one cache hit, got %d", cache.HitCount)
	}
}
