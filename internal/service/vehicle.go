package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"fleet/internal/domain"
	"fleet/internal/redis"
	"fleet/internal/repository"
)

// VehicleService owns the vehicle registry: listing, availability, soft
// deletion with booking/trip cascade, and driver self-registration.
type VehicleService struct {
	vehicleRepo repository.VehicleRepository
	bookingRepo repository.BookingRepository
	tripRepo    repository.TripRepository
	userRepo    repository.UserRepository
	cache       redis.CacheStoreInterface
}

// NewVehicleService creates a new VehicleService. cache may be nil.
func NewVehicleService(
	vehicleRepo repository.VehicleRepository,
	bookingRepo repository.BookingRepository,
	tripRepo repository.TripRepository,
	userRepo repository.UserRepository,
	cache redis.CacheStoreInterface,
) *VehicleService {
	return &VehicleService{
		vehicleRepo: vehicleRepo,
		bookingRepo: bookingRepo,
		tripRepo:    tripRepo,
		userRepo:    userRepo,
		cache:       cache,
	}
}

// CreateVehicleRequest contains the parameters for listing a vehicle.
type CreateVehicleRequest struct {
	OwnerID      string
	Make         string
	Model        string
	Year         int
	LicensePlate string
	BaseRate     float64
	RateType     domain.RateType
	Currency     string
}

// CreateVehicle lists a new vehicle for the calling owner. New vehicles
// start active and available.
func (s *VehicleService) CreateVehicle(ctx context.Context, req CreateVehicleRequest) (*domain.Vehicle, error) {
	rateType := req.RateType
	if rateType == "" {
		rateType = domain.RateTypeDaily
	}
	if rateType != domain.RateTypeDaily && rateType != domain.RateTypeHourly {
		return nil, ErrInvalidRateType
	}
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	vehicle := &domain.Vehicle{
		ID:           uuid.New().String(),
		OwnerID:      req.OwnerID,
		Make:         req.Make,
		Model:        req.Model,
		Year:         req.Year,
		LicensePlate: req.LicensePlate,
		BaseRate:     req.BaseRate,
		RateType:     rateType,
		Currency:     currency,
		Availability: true,
		Status:       domain.VehicleStatusActive,
		CreatedAt:    time.Now(),
	}

	if err := s.vehicleRepo.Create(ctx, vehicle); err != nil {
		return nil, err
	}
	return vehicle, nil
}

// GetVehicle retrieves a vehicle by ID, serving availability and pricing
// fields from cache when fresh.
func (s *VehicleService) GetVehicle(ctx context.Context, vehicleID string) (*domain.Vehicle, error) {
	vehicle, err := s.vehicleRepo.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetVehicle(ctx, cachedProjection(vehicle)); err != nil {
			log.Printf("[CACHE] failed to cache vehicle %s: %v", vehicle.ID, err)
		}
	}
	return vehicle, nil
}

// GetAllVehicles retrieves listed vehicles matching the filter.
func (s *VehicleService) GetAllVehicles(ctx context.Context, filter repository.VehicleFilter) ([]*domain.Vehicle, error) {
	return s.vehicleRepo.GetAll(ctx, filter)
}

// UpdateVehicleRequest contains the owner-updatable vehicle fields.
type UpdateVehicleRequest struct {
	VehicleID    string
	CallerID     string
	BaseRate     *float64
	RateType     *domain.RateType
	Availability *bool
	Status       *domain.VehicleStatus
}

// UpdateVehicle applies owner updates to rate, availability, and status.
func (s *VehicleService) UpdateVehicle(ctx context.Context, req UpdateVehicleRequest) (*domain.Vehicle, error) {
	vehicle, err := s.vehicleRepo.GetByID(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle.OwnerID != req.CallerID {
		return nil, ErrNotVehicleOwner
	}

	if req.BaseRate != nil {
		vehicle.BaseRate = *req.BaseRate
	}
	if req.RateType != nil {
		if *req.RateType != domain.RateTypeDaily && *req.RateType != domain.RateTypeHourly {
			return nil, ErrInvalidRateType
		}
		vehicle.RateType = *req.RateType
	}
	if req.Availability != nil {
		vehicle.Availability = *req.Availability
	}
	if req.Status != nil {
		vehicle.Status = *req.Status
	}

	if err := s.vehicleRepo.Update(ctx, vehicle); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx, vehicle.ID)
	return vehicle, nil
}

// cancelCascadeReason is stamped on bookings cancelled because their
// vehicle was removed from the fleet.
const cancelCascadeReason = "Vehicle deleted by owner"

// DeleteVehicle soft-deletes a vehicle and cancels its active bookings
// and trips. Owners may delete their own vehicles; admins may delete any.
// The cascade is best-effort: a failed bulk cancel is logged, not rolled
// back, so a retryable partial state is possible.
func (s *VehicleService) DeleteVehicle(ctx context.Context, vehicleID, callerID string, callerRole domain.Role) error {
	vehicle, err := s.vehicleRepo.GetByID(ctx, vehicleID)
	if err != nil {
		return err
	}
	if callerRole != domain.RoleAdmin && vehicle.OwnerID != callerID {
		return ErrNotVehicleOwner
	}

	if err := s.vehicleRepo.SoftDelete(ctx, vehicleID); err != nil {
		return err
	}
	s.invalidateCache(ctx, vehicleID)

	now := time.Now()
	if n, err := s.bookingRepo.CancelActiveByVehicleID(ctx, vehicleID, cancelCascadeReason, now); err != nil {
		log.Printf("[CASCADE] failed to cancel bookings for vehicle %s: %v", vehicleID, err)
	} else if n > 0 {
		log.Printf("[CASCADE] cancelled %d bookings for deleted vehicle %s", n, vehicleID)
	}
	if n, err := s.tripRepo.CancelActiveByVehicleID(ctx, vehicleID, now); err != nil {
		log.Printf("[CASCADE] failed to cancel trips for vehicle %s: %v", vehicleID, err)
	} else if n > 0 {
		log.Printf("[CASCADE] cancelled %d trips for deleted vehicle %s", n, vehicleID)
	}

	return nil
}

// RegisterDriver records the calling driver as eligible to drive the
// vehicle. Registering twice is a no-op.
func (s *VehicleService) RegisterDriver(ctx context.Context, driverID, vehicleID string) error {
	driver, err := s.userRepo.GetByID(ctx, driverID)
	if err != nil {
		return err
	}
	if driver.Role != domain.RoleDriver {
		return ErrNotADriver
	}

	if _, err := s.vehicleRepo.GetByID(ctx, vehicleID); err != nil {
		return err
	}

	return s.userRepo.RegisterDriverVehicle(ctx, driverID, vehicleID)
}

func (s *VehicleService) invalidateCache(ctx context.Context, vehicleID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateVehicle(ctx, vehicleID); err != nil {
		log.Printf("[CACHE] failed to invalidate vehicle %s: %v", vehicleID, err)
	}
}

func cachedProjection(v *domain.Vehicle) *redis.CachedVehicle {
	return &redis.CachedVehicle{
		ID:           v.ID,
		OwnerID:      v.OwnerID,
		BaseRate:     v.BaseRate,
		RateType:     string(v.RateType),
		Currency:     v.Currency,
		Availability: v.Availability,
		Status:       string(v.Status),
	}
}
