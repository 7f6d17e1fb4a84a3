package tests

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"fleet/internal/domain"
	"fleet/internal/redis"
	"fleet/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK VEHICLE REPOSITORY
// ──────────────────────────────────────────────

// MockVehicleRepository is a mock implementation of VehicleRepository.
type MockVehicleRepository struct {
	mu       sync.RWMutex
	vehicles map[string]*domain.Vehicle

	// Counters for verification
	CreateCallCount     int32
	UpdateCallCount     int32
	SoftDeleteCallCount int32

	// Error injection
	CreateError     error
	UpdateError     error
	SoftDeleteError error
}

// NewMockVehicleRepository creates a new mock vehicle repository.
func NewMockVehicleRepository() *MockVehicleRepository {
	return &MockVehicleRepository{
		vehicles: make(map[string]*domain.Vehicle),
	}
}

// AddVehicle adds a vehicle to the mock repository.
func (m *MockVehicleRepository) AddVehicle(vehicle *domain.Vehicle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles[vehicle.ID] = vehicle
}

func (m *MockVehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles[vehicle.ID] = vehicle
	return nil
}

func (m *MockVehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vehicle, ok := m.vehicles[id]
	if !ok || vehicle.IsDeleted {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *vehicle
	return &copy, nil
}

func (m *MockVehicleRepository) GetAll(ctx context.Context, filter repository.VehicleFilter) ([]*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Vehicle, 0, len(m.vehicles))
	for _, v := range m.vehicles {
		if v.IsDeleted {
			continue
		}
		if filter.Status != "" && v.Status != filter.Status {
			continue
		}
		if filter.Availability != nil && v.Availability != *filter.Availability {
			continue
		}
		if filter.MinRate != nil && v.BaseRate < *filter.MinRate {
			continue
		}
		if filter.MaxRate != nil && v.BaseRate > *filter.MaxRate {
			continue
		}
		copy := *v
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockVehicleRepository) Update(ctx context.Context, vehicle *domain.Vehicle) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.vehicles[vehicle.ID]
	if !ok || existing.IsDeleted {
		return repository.ErrNotFound
	}
	m.vehicles[vehicle.ID] = vehicle
	return nil
}

func (m *MockVehicleRepository) SoftDelete(ctx context.Context, id string) error {
	atomic.AddInt32(&m.SoftDeleteCallCount, 1)
	if m.SoftDeleteError != nil {
		return m.SoftDeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	vehicle, ok := m.vehicles[id]
	if !ok || vehicle.IsDeleted {
		return repository.ErrNotFound
	}
	vehicle.IsDeleted = true
	return nil
}

// GetVehicle returns the raw vehicle by ID (for test assertions), including
// soft-deleted rows.
func (m *MockVehicleRepository) GetVehicle(id string) *domain.Vehicle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.vehicles[id]
}

// ──────────────────────────────────────────────
// MOCK BOOKING REPOSITORY
// ──────────────────────────────────────────────

// MockBookingRepository is a mock implementation of BookingRepository.
// VehicleOwners maps vehicle id to owner id for the owner listing query.
type MockBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*domain.Booking

	VehicleOwners map[string]string

	// Counters for verification
	CreateCallCount      int32
	UpdateCallCount      int32
	CancelByVehicleCount int32

	// Error injection
	CreateError error
	UpdateError error
}

// NewMockBookingRepository creates a new mock booking repository.
func NewMockBookingRepository() *MockBookingRepository {
	return &MockBookingRepository{
		bookings:      make(map[string]*domain.Booking),
		VehicleOwners: make(map[string]string),
	}
}

// AddBooking adds a booking to the mock repository.
func (m *MockBookingRepository) AddBooking(booking *domain.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[booking.ID] = booking
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[booking.ID] = booking
	return nil
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	booking, ok := m.bookings[id]
	if !ok || booking.IsDeleted {
		return nil, repository.ErrNotFound
	}
	copy := *booking
	return &copy, nil
}

func (m *MockBookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.bookings[booking.ID]
	if !ok || existing.IsDeleted {
		return repository.ErrNotFound
	}
	m.bookings[booking.ID] = booking
	return nil
}

func (m *MockBookingRepository) GetAll(ctx context.Context, status domain.BookingStatus) ([]*domain.Booking, error) {
	return m.list(func(b *domain.Booking) bool {
		return status == "" || b.Status == status
	}), nil
}

func (m *MockBookingRepository) GetByCustomerID(ctx context.Context, customerID string) ([]*domain.Booking, error) {
	return m.list(func(b *domain.Booking) bool { return b.CustomerID == customerID }), nil
}

func (m *MockBookingRepository) GetByDriverID(ctx context.Context, driverID string) ([]*domain.Booking, error) {
	return m.list(func(b *domain.Booking) bool { return b.DriverID == driverID }), nil
}

func (m *MockBookingRepository) GetByVehicleOwnerID(ctx context.Context, ownerID string) ([]*domain.Booking, error) {
	return m.list(func(b *domain.Booking) bool { return m.VehicleOwners[b.VehicleID] == ownerID }), nil
}

func (m *MockBookingRepository) CancelActiveByVehicleID(ctx context.Context, vehicleID, reason string, at time.Time) (int64, error) {
	atomic.AddInt32(&m.CancelByVehicleCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, b := range m.bookings {
		if b.VehicleID != vehicleID || b.Status.IsTerminal() {
			continue
		}
		b.Status = domain.BookingStatusCancelled
		b.CancelReason = reason
		b.CancelledAt = at
		n++
	}
	return n, nil
}

func (m *MockBookingRepository) list(keep func(*domain.Booking) bool) []*domain.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Booking, 0, len(m.bookings))
	for _, b := range m.bookings {
		if b.IsDeleted || !keep(b) {
			continue
		}
		copy := *b
		result = append(result, &copy)
	}
	return result
}

// GetBooking returns the booking by ID (for test assertions).
func (m *MockBookingRepository) GetBooking(id string) *domain.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bookings[id]
}

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of TripRepository. Like the
// real table's unique index, Create rejects a second trip for the same
// booking with ErrDuplicateTrip.
//
// BookingVehicles maps booking id to vehicle id for the delete cascade.
type MockTripRepository struct {
	mu    sync.RWMutex
	trips map[string]*domain.Trip

	BookingVehicles map[string]string

	// Counters for verification
	CreateCallCount      int32
	UpdateCallCount      int32
	CancelByVehicleCount int32

	// Error injection
	CreateError error
	UpdateError error
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{
		trips:           make(map[string]*domain.Trip),
		BookingVehicles: make(map[string]string),
	}
}

// AddTrip adds a trip to the mock repository.
func (m *MockTripRepository) AddTrip(trip *domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.trips {
		if t.BookingID == trip.BookingID {
			return repository.ErrDuplicateTrip
		}
	}
	m.trips[trip.ID] = trip
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *trip
	return &copy, nil
}

func (m *MockTripRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.trips {
		if t.BookingID == bookingID {
			copy := *t
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MockTripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trips[trip.ID]; !ok {
		return repository.ErrNotFound
	}
	m.trips[trip.ID] = trip
	return nil
}

func (m *MockTripRepository) GetAll(ctx context.Context, status domain.TripStatus) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Trip, 0, len(m.trips))
	for _, t := range m.trips {
		if status != "" && t.Status != status {
			continue
		}
		copy := *t
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockTripRepository) GetByDriverID(ctx context.Context, driverID string) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Trip, 0, len(m.trips))
	for _, t := range m.trips {
		if t.DriverID != driverID {
			continue
		}
		copy := *t
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockTripRepository) CancelActiveByVehicleID(ctx context.Context, vehicleID string, at time.Time) (int64, error) {
	atomic.AddInt32(&m.CancelByVehicleCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, t := range m.trips {
		if m.BookingVehicles[t.BookingID] != vehicleID || t.Status.IsTerminal() {
			continue
		}
		t.Status = domain.TripStatusCancelled
		t.EndTime = at
		n++
	}
	return n, nil
}

func (m *MockTripRepository) Summary(ctx context.Context) (*domain.TripSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var s domain.TripSummary
	for _, t := range m.trips {
		s.TotalTrips++
		switch t.Status {
		case domain.TripStatusScheduled:
			s.ScheduledTrips++
		case domain.TripStatusInProgress:
			s.InProgressTrips++
		case domain.TripStatusCompleted:
			s.CompletedTrips++
			s.TotalRevenue += t.Earnings.TotalAmount
		case domain.TripStatusCancelled:
			s.CancelledTrips++
		}
	}
	return &s, nil
}

// GetTrip returns the trip by ID (for test assertions).
func (m *MockTripRepository) GetTrip(id string) *domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trips[id]
}

// CountTrips returns the number of stored trips.
func (m *MockTripRepository) CountTrips() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.trips)
}

// TripForBooking returns the trip for a booking (for test assertions).
func (m *MockTripRepository) TripForBooking(bookingID string) *domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.trips {
		if t.BookingID == bookingID {
			return t
		}
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu            sync.RWMutex
	users         map[string]*domain.User
	registrations map[string]map[string]bool // driver id -> vehicle id set

	// Counters for verification
	RegisterCallCount int32

	// Error injection
	RegisterError error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:         make(map[string]*domain.User),
		registrations: make(map[string]map[string]bool),
	}
}

// AddUser adds a user to the mock repository.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *user
	return &copy, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) RegisterDriverVehicle(ctx context.Context, driverID, vehicleID string) error {
	atomic.AddInt32(&m.RegisterCallCount, 1)
	if m.RegisterError != nil {
		return m.RegisterError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.registrations[driverID] == nil {
		m.registrations[driverID] = make(map[string]bool)
	}
	m.registrations[driverID][vehicleID] = true
	return nil
}

func (m *MockUserRepository) IsDriverRegistered(ctx context.Context, driverID, vehicleID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.registrations[driverID][vehicleID], nil
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is an in-memory implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool

	// Counters for verification
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{locks: make(map[string]bool)}
}

func (m *MockLockStore) AcquireBookingLock(ctx context.Context, bookingID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[bookingID] {
		return false, nil
	}
	m.locks[bookingID] = true
	return true, nil
}

func (m *MockLockStore) ReleaseBookingLock(ctx context.Context, bookingID string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, bookingID)
	return nil
}

// ──────────────────────────────────────────────
// MOCK CACHE STORE
// ──────────────────────────────────────────────

// MockCacheStore is an in-memory implementation of CacheStoreInterface.
type MockCacheStore struct {
	mu       sync.RWMutex
	vehicles map[string]*redis.CachedVehicle

	// Counters for verification
	GetCallCount        int32
	SetCallCount        int32
	InvalidateCallCount int32
	HitCount            int32
}

// NewMockCacheStore creates a new mock cache store.
func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{vehicles: make(map[string]*redis.CachedVehicle)}
}

func (m *MockCacheStore) GetVehicle(ctx context.Context, vehicleID string) (*redis.CachedVehicle, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	vehicle, ok := m.vehicles[vehicleID]
	if !ok {
		return nil, nil
	}
	atomic.AddInt32(&m.HitCount, 1)
	copy := *vehicle
	return &copy, nil
}

func (m *MockCacheStore) SetVehicle(ctx context.Context, vehicle *redis.CachedVehicle) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles[vehicle.ID] = vehicle
	return nil
}

func (m *MockCacheStore) InvalidateVehicle(ctx context.Context, vehicleID string) error {
	atomic.AddInt32(&m.InvalidateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vehicles, vehicleID)
	return nil
}

// Interface conformance checks.
var (
	_ repository.VehicleRepository = (*MockVehicleRepository)(nil)
	_ repository.BookingRepository = (*MockBookingRepository)(nil)
	_ repository.TripRepository    = (*MockTripRepository)(nil)
	_ repository.UserRepository    = (*MockUserRepository)(nil)
	_ redis.LockStoreInterface     = (*MockLockStore)(nil)
	_ redis.CacheStoreInterface    = (*MockCacheStore)(nil)
)
