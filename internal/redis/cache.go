package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles vehicle caching in Redis. Vehicle records are read
// on every booking creation, so they are the one entity worth caching.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// VehicleCacheTTL bounds staleness of availability and pricing reads.
const VehicleCacheTTL = 30 * time.Second

const vehicleCachePrefix = "cache:vehicle:"

// CachedVehicle is the cached projection of a vehicle record.
type CachedVehicle struct {
	ID           string  `json:"id"`
	OwnerID      string  `json:"owner_id"`
	BaseRate     float64 `json:"base_rate"`
	RateType     string  `json:"rate_type"`
	Currency     string  `json:"currency"`
	Availability bool    `json:"availability"`
	Status       string  `json:"status"`
}

// GetVehicle retrieves a vehicle from cache. Returns nil, nil on miss.
func (s *CacheStore) GetVehicle(ctx context.Context, vehicleID string) (*CachedVehicle, error) {
	data, err := s.client.Get(ctx, vehicleCachePrefix+vehicleID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var vehicle CachedVehicle
	if err := json.Unmarshal(data, &vehicle); err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// SetVehicle stores a vehicle in cache.
func (s *CacheStore) SetVehicle(ctx context.Context, vehicle *CachedVehicle) error {
	data, err := json.Marshal(vehicle)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, vehicleCachePrefix+vehicle.ID, data, VehicleCacheTTL).Err()
}

// InvalidateVehicle drops a vehicle from cache after a mutation.
func (s *CacheStore) InvalidateVehicle(ctx context.Context, vehicleID string) error {
	return s.client.Del(ctx, vehicleCachePrefix+vehicleID).Err()
}
