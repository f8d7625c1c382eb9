package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"geofence-tracker/internal/core/cache"
	"geofence-tracker/internal/features/geofence/ports"
)

const statusKeyPrefix = "status:"

// RedisStatusCache implements ports.StatusCache on the cache port.
type RedisStatusCache struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewRedisStatusCache creates a RedisStatusCache whose entries expire after ttl
// without a new update.
func NewRedisStatusCache(c cache.Cache, ttl time.Duration) *RedisStatusCache {
	return &RedisStatusCache{cache: c, ttl: ttl}
}

// Publish stores the latest status of a booking.
func (r *RedisStatusCache) Publish(ctx context.Context, status ports.LiveStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal live status: %w", err)
	}
	if err := r.cache.Set(ctx, statusKeyPrefix+status.BookingID, data, r.ttl); err != nil {
		return fmt.Errorf("failed to publish live status: %w", err)
	}
	return nil
}

// Get returns the published status, or nil if there is none.
func (r *RedisStatusCache) Get(ctx context.Context, bookingID string) (*ports.LiveStatus, error) {
	data, err := r.cache.Get(ctx, statusKeyPrefix+bookingID)
	if errors.Is(err, cache.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read live status: %w", err)
	}

	var status ports.LiveStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal live status: %w", err)
	}
	return &status, nil
}

// Remove drops the status of a booking.
func (r *RedisStatusCache) Remove(ctx context.Context, bookingID string) error {
	if err := r.cache.Delete(ctx, statusKeyPrefix+bookingID); err != nil {
		return fmt.Errorf("failed to remove live status: %w", err)
	}
	return nil
}
