// Package availability answers "is this slot currently free?" from a
// short-lived Redis cache in front of the reservation store.  The cache
// is purely advisory: the transactional row-lock check inside the
// booking coordinator remains the source of truth, so a stale
// "available" answer costs at most one wasted lock/transaction attempt.
package availability

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// keyPrefix namespaces availability keys in Redis.  The full key is
// availability:<table_id>:<date>:<time>.
const keyPrefix = "availability:"

// SlotCounter is the slice of the reservation store the cache needs: a
// count of active (pending or confirmed) reservations for a slot.
type SlotCounter interface {
	CountActiveBySlot(ctx context.Context, slot model.Slot) (int, error)
}

// Cache is a read-through availability cache with a bounded staleness
// window.  A nil Redis client disables caching entirely; every call
// then falls through to the store.
type Cache struct {
	client *redis.Client
	store  SlotCounter
	ttl    time.Duration
}

// New returns a Cache over the given Redis client and store.  ttl bounds
// how stale a cached answer may be.
func New(client *redis.Client, store SlotCounter, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{client: client, store: store, ttl: ttl}
}

func key(s model.Slot) string { return keyPrefix + s.Key() }

// IsAvailable reports whether the slot has no active reservation.  On a
// cache miss it consults the store and caches the boolean.  Redis
// failures are logged and treated as a miss; the store answer is then
// returned uncached, so a flaky cache never blocks bookings.
func (c *Cache) IsAvailable(ctx context.Context, slot model.Slot) (bool, error) {
	cacheable := c.client != nil
	if cacheable {
		val, err := c.client.Get(ctx, key(slot)).Result()
		switch {
		case err == nil:
			return val == "1", nil
		case errors.Is(err, redis.Nil):
			// miss
		default:
			log.Printf("availability: cache read failed for %s: %v", key(slot), err)
			cacheable = false
		}
	}
	n, err := c.store.CountActiveBySlot(ctx, slot)
	if err != nil {
		return false, err
	}
	free := n == 0
	if cacheable {
		val := "0"
		if free {
			val = "1"
		}
		if err := c.client.Set(ctx, key(slot), val, c.ttl).Err(); err != nil {
			log.Printf("availability: cache write failed for %s: %v", key(slot), err)
		}
	}
	return free, nil
}

// Invalidate drops the cached answer for a slot.  It must be called
// synchronously after any write that changes the slot's active-reservation
// status (creation, cancellation, expiration) to keep the false-positive
// rate low.
func (c *Cache) Invalidate(ctx context.Context, slot model.Slot) error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, key(slot)).Err(); err != nil {
		return err
	}
	return nil
}
