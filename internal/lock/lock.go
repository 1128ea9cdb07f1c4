// Package lock implements the distributed slot lock that serialises
// booking attempts across service replicas.  Locks live only in Redis
// (never in the relational store) and carry an ownership token plus a
// TTL so that a crashed holder cannot deadlock a slot: once the TTL
// elapses the key simply disappears and the next acquirer wins.
package lock

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// ErrNotAcquired is returned when every acquisition attempt found the
// lock held by someone else.  It signals transient contention ("try
// again shortly"), never that the slot itself is booked.
var ErrNotAcquired = errors.New("lock: not acquired")

// keyPrefix namespaces lock keys in Redis.  The full key is
// table_lock:<table_id>:<date>:<time>.
const keyPrefix = "table_lock:"

// releaseScript deletes the lock key only when it still stores the
// caller's token.  GET and DEL must happen in one atomic step: with a
// separate read the TTL could expire (and another process acquire the
// lock) between the check and the delete, and we would release a lock
// we no longer own.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
else
    return 0
end
`)

// Manager acquires and releases slot locks against a Redis backend.
// It is safe for concurrent use.
type Manager struct {
	client *redis.Client
	ttl    time.Duration // default expiry applied by Acquire
	tries  int           // retries after the first attempt before giving up
	base   time.Duration // backoff unit between attempts
}

// NewManager returns a Manager with the given default TTL, retry budget
// and backoff base.  The TTL must comfortably exceed one booking
// transaction; expiry is the deadlock-recovery path for crashed holders.
func NewManager(client *redis.Client, ttl time.Duration, maxRetries int, retryBase time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	if retryBase <= 0 {
		retryBase = 50 * time.Millisecond
	}
	return &Manager{client: client, ttl: ttl, tries: maxRetries, base: retryBase}
}

// Key returns the Redis key guarding the given slot.
func Key(s model.Slot) string { return keyPrefix + s.Key() }

// Acquire attempts to take the lock for slot, retrying with exponential
// backoff plus jitter while it is held by another process.  On success
// it returns the opaque ownership token that must be presented to
// Release.  When the retry budget is exhausted it returns ErrNotAcquired.
//
// Backend errors are returned as-is: the manager fails closed.  It
// never reports success while the backing store is unreachable.
func (m *Manager) Acquire(ctx context.Context, slot model.Slot) (string, error) {
	token := uuid.NewString()
	key := Key(slot)
	for attempt := 0; ; attempt++ {
		ok, err := m.client.SetNX(ctx, key, token, m.ttl).Result()
		if err != nil {
			return "", fmt.Errorf("lock: acquire %s: %w", key, err)
		}
		if ok {
			return token, nil
		}
		if attempt >= m.tries {
			return "", ErrNotAcquired
		}
		// backoff = base * 2^attempt, plus up to one base of jitter so
		// stampeding workers don't retry in lockstep
		delay := m.base<<uint(attempt) + time.Duration(rand.Int63n(int64(m.base)))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// Release frees the slot lock if and only if token still owns it.  It
// returns true when the key was deleted and false when the lock had
// already expired or been taken over by another holder; the latter is
// not an error, just a fact the caller may want to log.
func (m *Manager) Release(ctx context.Context, slot model.Slot, token string) (bool, error) {
	n, err := releaseScript.Run(ctx, m.client, []string{Key(slot)}, token).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("lock: release %s: %w", Key(slot), err)
	}
	return n == 1, nil
}

// TTL exposes the configured lock lifetime so callers can derive a
// sensible Retry-After hint for rejected requests.
func (m *Manager) TTL() time.Duration { return m.ttl }
