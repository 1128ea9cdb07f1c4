// Package expiry reclaims pending reservations whose confirmation
// deadline has lapsed.  Jobs live in a Redis sorted set keyed by
// reservation id and scored by fire time, so the schedule survives
// process restarts and is naturally idempotent: re-scheduling an id
// just moves its score.  Execution is at-least-once; the guarded
// status transition in the store makes duplicate firing harmless.
package expiry

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// zsetKey is the Redis sorted set holding pending expiration jobs.
const zsetKey = "reservation:expiry"

// popDueScript atomically removes and returns up to ARGV[2] members
// whose score is at or below ARGV[1].  Pop and remove must be one
// operation so that two workers polling simultaneously never claim the
// same job twice within a single schedule generation.
var popDueScript = redis.NewScript(`
local due = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[1], "LIMIT", 0, ARGV[2])
if #due > 0 then
    redis.call("ZREM", KEYS[1], unpack(due))
end
return due
`)

// Scheduler registers and claims deferred expiration jobs.
type Scheduler struct {
	client *redis.Client
}

// NewScheduler returns a Scheduler over the given Redis client.
func NewScheduler(client *redis.Client) *Scheduler {
	return &Scheduler{client: client}
}

// Schedule records that reservationID should be expired at fireAt.
// Calling it again for the same id simply updates the fire time.
func (s *Scheduler) Schedule(ctx context.Context, reservationID string, fireAt time.Time) error {
	err := s.client.ZAdd(ctx, zsetKey, redis.Z{
		Score:  float64(fireAt.UTC().Unix()),
		Member: reservationID,
	}).Err()
	if err != nil {
		return fmt.Errorf("expiry: schedule %s: %w", reservationID, err)
	}
	return nil
}

// PopDue claims up to limit jobs due at or before now.  Claimed jobs
// are removed from the schedule; a worker that crashes after claiming
// loses them, which the database sweeper compensates for.
func (s *Scheduler) PopDue(ctx context.Context, now time.Time, limit int) ([]string, error) {
	ids, err := popDueScript.Run(ctx, s.client, []string{zsetKey},
		strconv.FormatInt(now.UTC().Unix(), 10), limit).StringSlice()
	if err != nil {
		return nil, fmt.Errorf("expiry: pop due jobs: %w", err)
	}
	return ids, nil
}
