package config

import (
	"os"
	"time"
)

// BookingConfig collects every tunable of the reservation core: lock
// behaviour, cache lifetime, confirmation deadline and the business
// rules applied during validation.  Defaults mirror production values;
// tests shrink the durations.
type BookingConfig struct {
	LockTTL        time.Duration // distributed lock expiry; must exceed one booking transaction
	LockMaxRetries int           // acquisition attempts before giving up with a retryable error
	LockRetryBase  time.Duration // base interval for exponential backoff between attempts

	AvailabilityTTL time.Duration // staleness bound for cached availability answers
	PendingTimeout  time.Duration // how long a pending reservation may await confirmation

	SlotInterval      time.Duration // granularity of bookable time slots
	MaxPartySize      uint32        // hard cap on party size regardless of table capacity
	SameDayLeadTime   time.Duration // minimum notice for a booking on the current date
	FutureDayLeadTime time.Duration // minimum notice for a booking on a later date
	MaxAdvanceDays    int           // fallback look-ahead window when the restaurant has none

	ExpiryPollInterval time.Duration // how often the expiry worker checks for due jobs
	SweepInterval      time.Duration // how often the sweeper scans for lapsed pending rows
	StatementTimeout   time.Duration // upper bound for a single booking transaction
}

// LoadBookingConfig reads the booking knobs from the environment,
// falling back to the documented defaults.
func LoadBookingConfig() BookingConfig {
	return BookingConfig{
		LockTTL:        envDur("LOCK_TTL", 30*time.Second),
		LockMaxRetries: envInt("LOCK_MAX_RETRIES", 3),
		LockRetryBase:  envDur("LOCK_RETRY_BASE", 50*time.Millisecond),

		AvailabilityTTL: envDur("AVAILABILITY_CACHE_TTL", 5*time.Minute),
		PendingTimeout:  envDur("RESERVATION_PENDING_TIMEOUT", 15*time.Minute),

		SlotInterval:      envDur("SLOT_INTERVAL", 15*time.Minute),
		MaxPartySize:      uint32(envInt("MAX_PARTY_SIZE", 12)),
		SameDayLeadTime:   envDur("SAME_DAY_LEAD_TIME", 2*time.Hour),
		FutureDayLeadTime: envDur("FUTURE_DAY_LEAD_TIME", 30*time.Minute),
		MaxAdvanceDays:    envInt("MAX_ADVANCE_DAYS", 90),

		ExpiryPollInterval: envDur("EXPIRY_POLL_INTERVAL", time.Second),
		SweepInterval:      envDur("EXPIRY_SWEEP_INTERVAL", time.Minute),
		StatementTimeout:   envDur("BOOKING_STATEMENT_TIMEOUT", 5*time.Second),
	}
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
