package expiry

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// batchSize bounds how many jobs one poll claims at once.
const batchSize = 100

// Store is the persistence surface the worker needs.  Implemented by
// repository.ReservationRepo.
type Store interface {
	ExpireIfPending(ctx context.Context, id string) (model.Slot, bool, error)
	LapsedPendingIDs(ctx context.Context, limit int) ([]string, error)
}

// Invalidator drops the cached availability for a freed slot.
// Implemented by availability.Cache.
type Invalidator interface {
	Invalidate(ctx context.Context, slot model.Slot) error
}

// Notifier is told about reservations that actually expired, so the
// notification collaborator can inform the customer.  Fire-and-forget.
type Notifier interface {
	ReservationExpired(ctx context.Context, reservationID string, slot model.Slot)
}

// Worker polls the schedule and executes due expiration jobs.  A
// second, slower loop sweeps the database for lapsed pending rows whose
// schedule entry was lost (worker crash between claim and execution,
// Redis flush, scheduling failure at booking time) and feeds them
// through the same idempotent path.
type Worker struct {
	sched  *Scheduler
	store  Store
	cache  Invalidator // may be nil
	notify Notifier    // may be nil
	poll   time.Duration
	sweep  time.Duration
}

// NewWorker wires a Worker.  poll is how often due jobs are claimed;
// sweep is how often the database safety-net scan runs.
func NewWorker(sched *Scheduler, store Store, cache Invalidator, notify Notifier, poll, sweep time.Duration) *Worker {
	if poll <= 0 {
		poll = time.Second
	}
	if sweep <= 0 {
		sweep = time.Minute
	}
	return &Worker{sched: sched, store: store, cache: cache, notify: notify, poll: poll, sweep: sweep}
}

// Run executes the poll and sweep loops until ctx is cancelled.  Errors
// from a single iteration are logged and the loop keeps going; the
// worker only stops with the process.
func (w *Worker) Run(ctx context.Context) error {
	pollTicker := time.NewTicker(w.poll)
	defer pollTicker.Stop()
	sweepTicker := time.NewTicker(w.sweep)
	defer sweepTicker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-pollTicker.C:
			w.drainDue(ctx)
		case <-sweepTicker.C:
			w.sweepLapsed(ctx)
		}
	}
}

// drainDue claims and executes every job currently due.
func (w *Worker) drainDue(ctx context.Context) {
	for {
		ids, err := w.sched.PopDue(ctx, time.Now().UTC(), batchSize)
		if err != nil {
			log.Printf("expiry: claiming due jobs failed: %v", err)
			return
		}
		if len(ids) == 0 {
			return
		}
		for _, id := range ids {
			w.expire(ctx, id)
		}
		if len(ids) < batchSize {
			return
		}
	}
}

// expire runs one idempotent expiration.  "No longer pending" and "not
// yet lapsed" are expected no-ops, never errors: a confirmation racing
// ahead of the job, or a duplicate delivery, must leave the
// reservation untouched.
func (w *Worker) expire(ctx context.Context, id string) {
	slot, expired, err := w.store.ExpireIfPending(ctx, id)
	if err != nil {
		log.Printf("expiry: expiring %s failed: %v", id, err)
		return
	}
	if !expired {
		return
	}
	log.Printf("expiry: reservation %s expired, slot %s freed", id, slot.Key())
	if w.cache != nil {
		if err := w.cache.Invalidate(ctx, slot); err != nil {
			log.Printf("expiry: cache invalidation failed for %s: %v", slot.Key(), err)
		}
	}
	if w.notify != nil {
		w.notify.ReservationExpired(ctx, id, slot)
	}
}

// sweepLapsed expires pending rows whose deadline already passed,
// regardless of whether a schedule entry still exists for them.
func (w *Worker) sweepLapsed(ctx context.Context) {
	ids, err := w.store.LapsedPendingIDs(ctx, batchSize)
	if err != nil {
		log.Printf("expiry: sweep scan failed: %v", err)
		return
	}
	for _, id := range ids {
		w.expire(ctx, id)
	}
}
