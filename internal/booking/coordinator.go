// Package booking implements the transaction coordinator: the single
// write path for reservations.  It layers three independent defences so
// that no two active reservations ever share a (table, date, time)
// slot: the distributed slot lock, a row-locking re-check inside the
// insert transaction, and the schema-level unique index as the final
// backstop.
package booking

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/restaurant-reservation/internal/config"
	"github.com/iliyamo/restaurant-reservation/internal/lock"
	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
)

// Locker is the distributed lock surface the coordinator needs.
// Implemented by lock.Manager.
type Locker interface {
	Acquire(ctx context.Context, slot model.Slot) (string, error)
	Release(ctx context.Context, slot model.Slot, token string) (bool, error)
	TTL() time.Duration
}

// Store is the reservation persistence surface.  Implemented by
// repository.ReservationRepo.
type Store interface {
	CreateInSlot(ctx context.Context, res *model.Reservation) error
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	Confirm(ctx context.Context, id string) error
	Cancel(ctx context.Context, id string) error
	Complete(ctx context.Context, id string) error
	MarkNoShow(ctx context.Context, id string) error
}

// Directory resolves the entities referenced by a booking request.
// Implemented by repository.Directory.
type Directory interface {
	RestaurantByID(ctx context.Context, id uint64) (*model.Restaurant, error)
	TableByID(ctx context.Context, id uint64) (*model.Table, error)
	CustomerByID(ctx context.Context, id uint64) (*model.Customer, error)
}

// Availability is the advisory cache in front of the store.
// Implemented by availability.Cache.
type Availability interface {
	IsAvailable(ctx context.Context, slot model.Slot) (bool, error)
	Invalidate(ctx context.Context, slot model.Slot) error
}

// Scheduler registers the deferred expiration job for a pending
// reservation.  Implemented by expiry.Scheduler.
type Scheduler interface {
	Schedule(ctx context.Context, reservationID string, fireAt time.Time) error
}

// Notifier receives fire-and-forget lifecycle events.  Implementations
// must never block the booking path; errors are logged and dropped.
// Implemented by queue.Publisher.
type Notifier interface {
	ReservationCreated(ctx context.Context, res *model.Reservation)
	ReservationConfirmed(ctx context.Context, res *model.Reservation)
	ReservationCancelled(ctx context.Context, res *model.Reservation)
}

// Request carries the inputs of one booking attempt, as received from
// the API layer.
type Request struct {
	RestaurantID    uint64 `json:"restaurant_id"`
	TableID         uint64 `json:"table_id"`
	CustomerID      uint64 `json:"customer_id"`
	Date            string `json:"reservation_date"` // YYYY-MM-DD
	Time            string `json:"reservation_time"` // HH:MM or HH:MM:SS
	PartySize       uint32 `json:"party_size"`
	SpecialRequests string `json:"special_requests,omitempty"`
}

// Coordinator orchestrates the lock manager, the reservation store and
// the ambient collaborators into one atomic booking operation.  It is
// the only component allowed to hold a slot lock.
type Coordinator struct {
	cfg    config.BookingConfig
	locker Locker
	store  Store
	dir    Directory
	avail  Availability
	sched  Scheduler
	notify Notifier

	now func() time.Time // injected clock, UTC
}

// NewCoordinator wires a Coordinator.  avail, sched and notify may be
// nil: the cache is advisory, and without a scheduler the sweeper still
// reclaims lapsed reservations.
func NewCoordinator(cfg config.BookingConfig, locker Locker, store Store, dir Directory, avail Availability, sched Scheduler, notify Notifier) *Coordinator {
	return &Coordinator{
		cfg:    cfg,
		locker: locker,
		store:  store,
		dir:    dir,
		avail:  avail,
		sched:  sched,
		notify: notify,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Book attempts to create a pending reservation for the requested slot.
//
// Outcomes: the created reservation; *ValidationError for caller
// mistakes (never retried); ErrSlotTaken when the slot is occupied;
// *LockBusyError under exhausted lock contention (retryable); any other
// error is an infrastructure failure for this attempt.
func (c *Coordinator) Book(ctx context.Context, req Request) (*model.Reservation, error) {
	slot, err := c.validate(ctx, &req)
	if err != nil {
		return nil, err
	}

	// Fast path: a cached "taken" answer saves the lock and the
	// transaction.  Cache errors or a cached "free" fall through to the
	// authoritative path below.
	if c.avail != nil {
		if free, err := c.avail.IsAvailable(ctx, slot); err == nil && !free {
			return nil, ErrSlotTaken
		}
	}

	token, err := c.locker.Acquire(ctx, slot)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			// Contention exhausted the retry budget.  The current holder
			// finishes well within the lock TTL, so that is the hint.
			return nil, &LockBusyError{RetryAfter: c.locker.TTL()}
		}
		return nil, err
	}
	defer func() {
		// The lock must be freed on every exit path; rollback of the
		// transaction alone is not enough.
		released, rerr := c.locker.Release(context.WithoutCancel(ctx), slot, token)
		if rerr != nil {
			log.Printf("booking: lock release failed for %s: %v", lockDesc(slot), rerr)
		} else if !released {
			log.Printf("booking: lock for %s already expired before release", lockDesc(slot))
		}
	}()

	now := c.now()
	expiresAt := now.Add(c.cfg.PendingTimeout)
	res := &model.Reservation{
		ID:              uuid.NewString(),
		RestaurantID:    req.RestaurantID,
		TableID:         req.TableID,
		CustomerID:      req.CustomerID,
		ReservationDate: slot.Date,
		ReservationTime: slot.Time,
		PartySize:       req.PartySize,
		Status:          model.StatusPending,
		ExpiresAt:       &expiresAt,
	}
	if req.SpecialRequests != "" {
		s := req.SpecialRequests
		res.SpecialRequests = &s
	}

	txCtx, cancel := context.WithTimeout(ctx, c.cfg.StatementTimeout)
	defer cancel()
	if err := c.store.CreateInSlot(txCtx, res); err != nil {
		if errors.Is(err, repository.ErrSlotOccupied) {
			return nil, ErrSlotTaken
		}
		return nil, err
	}

	c.afterSlotChange(ctx, slot)
	if c.sched != nil {
		if err := c.sched.Schedule(ctx, res.ID, expiresAt); err != nil {
			// The sweeper will still reclaim this reservation.
			log.Printf("booking: scheduling expiration for %s failed: %v", res.ID, err)
		}
	}
	if c.notify != nil {
		c.notify.ReservationCreated(ctx, res)
	}
	return res, nil
}

// Confirm moves a pending reservation to confirmed.  The slot stays
// occupied, so the cache is left alone.
func (c *Coordinator) Confirm(ctx context.Context, id string) (*model.Reservation, error) {
	if err := c.store.Confirm(ctx, id); err != nil {
		return nil, err
	}
	res, err := c.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.notify != nil {
		c.notify.ReservationConfirmed(ctx, res)
	}
	return res, nil
}

// Cancel moves a pending or confirmed reservation to cancelled and
// frees its slot for other bookings.
func (c *Coordinator) Cancel(ctx context.Context, id string) (*model.Reservation, error) {
	if err := c.store.Cancel(ctx, id); err != nil {
		return nil, err
	}
	res, err := c.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.afterSlotChange(ctx, model.Slot{TableID: res.TableID, Date: res.ReservationDate, Time: res.ReservationTime})
	if c.notify != nil {
		c.notify.ReservationCancelled(ctx, res)
	}
	return res, nil
}

// Complete marks a confirmed reservation as completed.
func (c *Coordinator) Complete(ctx context.Context, id string) (*model.Reservation, error) {
	return c.transition(ctx, id, c.store.Complete)
}

// MarkNoShow marks a confirmed reservation as no_show.
func (c *Coordinator) MarkNoShow(ctx context.Context, id string) (*model.Reservation, error) {
	return c.transition(ctx, id, c.store.MarkNoShow)
}

func (c *Coordinator) transition(ctx context.Context, id string, op func(context.Context, string) error) (*model.Reservation, error) {
	if err := op(ctx, id); err != nil {
		return nil, err
	}
	res, err := c.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.afterSlotChange(ctx, model.Slot{TableID: res.TableID, Date: res.ReservationDate, Time: res.ReservationTime})
	return res, nil
}

// afterSlotChange invalidates the cached availability for a slot after
// any write that may have changed it.  Invalidation failures only widen
// the staleness window, so they are logged, not propagated.
func (c *Coordinator) afterSlotChange(ctx context.Context, slot model.Slot) {
	if c.avail == nil {
		return
	}
	if err := c.avail.Invalidate(context.WithoutCancel(ctx), slot); err != nil {
		log.Printf("booking: cache invalidation failed for %s: %v", lockDesc(slot), err)
	}
}

func lockDesc(s model.Slot) string { return s.Key() }
