package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// ReservationRepo provides data access to the reservations table.  All
// timestamp columns are stored in UTC; DATE and TIME columns are
// exchanged as strings in YYYY-MM-DD / HH:MM:SS form.  Methods with a
// Tx suffix run inside a caller-owned transaction; the caller must
// commit or roll back.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle so coordinating layers can open
// transactions spanning multiple repositories.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

// reservationColumns is the canonical select list matched by scanReservation.
const reservationColumns = `id, restaurant_id, table_id, customer_id,
       reservation_date, reservation_time, party_size, status, special_requests,
       expires_at, confirmed_at, cancelled_at, completed_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanReservation maps one row in reservationColumns order onto a model
// value.  The DATE column arrives as time.Time (parseTime=true) and the
// TIME column as raw bytes; both are normalised to their string forms.
func scanReservation(row rowScanner) (*model.Reservation, error) {
	var (
		res      model.Reservation
		date     time.Time
		timeRaw  []byte
		requests sql.NullString
	)
	err := row.Scan(
		&res.ID, &res.RestaurantID, &res.TableID, &res.CustomerID,
		&date, &timeRaw, &res.PartySize, &res.Status, &requests,
		&res.ExpiresAt, &res.ConfirmedAt, &res.CancelledAt, &res.CompletedAt,
		&res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	res.ReservationDate = date.UTC().Format("2006-01-02")
	res.ReservationTime = string(timeRaw)
	if requests.Valid {
		s := requests.String
		res.SpecialRequests = &s
	}
	return &res, nil
}

// CreateTx inserts a new reservation within the scope of an existing
// transaction and reads the full row back so database-assigned
// timestamps are populated.  The caller supplies the UUID identifier
// and the pending status with its expires_at deadline.  A duplicate-key
// error from the active-slot unique index propagates unchanged; use
// IsDuplicateSlot to detect it.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations
	           (id, restaurant_id, table_id, customer_id, reservation_date, reservation_time,
	            party_size, status, special_requests, expires_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var requests any
	if res.SpecialRequests != nil {
		requests = *res.SpecialRequests
	}
	var expires any
	if res.ExpiresAt != nil {
		expires = res.ExpiresAt.UTC().Format("2006-01-02 15:04:05")
	}
	if _, err := tx.ExecContext(ctx, q,
		res.ID, res.RestaurantID, res.TableID, res.CustomerID,
		res.ReservationDate, res.ReservationTime, res.PartySize, res.Status,
		requests, expires,
	); err != nil {
		return err
	}
	const sel = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	full, err := scanReservation(tx.QueryRowContext(ctx, sel, res.ID))
	if err != nil {
		return err
	}
	*res = *full
	return nil
}

// CreateInSlot atomically books a slot: inside one transaction it takes
// row locks over the slot's active reservations, re-checks for a
// conflict and inserts the new pending row.  The row-lock re-check is
// required even though the distributed lock already serialises
// bookings, because it also serialises against writers that never go
// through the lock manager.  ErrSlotOccupied is returned both when the
// locked read finds a conflict and when the commit trips the
// active-slot unique index — the designed last-resort backstop, not an
// unexpected failure.
func (r *ReservationRepo) CreateInSlot(ctx context.Context, res *model.Reservation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	slot := model.Slot{TableID: res.TableID, Date: res.ReservationDate, Time: res.ReservationTime}
	conflicts, err := r.ActiveBySlotForUpdateTx(ctx, tx, slot)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return ErrSlotOccupied
	}
	if err := r.CreateTx(ctx, tx, res); err != nil {
		if IsDuplicateSlot(err) {
			return ErrSlotOccupied
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		if IsDuplicateSlot(err) {
			return ErrSlotOccupied
		}
		return err
	}
	committed = true
	return nil
}

// SlotConflict is the minimal view of an active reservation occupying a
// slot, as seen by the row-locking conflict check.
type SlotConflict struct {
	ID     string
	Status string
}

// ActiveBySlotForUpdateTx takes row locks over every active (pending or
// confirmed) reservation for the slot and returns them.  The locks are
// held until the surrounding transaction ends, serialising this check
// against any concurrent writer — including ones that bypass the
// distributed lock, such as administrative tooling or migrations.
func (r *ReservationRepo) ActiveBySlotForUpdateTx(ctx context.Context, tx *sql.Tx, slot model.Slot) ([]SlotConflict, error) {
	const q = `SELECT id, status FROM reservations
	           WHERE table_id = ? AND reservation_date = ? AND reservation_time = ?
	             AND status IN ('pending','confirmed')
	           FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, slot.TableID, slot.Date, slot.Time)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var conflicts []SlotConflict
	for rows.Next() {
		var c SlotConflict
		if err := rows.Scan(&c.ID, &c.Status); err != nil {
			return nil, err
		}
		conflicts = append(conflicts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return conflicts, nil
}

// CountActiveBySlot counts active reservations for a slot without
// locking.  This is the availability cache's read path.
func (r *ReservationRepo) CountActiveBySlot(ctx context.Context, slot model.Slot) (int, error) {
	const q = `SELECT COUNT(*) FROM reservations
	           WHERE table_id = ? AND reservation_date = ? AND reservation_time = ?
	             AND status IN ('pending','confirmed')`
	var n int
	if err := r.db.QueryRowContext(ctx, q, slot.TableID, slot.Date, slot.Time).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// GetByID loads a single reservation.  ErrNotFound is returned when no
// row exists.
func (r *ReservationRepo) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	res, err := scanReservation(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ListByCustomer returns all reservations booked by the given customer,
// newest first.  An empty slice is returned when none exist.
func (r *ReservationRepo) ListByCustomer(ctx context.Context, customerID uint64) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations
	           WHERE customer_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// transition performs a guarded status update and reports whether a row
// changed.  The WHERE predicate carries the allowed source states, so a
// lost race (someone else moved the reservation first) simply matches
// zero rows instead of clobbering a terminal state.
func (r *ReservationRepo) transition(ctx context.Context, query, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Confirm moves a pending reservation to confirmed, stamping
// confirmed_at and clearing the expiry deadline.  It returns
// ErrInvalidTransition when the reservation is not pending and
// ErrNotFound when it does not exist at all.
func (r *ReservationRepo) Confirm(ctx context.Context, id string) error {
	const q = `UPDATE reservations
	           SET status = 'confirmed', confirmed_at = UTC_TIMESTAMP(), expires_at = NULL
	           WHERE id = ? AND status = 'pending'`
	return r.mustTransition(ctx, q, id)
}

// Cancel moves a pending or confirmed reservation to cancelled,
// stamping cancelled_at.  Cancelling frees the slot.
func (r *ReservationRepo) Cancel(ctx context.Context, id string) error {
	const q = `UPDATE reservations
	           SET status = 'cancelled', cancelled_at = UTC_TIMESTAMP(), expires_at = NULL
	           WHERE id = ? AND status IN ('pending','confirmed')`
	return r.mustTransition(ctx, q, id)
}

// Complete moves a confirmed reservation to completed once the visit
// has taken place.
func (r *ReservationRepo) Complete(ctx context.Context, id string) error {
	const q = `UPDATE reservations
	           SET status = 'completed', completed_at = UTC_TIMESTAMP()
	           WHERE id = ? AND status = 'confirmed'`
	return r.mustTransition(ctx, q, id)
}

// MarkNoShow moves a confirmed reservation to no_show.
func (r *ReservationRepo) MarkNoShow(ctx context.Context, id string) error {
	const q = `UPDATE reservations
	           SET status = 'no_show'
	           WHERE id = ? AND status = 'confirmed'`
	return r.mustTransition(ctx, q, id)
}

// mustTransition runs a guarded update and converts "no row changed"
// into ErrInvalidTransition or ErrNotFound depending on whether the
// reservation exists.
func (r *ReservationRepo) mustTransition(ctx context.Context, query, id string) error {
	ok, err := r.transition(ctx, query, id)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM reservations WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrInvalidTransition
}

// ExpireIfPending moves a reservation to expired when it is still
// pending and its deadline has lapsed.  It returns the freed slot and
// true when the transition happened.  Any other current status — or a
// deadline still in the future — is a no-op returning false with no
// error, which is what makes the expiry job safe to run late or twice.
func (r *ReservationRepo) ExpireIfPending(ctx context.Context, id string) (model.Slot, bool, error) {
	const q = `UPDATE reservations
	           SET status = 'expired'
	           WHERE id = ? AND status = 'pending'
	             AND expires_at IS NOT NULL AND expires_at <= UTC_TIMESTAMP()`
	ok, err := r.transition(ctx, q, id)
	if err != nil || !ok {
		return model.Slot{}, false, err
	}
	const sel = `SELECT table_id, reservation_date, reservation_time FROM reservations WHERE id = ?`
	var (
		slot    model.Slot
		date    time.Time
		timeRaw []byte
	)
	if err := r.db.QueryRowContext(ctx, sel, id).Scan(&slot.TableID, &date, &timeRaw); err != nil {
		return model.Slot{}, false, err
	}
	slot.Date = date.UTC().Format("2006-01-02")
	slot.Time = string(timeRaw)
	return slot, true, nil
}

// LapsedPendingIDs lists reservations whose confirmation deadline has
// passed but whose status is still pending.  The sweeper feeds these
// back through ExpireIfPending, catching jobs whose schedule entry was
// lost.
func (r *ReservationRepo) LapsedPendingIDs(ctx context.Context, limit int) ([]string, error) {
	const q = `SELECT id FROM reservations
	           WHERE status = 'pending' AND expires_at IS NOT NULL AND expires_at <= UTC_TIMESTAMP()
	           ORDER BY expires_at LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
