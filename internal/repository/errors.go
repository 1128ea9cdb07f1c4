// Package repository provides data access to the relational store.
// This file defines error helpers and sentinel values shared across
// repositories so that higher layers can distinguish failure scenarios
// without string-matching driver messages.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a referenced entity does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrSlotOccupied is returned when an insert found the slot already
// taken by an active reservation, whether the row-lock check or the
// unique-index backstop caught it.  Handlers translate this into an
// HTTP 409 response.
var ErrSlotOccupied = errors.New("slot occupied")

// ErrInvalidTransition is returned when a status update matched no row
// because the reservation was not in the required source state.  The
// expiry path treats this as an expected no-op; the confirm and cancel
// paths surface it as a conflict.
var ErrInvalidTransition = errors.New("invalid status transition")

// IsDuplicateSlot reports whether err is the MySQL duplicate-key error
// raised by the uq_active_reservation_per_slot index.  This is the
// schema-level backstop firing: some writer slipped past the lock and
// the row-lock check, and the insert lost the race.  Callers map it to
// the same conflict outcome as a normal contention loss.
func IsDuplicateSlot(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
