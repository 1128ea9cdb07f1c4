package model

import "time"

// Reservation status values.  A slot is occupied only while a reservation
// is pending or confirmed; every other status frees the slot.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
	StatusExpired   = "expired"
)

// IsActiveStatus reports whether a reservation in the given status
// occupies its (table, date, time) slot.
func IsActiveStatus(status string) bool {
	return status == StatusPending || status == StatusConfirmed
}

// Reservation records a customer's booking of a table for a specific
// date and time slot.  Reservations reference their restaurant, table
// and customer by id and never own them.
//
// Fields:
//  ID              – UUID primary key.
//  RestaurantID    – restaurant the table belongs to.
//  TableID         – table being reserved.
//  CustomerID      – customer who booked.
//  ReservationDate – calendar date of the booking (YYYY-MM-DD).
//  ReservationTime – time slot within the day (HH:MM:SS, 15-minute buckets).
//  PartySize       – number of guests; bounded by table capacity.
//  Status          – lifecycle state (see constants above).
//  SpecialRequests – optional free-form note from the customer.
//  ExpiresAt       – deadline for confirming; set only while pending.
//  ConfirmedAt     – when the reservation was confirmed, if ever.
//  CancelledAt     – when the reservation was cancelled, if ever.
//  CompletedAt     – when the visit was completed, if ever.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Reservation struct {
	ID              string     `json:"id"`               // reservations.id
	RestaurantID    uint64     `json:"restaurant_id"`    // reservations.restaurant_id
	TableID         uint64     `json:"table_id"`         // reservations.table_id
	CustomerID      uint64     `json:"customer_id"`      // reservations.customer_id
	ReservationDate string     `json:"reservation_date"` // reservations.reservation_date
	ReservationTime string     `json:"reservation_time"` // reservations.reservation_time
	PartySize       uint32     `json:"party_size"`       // reservations.party_size
	Status          string     `json:"status"`           // reservations.status
	SpecialRequests *string    `json:"special_requests,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	ConfirmedAt     *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
