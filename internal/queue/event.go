// Package queue defines message payloads exchanged over the message broker.
package queue

// Event type values carried in ReservationEvent.Type.
const (
	EventCreated   = "reservation.created"
	EventConfirmed = "reservation.confirmed"
	EventCancelled = "reservation.cancelled"
	EventExpired   = "reservation.expired"
)

// ReservationEvent is published on every reservation lifecycle change.
// It carries enough information for downstream consumers (notification
// senders, analytics) to act without querying the primary database.
// Delivery is at-most-once from the core's point of view: publishing is
// fire-and-forget and a lost event never blocks or fails a booking.
type ReservationEvent struct {
	Type            string `json:"type"`
	ReservationID   string `json:"reservation_id"`
	RestaurantID    uint64 `json:"restaurant_id,omitempty"`
	TableID         uint64 `json:"table_id"`
	CustomerID      uint64 `json:"customer_id,omitempty"`
	ReservationDate string `json:"reservation_date"`
	ReservationTime string `json:"reservation_time"`
	PartySize       uint32 `json:"party_size,omitempty"`
	Status          string `json:"status"`
	ExpiresAt       string `json:"expires_at,omitempty"`
	OccurredAt      string `json:"occurred_at"`
}
