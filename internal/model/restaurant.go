package model

import "time"

// Restaurant holds the booking policy attributes the core needs when
// validating a reservation request: operating hours and how far ahead
// bookings may be placed.  The rest of the restaurant entity (menus,
// contact details and so on) is owned by the CRUD layer.
//
// Fields:
//  ID                  – primary key identifier.
//  Name                – display name.
//  OpeningTime         – first bookable time of day (HH:MM:SS).
//  ClosingTime         – last bookable time of day (HH:MM:SS).
//  ReservationDuration – default reservation length in minutes.
//  AdvanceBookingDays  – maximum look-ahead window for bookings.
//  IsActive            – whether the restaurant accepts bookings.
type Restaurant struct {
	ID                  uint64    `json:"id"`                   // restaurants.id
	Name                string    `json:"name"`                 // restaurants.name
	OpeningTime         string    `json:"opening_time"`         // restaurants.opening_time
	ClosingTime         string    `json:"closing_time"`         // restaurants.closing_time
	ReservationDuration uint32    `json:"reservation_duration"` // restaurants.reservation_duration
	AdvanceBookingDays  uint32    `json:"advance_booking_days"` // restaurants.advance_booking_days
	IsActive            bool      `json:"is_active"`            // restaurants.is_active
	CreatedAt           time.Time `json:"created_at"`           // restaurants.created_at
	UpdatedAt           time.Time `json:"updated_at"`           // restaurants.updated_at
}
