package model

import "time"

// Table represents a physical table inside a restaurant.  Tables are
// read-only from the booking core's perspective; only their capacity
// and active flag participate in validation.
//
// Fields:
//  ID           – primary key identifier.
//  RestaurantID – restaurant the table belongs to.
//  Number       – human-facing table number within the restaurant.
//  Capacity     – maximum party size the table seats.
//  Location     – locational attribute (indoor, outdoor, bar).
//  IsActive     – whether the table is currently bookable.
type Table struct {
	ID           uint64    `json:"id"`            // tables.id
	RestaurantID uint64    `json:"restaurant_id"` // tables.restaurant_id
	Number       string    `json:"number"`        // tables.number
	Capacity     uint32    `json:"capacity"`      // tables.capacity
	Location     string    `json:"location"`      // tables.location
	IsActive     bool      `json:"is_active"`     // tables.is_active
	CreatedAt    time.Time `json:"created_at"`    // tables.created_at
	UpdatedAt    time.Time `json:"updated_at"`    // tables.updated_at
}
