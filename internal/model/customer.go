package model

import "time"

// Customer identifies who a reservation was booked for.  The booking
// core only ever checks that the referenced customer exists; profile
// management lives in the CRUD layer.
type Customer struct {
	ID        uint64    `json:"id"`         // customers.id
	FirstName string    `json:"first_name"` // customers.first_name
	LastName  string    `json:"last_name"`  // customers.last_name
	Email     string    `json:"email"`      // customers.email
	Phone     string    `json:"phone"`      // customers.phone
	CreatedAt time.Time `json:"created_at"` // customers.created_at
}
