package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// Directory bundles the read-only entity lookups the booking validator
// needs.  It exists so the coordinator can depend on one small surface
// instead of three repositories.
type Directory struct {
	restaurants *RestaurantRepo
	tables      *TableRepo
	customers   *CustomerRepo
}

// NewDirectory returns a Directory over the given database.
func NewDirectory(db *sql.DB) *Directory {
	return &Directory{
		restaurants: NewRestaurantRepo(db),
		tables:      NewTableRepo(db),
		customers:   NewCustomerRepo(db),
	}
}

// RestaurantByID looks up a restaurant by id.
func (d *Directory) RestaurantByID(ctx context.Context, id uint64) (*model.Restaurant, error) {
	return d.restaurants.GetByID(ctx, id)
}

// TableByID looks up a table by id.
func (d *Directory) TableByID(ctx context.Context, id uint64) (*model.Table, error) {
	return d.tables.GetByID(ctx, id)
}

// CustomerByID looks up a customer by id.
func (d *Directory) CustomerByID(ctx context.Context, id uint64) (*model.Customer, error) {
	return d.customers.GetByID(ctx, id)
}
