// Package customers stores the restaurant's customer records.
package customers

import (
	"context"

	"github.com/dmitrijs2005/restaurant/internal/server/models"
)

type Repository interface {
	// Create inserts c under c.ID.
	Create(ctx context.Context, c *models.Customer) error
	// Upsert writes c under c.ID, inserting it when absent.
	Upsert(ctx context.Context, c *models.Customer) error
	List(ctx context.Context) ([]models.Customer, error)
}
