// Package orders reads orders together with the name of their customer.
// Orders are written by other systems; this service never creates them.
package orders

import (
	"context"

	"github.com/dmitrijs2005/restaurant/internal/server/models"
)

type Repository interface {
	List(ctx context.Context) ([]models.Order, error)
}
