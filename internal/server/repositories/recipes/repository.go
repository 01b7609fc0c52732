// Package recipes stores recipes with their ordered ingredient and step
// lists.
package recipes

import (
	"context"

	"github.com/dmitrijs2005/restaurant/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, r *models.Recipe) error
	Upsert(ctx context.Context, r *models.Recipe) error
	List(ctx context.Context) ([]models.Recipe, error)
}
