// Package users stores the profile rows written on sign-in.
package users

import (
	"context"

	"github.com/dmitrijs2005/restaurant/internal/server/models"
)

type Repository interface {
	// Upsert inserts the profile or overwrites the one with the same uid.
	Upsert(ctx context.Context, user *models.User) error
	List(ctx context.Context) ([]models.User, error)
}
