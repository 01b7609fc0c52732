// Package accounts stores sign-in identities and their failed-attempt
// counters.
package accounts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/restaurant/internal/server/models"
)

type Repository interface {
	// Create inserts acc. A taken email yields common.ErrorAlreadyExists.
	Create(ctx context.Context, acc *models.Account) error
	// GetByEmail returns common.ErrorNotFound when no account matches.
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	// SetSignInState stores the failed-attempt counter and lockout deadline.
	SetSignInState(ctx context.Context, id string, failedAttempts int, lockedUntil *time.Time) error
}
