// Package refreshtokens stores the opaque refresh tokens handed out at
// sign-in. Tokens are single use: a refresh deletes the presented token and
// issues a new one.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/restaurant/internal/server/models"
)

type Repository interface {
	// Create stores token for accountID with an expiry of now+validity.
	Create(ctx context.Context, accountID string, token string, validity time.Duration) error

	// Find returns common.ErrorNotFound when the token is absent.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes a token. Deleting an absent token is not an error.
	Delete(ctx context.Context, token string) error
}
