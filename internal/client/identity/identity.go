// Package identity is the console's client of the identity service. It
// keeps the signed-in user, publishes every auth-state change on a stream,
// and optionally persists the session across restarts.
package identity

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/restaurant/internal/stream"
)

// Identity is the signed-in user as reported by the identity service.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
}

// Persistence selects where a session survives.
type Persistence string

const (
	// PersistenceMemory keeps the session for the life of the process.
	PersistenceMemory Persistence = "memory"
	// PersistenceLocal stores the refresh token in the local database so the
	// session is restored on the next start.
	PersistenceLocal Persistence = "local"
)

// ProviderError is a failed identity operation carrying an auth/... code.
type ProviderError struct {
	Code string
	Err  error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Provider is the identity contract the session layer depends on.
type Provider interface {
	SignUp(ctx context.Context, email, password, displayName string) (*Identity, error)
	SignIn(ctx context.Context, email, password string) (*Identity, error)
	SignOut(ctx context.Context) error
	SetPersistence(ctx context.Context, mode Persistence) error
	// CurrentUser is a synchronous snapshot; nil when signed out.
	CurrentUser() *Identity
	// Watch streams the current user (nil when signed out) on every change.
	// Nothing is emitted until the initial state is known.
	Watch() *stream.Subscription[*Identity]
}
