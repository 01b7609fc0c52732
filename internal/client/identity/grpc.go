package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/restaurant/internal/client/client"
	"github.com/dmitrijs2005/restaurant/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/restaurant/internal/logging"
	"github.com/dmitrijs2005/restaurant/internal/rpc"
	"github.com/dmitrijs2005/restaurant/internal/stream"
)

const (
	keyPersistence  = "persistence"
	keyRefreshToken = "refresh_token"
)

// Transport is the part of client.GRPCClient the identity client uses.
type Transport interface {
	Call(ctx context.Context, method string, in, out any) error
	SetTokens(access, refresh string)
	ClearTokens()
	Tokens() (access, refresh string)
	OnRefresh(fn func(rpc.AuthResult))
}

// Client implements Provider over the identity gRPC service.
type Client struct {
	transport Transport
	store     metadata.Repository
	logger    logging.Logger

	mu      sync.Mutex
	mode    Persistence
	current *Identity
	state   *stream.Subject[*Identity]
}

var _ Provider = (*Client)(nil)

func NewClient(t Transport, store metadata.Repository, l logging.Logger) *Client {
	c := &Client{
		transport: t,
		store:     store,
		logger:    l.With("module", "identity"),
		mode:      PersistenceMemory,
		state:     stream.NewSubject[*Identity](),
	}
	t.OnRefresh(c.onRefresh)
	return c
}

// Restore determines the initial auth state and publishes it. With a stored
// refresh token and local persistence the session is resumed; otherwise the
// initial state is signed out. Restore must run once before Watch emits.
func (c *Client) Restore(ctx context.Context) error {
	mode, token, err := c.loadStored(ctx)
	if err != nil {
		c.publish(nil)
		return err
	}

	c.mu.Lock()
	c.mode = mode
	c.mu.Unlock()

	if mode != PersistenceLocal || token == "" {
		c.publish(nil)
		return nil
	}

	c.transport.SetTokens("", token)
	var res rpc.AuthResult
	if err := c.transport.Call(ctx, rpc.MethodRefresh, rpc.RefreshRequest{RefreshToken: token}, &res); err != nil {
		c.logger.Warn(ctx, "stored session could not be resumed", "error", err)
		c.transport.ClearTokens()
		if derr := c.store.Delete(ctx, keyRefreshToken); derr != nil {
			c.logger.Warn(ctx, "failed to drop stored refresh token", "error", derr)
		}
		c.publish(nil)
		return nil
	}

	id := c.accept(ctx, res)
	c.logger.Info(ctx, "session restored", "uid", id.UID)
	c.publish(id)
	return nil
}

func (c *Client) loadStored(ctx context.Context) (Persistence, string, error) {
	rawMode, err := c.store.Get(ctx, keyPersistence)
	if err != nil {
		return PersistenceMemory, "", err
	}
	mode := PersistenceMemory
	if Persistence(rawMode) == PersistenceLocal {
		mode = PersistenceLocal
	}
	token, err := c.store.Get(ctx, keyRefreshToken)
	if err != nil {
		return mode, "", err
	}
	return mode, string(token), nil
}

func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (*Identity, error) {
	var res rpc.AuthResult
	req := rpc.SignUpRequest{Email: email, Password: password, DisplayName: displayName}
	if err := c.transport.Call(ctx, rpc.MethodSignUp, req, &res); err != nil {
		return nil, providerError(err)
	}
	id := c.accept(ctx, res)
	c.publish(id)
	return id, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	var res rpc.AuthResult
	if err := c.transport.Call(ctx, rpc.MethodSignIn, rpc.SignInRequest{Email: email, Password: password}, &res); err != nil {
		return nil, providerError(err)
	}
	id := c.accept(ctx, res)
	c.publish(id)
	return id, nil
}

// SignOut revokes the refresh token on the server and clears local state.
// The local sign-out happens even when the server call fails.
func (c *Client) SignOut(ctx context.Context) error {
	_, refresh := c.transport.Tokens()

	var callErr error
	if refresh != "" {
		callErr = c.transport.Call(ctx, rpc.MethodSignOut, rpc.RefreshRequest{RefreshToken: refresh}, nil)
		if callErr != nil {
			c.logger.Warn(ctx, "server sign-out failed", "error", callErr)
		}
	}

	c.transport.ClearTokens()
	if err := c.store.Delete(ctx, keyRefreshToken); err != nil {
		c.logger.Warn(ctx, "failed to drop stored refresh token", "error", err)
	}

	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
	c.publish(nil)

	if callErr != nil {
		return providerError(callErr)
	}
	return nil
}

func (c *Client) SetPersistence(ctx context.Context, mode Persistence) error {
	if mode != PersistenceMemory && mode != PersistenceLocal {
		return fmt.Errorf("unknown persistence mode %q", mode)
	}
	if err := c.store.Set(ctx, keyPersistence, []byte(mode)); err != nil {
		return err
	}

	c.mu.Lock()
	c.mode = mode
	signedIn := c.current != nil
	c.mu.Unlock()

	if mode == PersistenceMemory {
		return c.store.Delete(ctx, keyRefreshToken)
	}
	if signedIn {
		_, refresh := c.transport.Tokens()
		return c.storeRefreshToken(ctx, refresh)
	}
	return nil
}

func (c *Client) CurrentUser() *Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	id := *c.current
	return &id
}

func (c *Client) Watch() *stream.Subscription[*Identity] {
	return c.state.Subscribe()
}

// Close completes the auth-state stream.
func (c *Client) Close() {
	c.state.Complete()
}

func (c *Client) accept(ctx context.Context, res rpc.AuthResult) *Identity {
	c.transport.SetTokens(res.AccessToken, res.RefreshToken)

	id := &Identity{UID: res.UID, Email: res.Email, DisplayName: res.DisplayName}

	c.mu.Lock()
	c.current = id
	mode := c.mode
	c.mu.Unlock()

	if mode == PersistenceLocal {
		if err := c.storeRefreshToken(ctx, res.RefreshToken); err != nil {
			c.logger.Warn(ctx, "failed to persist session", "error", err)
		}
	}
	return id
}

func (c *Client) onRefresh(res rpc.AuthResult) {
	c.mu.Lock()
	mode := c.mode
	c.mu.Unlock()
	if mode != PersistenceLocal {
		return
	}
	ctx := context.Background()
	if err := c.storeRefreshToken(ctx, res.RefreshToken); err != nil {
		c.logger.Warn(ctx, "failed to persist rotated refresh token", "error", err)
	}
}

func (c *Client) storeRefreshToken(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return c.store.Set(ctx, keyRefreshToken, []byte(token))
}

func (c *Client) publish(id *Identity) {
	if id != nil {
		cp := *id
		id = &cp
	}
	c.state.Next(id)
}

func providerError(err error) error {
	var ce *client.CodeError
	if errors.As(err, &ce) {
		return &ProviderError{Code: ce.Code, Err: err}
	}
	return err
}
