// Package dataconnect is the console's typed client of the data service:
// profile upserts, create/upsert mutations, one-shot lists and live queries
// for every collection.
package dataconnect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/restaurant/internal/client/client"
	"github.com/dmitrijs2005/restaurant/internal/client/livequery"
	"github.com/dmitrijs2005/restaurant/internal/client/models"
	"github.com/dmitrijs2005/restaurant/internal/common"
	"github.com/dmitrijs2005/restaurant/internal/logging"
	"github.com/dmitrijs2005/restaurant/internal/rpc"
)

// Transport is the part of client.GRPCClient the data client uses.
type Transport interface {
	Call(ctx context.Context, method string, in, out any) error
	Watch(ctx context.Context, collection string) (client.SnapshotStream, error)
	Refresh(ctx context.Context) error
}

// UserProfile is written for the signed-in user on every sign-in.
type UserProfile struct {
	Username string
	RoleID   string
	Email    *string
}

type Client struct {
	transport Transport
	logger    logging.Logger
}

func New(t Transport, l logging.Logger) *Client {
	return &Client{transport: t, logger: l.With("module", "dataconnect")}
}

// UpsertUser writes the caller's profile, keyed by the authenticated uid.
func (c *Client) UpsertUser(ctx context.Context, p UserProfile) (string, error) {
	var res rpc.MutationResult
	req := rpc.UserProfile{Username: p.Username, RoleID: p.RoleID, Email: p.Email}
	if err := c.transport.Call(ctx, rpc.MethodUpsertUser, req, &res); err != nil {
		return "", err
	}
	return res.ID, nil
}

func (c *Client) Customers() Collection[models.Customer] {
	return Collection[models.Customer]{client: c, name: rpc.CollectionCustomers}
}

func (c *Client) Recipes() Collection[models.Recipe] {
	return Collection[models.Recipe]{client: c, name: rpc.CollectionRecipes}
}

func (c *Client) Users() Collection[models.User] {
	return Collection[models.User]{client: c, name: rpc.CollectionUsers}
}

func (c *Client) Orders() Collection[models.Order] {
	return Collection[models.Order]{client: c, name: rpc.CollectionOrders}
}

func (c *Client) AllCustomers(ctx context.Context) *livequery.Query[models.Customer] {
	return c.Customers().Watch(ctx)
}

func (c *Client) AllRecipes(ctx context.Context) *livequery.Query[models.Recipe] {
	return c.Recipes().Watch(ctx)
}

// Collection is a typed handle on one server collection.
type Collection[T any] struct {
	client *Client
	name   string
}

func (col Collection[T]) Name() string { return col.name }

// Create inserts rec and returns the generated key.
func (col Collection[T]) Create(ctx context.Context, rec T) (string, error) {
	return col.mutate(ctx, rpc.MethodCreate, rec)
}

// Upsert writes rec under its own key and returns that key.
func (col Collection[T]) Upsert(ctx context.Context, rec T) (string, error) {
	return col.mutate(ctx, rpc.MethodUpsert, rec)
}

func (col Collection[T]) mutate(ctx context.Context, method string, rec T) (string, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("encode %s record: %w", col.name, err)
	}
	var res rpc.MutationResult
	if err := col.client.transport.Call(ctx, method, rpc.MutationRequest{Collection: col.name, Record: raw}, &res); err != nil {
		return "", err
	}
	return res.ID, nil
}

// List fetches the collection once.
func (col Collection[T]) List(ctx context.Context) ([]T, error) {
	var snap rpc.Snapshot
	if err := col.client.transport.Call(ctx, rpc.MethodList, rpc.ListRequest{Collection: col.name}, &snap); err != nil {
		return nil, err
	}
	return decodeItems[T](snap)
}

// Watch starts a live query that re-delivers the whole collection on every
// change. Stop the returned query to close the server stream.
func (col Collection[T]) Watch(ctx context.Context) *livequery.Query[T] {
	return livequery.Start(ctx, col.fetcher())
}

func (col Collection[T]) fetcher() livequery.Fetcher[T] {
	c := col.client
	return func(ctx context.Context, emit func([]T)) error {
		refreshed := false
		for {
			err := col.pump(ctx, emit)
			if err == nil || ctx.Err() != nil {
				return err
			}
			if refreshed || !errors.Is(err, common.ErrTokenExpired) {
				c.logger.Error(ctx, "live query failed", "collection", col.name, "error", err)
				return err
			}
			refreshed = true
			if rerr := c.transport.Refresh(ctx); rerr != nil {
				return err
			}
		}
	}
}

func (col Collection[T]) pump(ctx context.Context, emit func([]T)) error {
	ws, err := col.client.transport.Watch(ctx, col.name)
	if err != nil {
		return err
	}
	for {
		snap, err := ws.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		items, err := decodeItems[T](snap)
		if err != nil {
			return err
		}
		emit(items)
	}
}

func decodeItems[T any](snap rpc.Snapshot) ([]T, error) {
	items := []T{}
	if len(snap.Items) == 0 || string(snap.Items) == "null" {
		return items, nil
	}
	if err := json.Unmarshal(snap.Items, &items); err != nil {
		return nil, fmt.Errorf("decode %s snapshot: %w", snap.Collection, err)
	}
	return items, nil
}
