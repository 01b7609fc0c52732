// Package metadata stores small key/value records in the console's local
// sqlite database. The identity client keeps the persistence mode and the
// refresh token of a durable session here.
package metadata

import "context"

type Repository interface {
	// Get returns (nil, nil) when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
