package changefeed

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/restaurant/internal/logging"
)

const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// New builds the feed for driver. An empty driver selects DriverMemory.
func New(ctx context.Context, driver string, redisOpts RedisOptions, l logging.Logger) (Feed, error) {
	switch driver {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverRedis:
		return NewRedis(ctx, redisOpts, l)
	default:
		return nil, fmt.Errorf("unsupported change feed driver: %s", driver)
	}
}
