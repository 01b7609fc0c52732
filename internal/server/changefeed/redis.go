package changefeed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/restaurant/internal/logging"
	"github.com/redis/go-redis/v9"
)

// DefaultChannelPrefix namespaces the pub/sub channels, one per collection.
const DefaultChannelPrefix = "restaurant:changed:"

type RedisOptions struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}

// Redis relays notifications through redis pub/sub so that every server
// instance sharing the database sees writes made by any of them.
type Redis struct {
	*hub
	client *redis.Client
	pubsub *redis.PubSub
	prefix string
	logger logging.Logger

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

var _ Feed = (*Redis)(nil)

// NewRedis connects, subscribes to the change channels and starts relaying
// them to local subscribers.
func NewRedis(ctx context.Context, opts RedisOptions, l logging.Logger) (*Redis, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis address required")
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	ps := client.PSubscribe(ctx, prefix+"*")
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		_ = client.Close()
		return nil, fmt.Errorf("redis subscribe failed: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	r := &Redis{
		hub:    newHub(),
		client: client,
		pubsub: ps,
		prefix: prefix,
		logger: l.With("module", "changefeed"),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go r.relay(runCtx)
	return r, nil
}

func (r *Redis) relay(ctx context.Context) {
	defer close(r.done)
	ch := r.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			collection, found := strings.CutPrefix(msg.Channel, r.prefix)
			if !found {
				continue
			}
			r.logger.Debug(ctx, "change received", "collection", collection)
			r.notify(collection)
		}
	}
}

func (r *Redis) Publish(ctx context.Context, collection string) error {
	if err := r.client.Publish(ctx, r.prefix+collection, "1").Err(); err != nil {
		return fmt.Errorf("redis publish failed: %w", err)
	}
	return nil
}

func (r *Redis) Subscribe(collection string) *Subscription {
	return r.add(collection)
}

func (r *Redis) Close() error {
	var err error
	r.once.Do(func() {
		r.cancel()
		err = errors.Join(r.pubsub.Close(), r.client.Close())
		<-r.done
	})
	return err
}
