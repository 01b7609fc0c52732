// Package livequery runs a subscription to a backend collection and exposes
// it as a replaying stream of query states.
package livequery

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/restaurant/internal/stream"
)

// State is one observation of a live query. Exactly one of IsLoading,
// IsError or a data delivery is signalled per emission.
type State[T any] struct {
	Data      []T
	IsLoading bool
	IsError   bool
	Error     error
}

// Source is anything a list can subscribe to for query states.
type Source[T any] interface {
	Subscribe() *stream.Subscription[State[T]]
}

// Fetcher delivers full result sets through emit until ctx is cancelled or
// the upstream ends. A non-nil return is published as an error state.
type Fetcher[T any] func(ctx context.Context, emit func([]T)) error

// Query is a running live query.
type Query[T any] struct {
	state  *stream.Subject[State[T]]
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

var _ Source[int] = (*Query[int])(nil)

// Start publishes a loading state and runs fetch in the background.
func Start[T any](ctx context.Context, fetch Fetcher[T]) *Query[T] {
	ctx, cancel := context.WithCancel(ctx)
	q := &Query[T]{
		state:  stream.NewSubject[State[T]](),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	q.state.Next(State[T]{IsLoading: true})
	go q.run(ctx, fetch)
	return q
}

func (q *Query[T]) run(ctx context.Context, fetch Fetcher[T]) {
	defer close(q.done)
	defer q.state.Complete()

	err := fetch(ctx, func(items []T) {
		q.state.Next(State[T]{Data: items})
	})
	if err != nil && ctx.Err() == nil {
		q.state.Next(State[T]{IsError: true, Error: err})
	}
}

func (q *Query[T]) Subscribe() *stream.Subscription[State[T]] {
	return q.state.Subscribe()
}

// Stop cancels the query and waits for the fetcher to return.
func (q *Query[T]) Stop() {
	q.once.Do(func() {
		q.cancel()
		<-q.done
	})
}
