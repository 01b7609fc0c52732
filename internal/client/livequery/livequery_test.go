package livequery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/restaurant/internal/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect[T any](t *testing.T, sub *stream.Subscription[State[T]]) []State[T] {
	t.Helper()
	var out []State[T]
	timeout := time.After(time.Second)
	for {
		select {
		case ev, ok := <-sub.C():
			if !ok {
				return out
			}
			out = append(out, ev.Value)
		case <-timeout:
			t.Fatal("query did not complete")
		}
	}
}

func TestQuery_LoadingThenData(t *testing.T) {
	release := make(chan struct{})
	q := Start(context.Background(), func(ctx context.Context, emit func([]string)) error {
		<-release
		emit([]string{"a"})
		emit([]string{"a", "b"})
		return nil
	})
	sub := q.Subscribe()
	close(release)

	states := collect(t, sub)
	require.Len(t, states, 3)
	assert.True(t, states[0].IsLoading)
	assert.Equal(t, []string{"a"}, states[1].Data)
	assert.Equal(t, []string{"a", "b"}, states[2].Data)
}

func TestQuery_ErrorState(t *testing.T) {
	release := make(chan struct{})
	boom := errors.New("permission denied")
	q := Start(context.Background(), func(ctx context.Context, emit func([]int)) error {
		<-release
		return boom
	})
	sub := q.Subscribe()
	close(release)

	states := collect(t, sub)
	require.Len(t, states, 2)
	assert.True(t, states[1].IsError)
	assert.ErrorIs(t, states[1].Error, boom)
}

func TestQuery_StopCancelsFetcher(t *testing.T) {
	started := make(chan struct{})
	q := Start(context.Background(), func(ctx context.Context, emit func([]int)) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	sub := q.Subscribe()
	<-started
	q.Stop()
	q.Stop()

	states := collect(t, sub)
	require.Len(t, states, 1, "cancellation must not surface as an error state")
	assert.True(t, states[0].IsLoading)
}
