package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv[T any](t *testing.T, sub *Subscription[T]) Event[T] {
	t.Helper()
	select {
	case ev, ok := <-sub.C():
		require.True(t, ok, "channel closed unexpectedly")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event[T]{}
}

func requireClosed[T any](t *testing.T, sub *Subscription[T]) {
	t.Helper()
	select {
	case _, ok := <-sub.C():
		require.False(t, ok, "expected closed channel")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for close")
	}
}

func TestSubject_DeliversInOrder(t *testing.T) {
	s := NewSubject[int]()
	sub := s.Subscribe()
	defer sub.Close()

	for i := 1; i <= 100; i++ {
		s.Next(i)
	}
	for i := 1; i <= 100; i++ {
		assert.Equal(t, i, recv(t, sub).Value)
	}
}

func TestSubject_ReplaysLastToLateSubscriber(t *testing.T) {
	s := NewSubject[string]()
	s.Next("a")
	s.Next("b")

	late := s.Subscribe()
	defer late.Close()

	assert.Equal(t, "b", recv(t, late).Value)

	v, ok := s.Value()
	require.True(t, ok)
	assert.Equal(t, "b", v)
}

func TestSubject_NoEmissionBeforeFirstNext(t *testing.T) {
	s := NewSubject[int]()
	sub := s.Subscribe()
	defer sub.Close()

	select {
	case <-sub.C():
		t.Fatal("unexpected event before first Next")
	case <-time.After(20 * time.Millisecond):
	}

	_, ok := s.Value()
	assert.False(t, ok)
}

func TestSubject_ErrorIsTerminal(t *testing.T) {
	s := NewSubject[int]()
	sub := s.Subscribe()

	boom := errors.New("boom")
	s.Next(1)
	s.Error(boom)
	s.Next(2)

	assert.Equal(t, 1, recv(t, sub).Value)
	assert.ErrorIs(t, recv(t, sub).Err, boom)
	requireClosed(t, sub)

	late := s.Subscribe()
	assert.ErrorIs(t, recv(t, late).Err, boom)
	requireClosed(t, late)

	_, ok := s.Value()
	assert.False(t, ok)
}

func TestSubject_CompleteClosesSubscribers(t *testing.T) {
	s := NewSubject[int]()
	sub := s.Subscribe()
	s.Next(7)
	s.Complete()

	assert.Equal(t, 7, recv(t, sub).Value)
	requireClosed(t, sub)
}

func TestSubscription_CloseStopsDelivery(t *testing.T) {
	s := NewSubject[int]()
	sub := s.Subscribe()
	sub.Close()
	sub.Close()

	s.Next(1)
	requireClosed(t, sub)
}

func TestSubject_SlowSubscriberDoesNotBlockProducer(t *testing.T) {
	s := NewSubject[int]()
	slow := s.Subscribe()
	defer slow.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			s.Next(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("producer blocked by an idle subscriber")
	}
	assert.Equal(t, 0, recv(t, slow).Value)
}

func TestFirst(t *testing.T) {
	t.Run("value", func(t *testing.T) {
		s := NewSubject[int]()
		s.Next(3)
		v, err := First(context.Background(), s.Subscribe())
		require.NoError(t, err)
		assert.Equal(t, 3, v)
	})

	t.Run("error", func(t *testing.T) {
		s := NewSubject[int]()
		s.Error(errors.New("down"))
		_, err := First(context.Background(), s.Subscribe())
		assert.EqualError(t, err, "down")
	})

	t.Run("completed without value", func(t *testing.T) {
		s := NewSubject[int]()
		s.Complete()
		_, err := First(context.Background(), s.Subscribe())
		assert.ErrorIs(t, err, ErrCompleted)
	})

	t.Run("context cancelled", func(t *testing.T) {
		s := NewSubject[int]()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := First(ctx, s.Subscribe())
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("waits for a later value", func(t *testing.T) {
		s := NewSubject[int]()
		go func() {
			time.Sleep(10 * time.Millisecond)
			s.Next(9)
		}()
		v, err := First(context.Background(), s.Subscribe())
		require.NoError(t, err)
		assert.Equal(t, 9, v)
	})
}
