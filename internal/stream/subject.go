// Package stream provides a multicast value stream that replays its latest
// event to late subscribers.
//
// A Subject is fed by a single producer with Next, Error and Complete. Each
// Subscribe call gets its own Subscription with an unbounded queue drained by
// a dedicated goroutine, so a slow consumer never blocks the producer and
// never loses or reorders events.
package stream

import (
	"context"
	"errors"
	"sync"
)

// ErrCompleted is returned by First when the stream ends without emitting.
var ErrCompleted = errors.New("stream completed")

// Event is a single emission. A non-nil Err marks the terminal error event.
type Event[T any] struct {
	Value T
	Err   error
}

// Subject is a replaying multicast stream. The zero value is not usable;
// construct it with NewSubject.
type Subject[T any] struct {
	mu   sync.Mutex
	last *Event[T]
	subs map[*Subscription[T]]struct{}
	done bool
}

func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{subs: make(map[*Subscription[T]]struct{})}
}

// Next publishes v to every subscriber and remembers it for replay.
func (s *Subject[T]) Next(v T) {
	s.publish(Event[T]{Value: v}, false)
}

// Error publishes a terminal error. Subscribers receive it and their channel
// is closed afterwards; later subscribers get the error replayed.
func (s *Subject[T]) Error(err error) {
	s.publish(Event[T]{Err: err}, true)
}

// Complete ends the stream without an error.
func (s *Subject[T]) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	s.done = true
	for sub := range s.subs {
		sub.finish()
	}
	clear(s.subs)
}

// Value returns the last non-error value, if any.
func (s *Subject[T]) Value() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	if s.last == nil || s.last.Err != nil {
		return zero, false
	}
	return s.last.Value, true
}

// Subscribe registers a new subscriber. The last event, if any, is delivered
// first.
func (s *Subject[T]) Subscribe() *Subscription[T] {
	sub := newSubscription(s)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last != nil {
		sub.push(*s.last)
	}
	if s.done {
		sub.finish()
		return sub
	}
	s.subs[sub] = struct{}{}
	return sub
}

func (s *Subject[T]) publish(ev Event[T], terminal bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	s.last = &ev
	for sub := range s.subs {
		sub.push(ev)
		if terminal {
			sub.finish()
		}
	}
	if terminal {
		s.done = true
		clear(s.subs)
	}
}

func (s *Subject[T]) remove(sub *Subscription[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, sub)
}

// Subscription is one consumer's view of a Subject.
type Subscription[T any] struct {
	parent *Subject[T]
	c      chan Event[T]

	mu    sync.Mutex
	queue []Event[T]
	final bool

	wake chan struct{}
	stop chan struct{}
	once sync.Once
}

func newSubscription[T any](parent *Subject[T]) *Subscription[T] {
	sub := &Subscription[T]{
		parent: parent,
		c:      make(chan Event[T]),
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
	}
	go sub.pump()
	return sub
}

// C delivers events in publication order. It is closed after a terminal
// event, after Complete, or after Close.
func (s *Subscription[T]) C() <-chan Event[T] {
	return s.c
}

// Close detaches the subscription. Undelivered events are dropped.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		close(s.stop)
		s.parent.remove(s)
	})
}

func (s *Subscription[T]) push(ev Event[T]) {
	s.mu.Lock()
	s.queue = append(s.queue, ev)
	s.mu.Unlock()
	s.signal()
}

func (s *Subscription[T]) finish() {
	s.mu.Lock()
	s.final = true
	s.mu.Unlock()
	s.signal()
}

func (s *Subscription[T]) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription[T]) pump() {
	defer close(s.c)
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			final := s.final
			s.mu.Unlock()
			if final {
				return
			}
			select {
			case <-s.wake:
				continue
			case <-s.stop:
				return
			}
		}
		ev := s.queue[0]
		s.queue[0] = Event[T]{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.c <- ev:
		case <-s.stop:
			return
		}
	}
}

// First waits for the first event of sub and closes it. A stream that ends
// without emitting yields ErrCompleted.
func First[T any](ctx context.Context, sub *Subscription[T]) (T, error) {
	defer sub.Close()

	var zero T
	select {
	case ev, ok := <-sub.C():
		if !ok {
			return zero, ErrCompleted
		}
		if ev.Err != nil {
			return zero, ev.Err
		}
		return ev.Value, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
