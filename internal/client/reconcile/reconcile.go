// Package reconcile keeps a screen's local copy of a collection in step with
// its live query and with the outcome of the screen's own mutations.
//
// A resolved query replaces the list wholesale. Between resolutions,
// successful creates and updates are patched in locally so the screen does
// not wait for the next delivery.
package reconcile

import (
	"context"
	"slices"
	"sync"

	"github.com/dmitrijs2005/restaurant/internal/client/livequery"
	"github.com/dmitrijs2005/restaurant/internal/logging"
	"github.com/dmitrijs2005/restaurant/internal/stream"
)

// Entity is a record with a server-assigned key.
type Entity[T any] interface {
	Key() string
	WithKey(id string) T
}

type Kind int

const (
	Created Kind = iota
	Updated
)

func (k Kind) String() string {
	if k == Created {
		return "created"
	}
	return "updated"
}

// Outcome is the result of a successful create or update. PreviousID is the
// key the record had before an update.
type Outcome[T any] struct {
	Kind       Kind
	ID         string
	PreviousID string
	Fields     T
}

// Reconciler owns one screen's list. All methods are safe for concurrent
// use.
type Reconciler[T Entity[T]] struct {
	name   string
	logger logging.Logger

	mu       sync.Mutex
	items    []T
	loading  bool
	err      error
	onChange []func()

	sub  *stream.Subscription[livequery.State[T]]
	done chan struct{}
	once sync.Once
}

// New subscribes to src and starts mirroring it. The list is loading until
// the first state arrives.
func New[T Entity[T]](name string, src livequery.Source[T], l logging.Logger) *Reconciler[T] {
	r := &Reconciler[T]{
		name:    name,
		logger:  l.With("module", "reconcile", "list", name),
		loading: true,
		sub:     src.Subscribe(),
		done:    make(chan struct{}),
	}
	go r.pump()
	return r
}

func (r *Reconciler[T]) pump() {
	defer close(r.done)
	for ev := range r.sub.C() {
		if ev.Err != nil {
			r.Observe(livequery.State[T]{IsError: true, Error: ev.Err})
			continue
		}
		r.Observe(ev.Value)
	}
}

// Observe applies one live-query state.
func (r *Reconciler[T]) Observe(s livequery.State[T]) {
	r.mu.Lock()
	switch {
	case s.IsLoading:
		r.loading = true
	case s.IsError:
		r.logger.Error(context.Background(), "live query failed", "error", s.Error)
		r.loading = false
		r.err = s.Error
	default:
		r.items = slices.Clone(s.Data)
		r.loading = false
		r.err = nil
	}
	r.mu.Unlock()
	r.changed()
}

// Apply patches the list with a mutation outcome. Creates are prepended.
// Updates replace the entry keyed PreviousID in place, or are prepended when
// that entry is no longer in the list.
func (r *Reconciler[T]) Apply(o Outcome[T]) {
	rec := o.Fields.WithKey(o.ID)

	r.mu.Lock()
	switch o.Kind {
	case Created:
		r.items = slices.Insert(r.items, 0, rec)
	case Updated:
		i := slices.IndexFunc(r.items, func(it T) bool { return it.Key() == o.PreviousID })
		if i >= 0 {
			r.items[i] = rec
		} else {
			r.logger.Debug(context.Background(), "updated record not in list, prepending", "id", o.PreviousID)
			r.items = slices.Insert(r.items, 0, rec)
		}
	}
	r.mu.Unlock()
	r.changed()
}

// Remove drops the record with the given key from the local list only. The
// backend keeps it, so the next resolution of the query brings it back.
func (r *Reconciler[T]) Remove(id string) {
	r.mu.Lock()
	r.items = slices.DeleteFunc(r.items, func(it T) bool { return it.Key() == id })
	r.mu.Unlock()
	r.changed()
}

// Items returns a copy of the list.
func (r *Reconciler[T]) Items() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.items)
}

func (r *Reconciler[T]) IsLoading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loading
}

// Err is the last query error, cleared by the next successful delivery.
func (r *Reconciler[T]) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// OnChange registers fn to run after every change, outside the lock.
func (r *Reconciler[T]) OnChange(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = append(r.onChange, fn)
}

func (r *Reconciler[T]) changed() {
	r.mu.Lock()
	fns := slices.Clone(r.onChange)
	r.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Dispose unsubscribes from the live query and waits for the pump to stop.
// No callbacks run after it returns.
func (r *Reconciler[T]) Dispose() {
	r.once.Do(func() {
		r.sub.Close()
		<-r.done
		r.mu.Lock()
		r.onChange = nil
		r.mu.Unlock()
	})
}
