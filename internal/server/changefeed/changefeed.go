// Package changefeed tells live queries when a collection has changed.
//
// Writers call Publish after a successful write; every Watch stream on the
// collection holds a Subscription and re-lists the collection whenever a
// notification arrives. Notifications carry no payload and coalesce: a
// subscriber that has not consumed the previous one sees a single pending
// notification.
package changefeed

import (
	"context"
	"sync"

	evbus "github.com/asaskevich/EventBus"
)

// Feed publishes and delivers change notifications.
type Feed interface {
	Publish(ctx context.Context, collection string) error
	Subscribe(collection string) *Subscription
	Close() error
}

const topicChanged = "collection:changed"

// Subscription receives a value on C after each change of its collection.
type Subscription struct {
	C <-chan struct{}

	c         chan struct{}
	hub       *hub
	name      string
	closeOnce sync.Once
}

// Close detaches the subscription. C is not closed.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() { s.hub.remove(s) })
}

// hub fans bus events out to local subscribers. Exactly one bus handler is
// registered per hub, so subscribers never need to unsubscribe from the
// bus itself.
type hub struct {
	bus evbus.Bus

	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{}
}

func newHub() *hub {
	h := &hub{
		bus:  evbus.New(),
		subs: make(map[string]map[*Subscription]struct{}),
	}
	_ = h.bus.Subscribe(topicChanged, h.dispatch)
	return h
}

func (h *hub) notify(collection string) {
	h.bus.Publish(topicChanged, collection)
}

func (h *hub) dispatch(collection string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs[collection] {
		select {
		case s.c <- struct{}{}:
		default:
		}
	}
}

func (h *hub) add(collection string) *Subscription {
	c := make(chan struct{}, 1)
	s := &Subscription{C: c, c: c, hub: h, name: collection}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[collection] == nil {
		h.subs[collection] = make(map[*Subscription]struct{})
	}
	h.subs[collection][s] = struct{}{}
	return s
}

func (h *hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[s.name], s)
	if len(h.subs[s.name]) == 0 {
		delete(h.subs, s.name)
	}
}

func (h *hub) count(collection string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[collection])
}
