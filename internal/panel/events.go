package panel

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/muurk/omnilink/internal/message"
)

// subscriberBuffer is the per-subscriber event buffer
const subscriberBuffer = 64

// Key identifies an object on the controller
type Key struct {
	Object message.ObjectType
	ID     uint16
}

func (k Key) String() string {
	return fmt.Sprintf("%s %d", k.Object, k.ID)
}

// Event is published on the client event stream
type Event interface {
	isEvent()
}

// StatusChanged reports a status that differs from the cached value.
// Old is nil the first time an object is seen.
type StatusChanged struct {
	Key Key
	Old message.ObjectStatus
	New message.ObjectStatus
}

// TroubleRaised reports a trouble condition that was not active at the
// previous poll
type TroubleRaised struct {
	Trouble message.Trouble
}

// ConnectionChanged reports the session going up or down
type ConnectionChanged struct {
	Connected bool
	Err       error // Cause of a disconnect
}

func (StatusChanged) isEvent()     {}
func (TroubleRaised) isEvent()     {}
func (ConnectionChanged) isEvent() {}

// Filter selects the events delivered to a subscriber
type Filter func(Event) bool

// ForObject passes status changes for one object type
func ForObject(o message.ObjectType) Filter {
	return func(e Event) bool {
		sc, ok := e.(StatusChanged)
		return ok && sc.Key.Object == o
	}
}

// ForKey passes status changes for a single object
func ForKey(k Key) Filter {
	return func(e Event) bool {
		sc, ok := e.(StatusChanged)
		return ok && sc.Key == k
	}
}

// StatusEvents passes every status change
func StatusEvents(e Event) bool {
	_, ok := e.(StatusChanged)
	return ok
}

type subscriber struct {
	ch     chan Event
	filter Filter
}

// eventBus fans events out to subscribers without blocking the publisher
type eventBus struct {
	mu     sync.Mutex
	subs   map[int]*subscriber
	next   int
	closed bool
	log    *zap.Logger
}

func newEventBus(log *zap.Logger) *eventBus {
	return &eventBus{subs: make(map[int]*subscriber), log: log}
}

func (b *eventBus) subscribe(filter Filter) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.next
	b.next++
	b.subs[id] = &subscriber{ch: ch, filter: filter}

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if s, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(s.ch)
		}
	}
}

func (b *eventBus) publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.subs {
		if s.filter != nil && !s.filter(e) {
			continue
		}
		select {
		case s.ch <- e:
		default:
			b.log.Warn("Subscriber buffer full, dropping event", zap.String("event", fmt.Sprintf("%T", e)))
		}
	}
}

func (b *eventBus) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, s := range b.subs {
		delete(b.subs, id)
		close(s.ch)
	}
}
