// Package events is an in-process broadcast bus. Storage publishes
// Unavailable when it falls back to degraded mode; the remote syncer
// publishes Offline and Online as uploads start and stop failing, and Online
// drives offline queue replay.
package events

import (
	"maps"
	"slices"
	"sync"

	"github.com/manav03panchal/mindstore/internal/model"
)

// Event is any value published on the bus.
type Event interface {
	Name() string
}

// Unavailable signals that the primary store is not usable.
type Unavailable struct {
	Reason model.Reason
	Err    error
}

func (Unavailable) Name() string { return "storage.unavailable" }

// Online signals that the remote became reachable.
type Online struct{}

func (Online) Name() string { return "network.online" }

// Offline signals that the remote stopped being reachable.
type Offline struct{}

func (Offline) Name() string { return "network.offline" }

// Handler receives events. Handlers run synchronously on the publisher's
// goroutine and must not block.
type Handler func(Event)

// Bus fans events out to subscribers.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]Handler
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]Handler)}
}

// Subscribe registers h and returns a function that removes it.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers e to every current subscriber in subscription order.
// A nil bus drops the event.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, id := range slices.Sorted(maps.Keys(b.subs)) {
		handlers = append(handlers, b.subs[id])
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
