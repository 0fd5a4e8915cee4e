package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/mindstore/internal/model"
)

func TestPublishOrder(t *testing.T) {
	bus := NewBus()
	var got []string
	bus.Subscribe(func(e Event) { got = append(got, "a:"+e.Name()) })
	bus.Subscribe(func(e Event) { got = append(got, "b:"+e.Name()) })

	bus.Publish(Online{})

	assert.Equal(t, []string{"a:network.online", "b:network.online"}, got)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()
	calls := 0
	unsubscribe := bus.Subscribe(func(Event) { calls++ })
	require.Equal(t, 1, bus.Len())

	bus.Publish(Offline{})
	unsubscribe()
	unsubscribe()
	bus.Publish(Offline{})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.Len())
}

func TestUnavailablePayload(t *testing.T) {
	bus := NewBus()
	var got Unavailable
	bus.Subscribe(func(e Event) {
		if u, ok := e.(Unavailable); ok {
			got = u
		}
	})

	bus.Publish(Unavailable{Reason: model.ReasonTimeout})

	assert.Equal(t, model.ReasonTimeout, got.Reason)
	assert.Equal(t, "storage.unavailable", got.Name())
}

func TestHandlerMaySubscribeDuringPublish(t *testing.T) {
	bus := NewBus()
	bus.Subscribe(func(Event) {
		bus.Subscribe(func(Event) {})
	})

	bus.Publish(Online{})
	assert.Equal(t, 2, bus.Len())
}

func TestNilBusPublish(t *testing.T) {
	var bus *Bus
	assert.NotPanics(t, func() { bus.Publish(Online{}) })
}

func TestConcurrentPublish(t *testing.T) {
	bus := NewBus()
	var mu sync.Mutex
	count := 0
	bus.Subscribe(func(Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Publish(Online{})
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, count)
}
