package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversToSubscribersOfType(t *testing.T) {
	bus := NewBus()
	committed := bus.Subscribe(EventReservationCommitted)
	closed := bus.Subscribe(EventTicketClosed)

	bus.Publish(EventReservationCommitted, Payload{"reservation_id": "r1"})

	select {
	case p := <-committed:
		assert.Equal(t, "r1", p["reservation_id"])
	default:
		t.Fatal("expected committed event")
	}
	assert.Len(t, closed, 0)
}

func TestBusDropsWhenSubscriberIsFull(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(EventTicketOpened)

	for i := 0; i < cap(sub)+5; i++ {
		bus.Publish(EventTicketOpened, Payload{"n": i})
	}
	assert.Len(t, sub, cap(sub))
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(EventTicketPaid)
	bus.Unsubscribe(EventTicketPaid, sub)

	_, ok := <-sub
	require.False(t, ok)

	// publishing after unsubscribe must not panic on the closed channel
	bus.Publish(EventTicketPaid, Payload{})
}

func TestPublishConcurrentWithUnsubscribe(t *testing.T) {
	bus := NewBus()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		sub := bus.Subscribe(EventTicketOpened)
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				bus.Publish(EventTicketOpened, Payload{"n": j})
			}
		}()
		go func() {
			defer wg.Done()
			bus.Unsubscribe(EventTicketOpened, sub)
		}()
	}
	wg.Wait()

	bus.mu.RLock()
	defer bus.mu.RUnlock()
	assert.Empty(t, bus.subs[EventTicketOpened])
}

func TestDiscardSatisfiesPublisher(t *testing.T) {
	var p Publisher = Discard{}
	p.Publish(EventTicketClosed, Payload{"ticket_id": "t1"})
}
