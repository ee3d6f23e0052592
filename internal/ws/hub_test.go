package ws

import (
	"testing"

	"go.uber.org/zap"
)

type fakeSub struct {
	id     string
	msgs   [][]byte
	full   bool
	closed bool
}

func (f *fakeSub) ID() string { return f.id }

func (f *fakeSub) Send(payload []byte) bool {
	if f.full {
		return false
	}
	f.msgs = append(f.msgs, payload)
	return true
}

func (f *fakeSub) Close() { f.closed = true }

func newTestHub() *Hub {
	return NewHub(zap.NewNop())
}

func TestBroadcastReachesOnlySubscribers(t *testing.T) {
	hub := newTestHub()
	a := &fakeSub{id: "a"}
	b := &fakeSub{id: "b"}
	c := &fakeSub{id: "c"}

	hub.Subscribe(a, "leaderboard:42")
	hub.Subscribe(b, "leaderboard:42")
	hub.Subscribe(c, "stock:AAPL")

	hub.Broadcast("leaderboard:42", []byte("update"))

	if len(a.msgs) != 1 || len(b.msgs) != 1 {
		t.Errorf("expected both subscribers to receive 1 message, got %d and %d", len(a.msgs), len(b.msgs))
	}
	if len(c.msgs) != 0 {
		t.Errorf("non-subscriber received %d messages", len(c.msgs))
	}
}

func TestSubscribeIsIdempotent(t *testing.T) {
	hub := newTestHub()
	a := &fakeSub{id: "a"}

	hub.Subscribe(a, "stock:AAPL")
	hub.Subscribe(a, "stock:AAPL")

	hub.Broadcast("stock:AAPL", []byte("quote"))

	if len(a.msgs) != 1 {
		t.Errorf("double subscribe delivered %d messages, want 1", len(a.msgs))
	}
	if got := len(hub.SubscribersOf("stock:AAPL")); got != 1 {
		t.Errorf("expected 1 subscriber, got %d", got)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	hub := newTestHub()
	a := &fakeSub{id: "a"}

	hub.Subscribe(a, "stock:AAPL")
	hub.Unsubscribe(a, "stock:AAPL")
	hub.Broadcast("stock:AAPL", []byte("quote"))

	if len(a.msgs) != 0 {
		t.Errorf("unsubscribed connection received %d messages", len(a.msgs))
	}
}

func TestUnsubscribeUnknownIsNoop(t *testing.T) {
	hub := newTestHub()
	a := &fakeSub{id: "a"}

	// Never subscribed; must not panic or create state.
	hub.Unsubscribe(a, "stock:AAPL")
	hub.Unsubscribe(a, "bogus")

	if rooms := hub.ActiveRooms(); len(rooms) != 0 {
		t.Errorf("expected no rooms, got %v", rooms)
	}
}

func TestDisconnectRemovesAllSubscriptions(t *testing.T) {
	hub := newTestHub()
	a := &fakeSub{id: "a"}
	b := &fakeSub{id: "b"}

	hub.Subscribe(a, "stock:AAPL")
	hub.Subscribe(a, "stock:MSFT")
	hub.Subscribe(a, "leaderboard:7")
	hub.Subscribe(b, "leaderboard:7")

	hub.Disconnect(a)

	for _, room := range []string{"stock:AAPL", "stock:MSFT", "leaderboard:7"} {
		for _, sub := range hub.SubscribersOf(room) {
			if sub == Subscriber(a) {
				t.Errorf("disconnected subscriber still present in %s", room)
			}
		}
	}
	if got := len(hub.SubscribersOf("leaderboard:7")); got != 1 {
		t.Errorf("expected b to remain in leaderboard:7, got %d subscribers", got)
	}

	// Second disconnect is a no-op.
	hub.Disconnect(a)
}

func TestConnectionWithoutSubscribeReceivesNothing(t *testing.T) {
	hub := newTestHub()
	a := &fakeSub{id: "a"}
	b := &fakeSub{id: "b"}

	hub.Subscribe(a, "leaderboard:42")
	// b connected but never subscribed: silence, not error.
	hub.Broadcast("leaderboard:42", []byte("update"))

	if len(b.msgs) != 0 {
		t.Errorf("unsubscribed connection received %d messages", len(b.msgs))
	}
}

func TestActiveRoomsSkipsEmptied(t *testing.T) {
	hub := newTestHub()
	a := &fakeSub{id: "a"}

	hub.Subscribe(a, "stock:AAPL")
	hub.Subscribe(a, "leaderboard:42")
	hub.Unsubscribe(a, "stock:AAPL")

	rooms := hub.ActiveRooms()
	if len(rooms) != 1 || rooms[0] != "leaderboard:42" {
		t.Errorf("expected only leaderboard:42 active, got %v", rooms)
	}
}

func TestStalledSubscriberIsDropped(t *testing.T) {
	hub := newTestHub()
	stalled := &fakeSub{id: "stalled", full: true}
	healthy := &fakeSub{id: "healthy"}

	hub.Subscribe(stalled, "stock:AAPL")
	hub.Subscribe(healthy, "stock:AAPL")

	hub.Broadcast("stock:AAPL", []byte("quote"))

	if !stalled.closed {
		t.Error("stalled subscriber was not closed")
	}
	if got := len(hub.SubscribersOf("stock:AAPL")); got != 1 {
		t.Errorf("expected only healthy subscriber to remain, got %d", got)
	}
	if len(healthy.msgs) != 1 {
		t.Errorf("healthy subscriber received %d messages, want 1", len(healthy.msgs))
	}
}

func TestBroadcastUnknownRoomIsNoop(t *testing.T) {
	hub := newTestHub()
	hub.Broadcast("stock:NOPE", []byte("quote"))
}

func TestShutdownClosesEverything(t *testing.T) {
	hub := newTestHub()
	a := &fakeSub{id: "a"}
	b := &fakeSub{id: "b"}

	hub.Subscribe(a, "stock:AAPL")
	hub.Subscribe(b, "leaderboard:42")

	hub.Shutdown()

	if !a.closed || !b.closed {
		t.Error("expected all subscribers closed after shutdown")
	}
	if rooms := hub.ActiveRooms(); len(rooms) != 0 {
		t.Errorf("expected no active rooms after shutdown, got %v", rooms)
	}
}
