package events

import (
	"testing"
	"time"
)

func TestSubscribeReceivesPublishedEvent(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	h.Publish(OrderCreated, 42, "Nueva caja confirmada")

	select {
	case e := <-ch:
		if e.Type != OrderCreated || e.OrderID != 42 {
			t.Fatalf("unexpected event: %+v", e)
		}
		if e.At.IsZero() {
			t.Fatal("event timestamp not set")
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestPublishDoesNotBlockOnSlowConsumer(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	done := make(chan struct{})
	go func() {
		// Nobody reads ch: once the buffer fills, events must be dropped,
		// not queued forever.
		for i := 0; i < 100; i++ {
			h.Publish(OrderModified, i, "x")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a slow consumer")
	}
	if len(ch) != cap(ch) {
		t.Fatalf("expected a full buffer of %d, got %d", cap(ch), len(ch))
	}
}

func TestUnsubscribeClosesChannelOnce(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	h.Unsubscribe(ch)
	// A second call on the same channel must be a no-op.
	h.Unsubscribe(ch)

	if _, open := <-ch; open {
		t.Fatal("channel still open after unsubscribe")
	}
	// Publishing after unsubscribe must not panic.
	h.Publish(OrderCancelled, 1, "bye")
}
