package input

import (
	"testing"
	"time"
)

func TestSubscribeReceivesInjectedEvents(t *testing.T) {
	h := NewHub()
	id, ch := h.Subscribe()
	defer h.Unsubscribe(id)

	h.Inject(Event{Kind: MouseDown, X: 10, Y: 20})

	select {
	case ev := <-ch:
		if ev.Kind != MouseDown || ev.X != 10 || ev.Y != 20 {
			t.Errorf("Unexpected event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for injected event")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	h := NewHub()
	id, ch := h.Subscribe()
	h.Unsubscribe(id)

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("Expected closed channel after Unsubscribe")
		}
	case <-time.After(time.Second):
		t.Fatal("Channel not closed after Unsubscribe")
	}

	// Broadcasting after unsubscribe must not panic.
	h.Inject(Event{Kind: KeyDown, Rawcode: 27})
}

func TestSlowConsumerDoesNotBlock(t *testing.T) {
	h := NewHub()
	id, _ := h.Subscribe()
	defer h.Unsubscribe(id)

	// Never read from the channel; injecting past the buffer must not stall.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			h.Inject(Event{Kind: MouseMove, X: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Inject blocked on a slow consumer")
	}
}
