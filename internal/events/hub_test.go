package events

import (
	"testing"
	"time"
)

func TestHub_TypedSubscription(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe(4, EventAccessGranted)

	h.EmitKnockAccepted("192.0.2.1", 7000, 1)
	h.EmitAccessGranted("192.0.2.1", []uint16{22}, 10*time.Minute)

	select {
	case e := <-ch:
		if e.Type != EventAccessGranted {
			t.Errorf("got %s, want %s", e.Type, EventAccessGranted)
		}
		data, ok := e.Data.(AccessData)
		if !ok {
			t.Fatalf("Data has type %T", e.Data)
		}
		if data.Address != "192.0.2.1" || len(data.Ports) != 1 || data.Ports[0] != 22 {
			t.Errorf("data = %+v", data)
		}
	default:
		t.Fatal("no event delivered")
	}

	select {
	case e := <-ch:
		t.Errorf("unexpected second event: %+v", e)
	default:
	}
}

func TestHub_GlobalSubscription(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe(8)

	h.EmitKnockRejected("192.0.2.2", 8000, "mismatch")
	h.EmitAddressBanned("192.0.2.2", time.Hour, 26)
	h.EmitStateSwept(3, 7)

	for _, want := range []EventType{EventKnockRejected, EventAddressBanned, EventStateSwept} {
		select {
		case e := <-ch:
			if e.Type != want {
				t.Errorf("got %s, want %s", e.Type, want)
			}
			if e.Timestamp.IsZero() {
				t.Error("timestamp not stamped")
			}
		default:
			t.Fatalf("missing %s event", want)
		}
	}
}

func TestHub_NonBlockingDrop(t *testing.T) {
	h := NewHub()
	h.Subscribe(1, EventKnockAccepted)

	// Second publish overflows the buffer and must not block.
	h.EmitKnockAccepted("192.0.2.3", 7000, 1)
	h.EmitKnockAccepted("192.0.2.3", 8000, 2)

	published, dropped := h.Stats()
	if published != 2 {
		t.Errorf("published = %d", published)
	}
	if dropped != 1 {
		t.Errorf("dropped = %d", dropped)
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe(4, EventAddressUnbanned)
	h.Unsubscribe(ch)

	h.EmitAddressUnbanned("192.0.2.4")

	select {
	case e := <-ch:
		t.Errorf("event after unsubscribe: %+v", e)
	default:
	}
}
