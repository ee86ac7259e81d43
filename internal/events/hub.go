// Package events provides the internal pub/sub bus connecting the knock
// engine to observers such as the metrics collector and audit logging.
package events

import (
	"sync"
	"time"
)

// Hub fans events out to subscribers with non-blocking delivery. A
// subscriber that does not drain its channel loses events rather than
// stalling the publisher.
type Hub struct {
	mu   sync.RWMutex
	subs map[EventType][]chan Event

	// Global subscribers receive every event.
	global []chan Event

	published uint64
	dropped   uint64
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subs: make(map[EventType][]chan Event),
	}
}

// Publish delivers an event to all matching subscribers. Never blocks; a
// full subscriber channel drops the event for that subscriber.
func (h *Hub) Publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.published++

	for _, ch := range h.subs[e.Type] {
		select {
		case ch <- e:
		default:
			h.dropped++
		}
	}

	for _, ch := range h.global {
		select {
		case ch <- e:
		default:
			h.dropped++
		}
	}
}

// Subscribe returns a channel receiving events of the given types, or all
// events when no types are named. The caller must drain the channel.
func (h *Hub) Subscribe(bufSize int, types ...EventType) <-chan Event {
	if bufSize <= 0 {
		bufSize = 256
	}

	ch := make(chan Event, bufSize)

	h.mu.Lock()
	defer h.mu.Unlock()

	if len(types) == 0 {
		h.global = append(h.global, ch)
	} else {
		for _, t := range types {
			h.subs[t] = append(h.subs[t], ch)
		}
	}

	return ch
}

// Unsubscribe removes a channel from all subscriptions. The channel is not
// closed.
func (h *Hub) Unsubscribe(ch <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.global = removeFromSlice(h.global, ch)
	for t, subs := range h.subs {
		h.subs[t] = removeFromSlice(subs, ch)
	}
}

// Stats returns publish and drop counts.
func (h *Hub) Stats() (published, dropped uint64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.published, h.dropped
}

func removeFromSlice(slice []chan Event, target <-chan Event) []chan Event {
	result := make([]chan Event, 0, len(slice))
	for _, ch := range slice {
		if ch != target {
			result = append(result, ch)
		}
	}
	return result
}

// EmitKnockAccepted records a knock that advanced a sequence. Progress is
// the number of steps matched after this knock.
func (h *Hub) EmitKnockAccepted(addr string, port uint16, progress int) {
	h.Publish(Event{
		Type:   EventKnockAccepted,
		Source: "knock",
		Data:   KnockData{Address: addr, Port: port, Progress: progress},
	})
}

// EmitKnockRejected records a knock that reset or was ignored.
func (h *Hub) EmitKnockRejected(addr string, port uint16, reason string) {
	h.Publish(Event{
		Type:   EventKnockRejected,
		Source: "knock",
		Data:   KnockData{Address: addr, Port: port, Reason: reason},
	})
}

// EmitAccessGranted records the opening of the protected ports for addr.
func (h *Hub) EmitAccessGranted(addr string, ports []uint16, d time.Duration) {
	h.Publish(Event{
		Type:   EventAccessGranted,
		Source: "knock",
		Data:   AccessData{Address: addr, Ports: ports, For: d},
	})
}

// EmitAccessRevoked records the scheduled closing of the protected ports.
func (h *Hub) EmitAccessRevoked(addr string, ports []uint16) {
	h.Publish(Event{
		Type:   EventAccessRevoked,
		Source: "knock",
		Data:   AccessData{Address: addr, Ports: ports},
	})
}

// EmitAddressBanned records a rate-limit ban.
func (h *Hub) EmitAddressBanned(addr string, d time.Duration, count int) {
	h.Publish(Event{
		Type:   EventAddressBanned,
		Source: "knock",
		Data:   BanData{Address: addr, For: d, Events: count},
	})
}

// EmitAddressUnbanned records the scheduled expiry of a ban.
func (h *Hub) EmitAddressUnbanned(addr string) {
	h.Publish(Event{
		Type:   EventAddressUnbanned,
		Source: "knock",
		Data:   BanData{Address: addr},
	})
}

// EmitStateSwept records one pass of the idle-state sweeper.
func (h *Hub) EmitStateSwept(removed, remaining int) {
	h.Publish(Event{
		Type:   EventStateSwept,
		Source: "sweeper",
		Data:   SweepData{Removed: removed, Remaining: remaining},
	})
}
