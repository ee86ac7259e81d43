// Package watcher supplies the stream of knock events the gate consumes.
// Two sources exist: an nflog listener fed by the kernel (linux) and a
// file follower for logs produced by an external filter.
package watcher

import (
	"time"
)

// Event is one observed knock, reduced to what the gate needs.
type Event struct {
	Addr string
	Port uint16
	At   time.Time
}

// Source is a live, ordered stream of knock events. Implementations drop
// malformed input silently and never close the channel before Stop.
type Source interface {
	// Start begins producing events. It must not block.
	Start() error

	// Stop shuts the source down and closes the event channel.
	Stop()

	// Events returns the channel events arrive on.
	Events() <-chan Event
}
