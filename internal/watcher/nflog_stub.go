//go:build !linux
// +build !linux

package watcher

import (
	"fmt"

	"grimm.is/portcullis/internal/clock"
	"grimm.is/portcullis/internal/logging"
)

// NFLogSource requires the netfilter log subsystem and only works on Linux.
type NFLogSource struct {
	events chan Event
}

// NewNFLogSource creates a stub source that fails on Start.
func NewNFLogSource(group uint16, secret string, logger *logging.Logger, clk clock.Clock) *NFLogSource {
	return &NFLogSource{events: make(chan Event)}
}

// Start always fails off Linux.
func (s *NFLogSource) Start() error {
	return fmt.Errorf("nflog source not supported on this platform")
}

// Stop closes the event channel.
func (s *NFLogSource) Stop() {
	close(s.events)
}

// Events returns the (never written) event channel.
func (s *NFLogSource) Events() <-chan Event {
	return s.events
}
