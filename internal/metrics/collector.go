package metrics

import (
	"grimm.is/portcullis/internal/events"
	"grimm.is/portcullis/internal/logging"
)

// Collector translates hub events into Prometheus metrics. It owns a global
// subscription and a drain goroutine.
type Collector struct {
	registry *Registry
	logger   *logging.Logger
	hub      *events.Hub
	ch       <-chan events.Event
	done     chan struct{}
}

// NewCollector creates a collector subscribed to every hub event.
func NewCollector(logger *logging.Logger, hub *events.Hub) *Collector {
	return &Collector{
		registry: Get(),
		logger:   logger.WithComponent("metrics"),
		hub:      hub,
		ch:       hub.Subscribe(1024),
		done:     make(chan struct{}),
	}
}

// Start drains the subscription until Stop is called. Blocks; run it in a
// goroutine.
func (c *Collector) Start() {
	c.logger.Debug("metrics collector started")
	for {
		select {
		case e := <-c.ch:
			c.apply(e)
		case <-c.done:
			c.hub.Unsubscribe(c.ch)
			c.logger.Debug("metrics collector stopped")
			return
		}
	}
}

// Stop terminates the drain loop.
func (c *Collector) Stop() {
	close(c.done)
}

func (c *Collector) apply(e events.Event) {
	switch e.Type {
	case events.EventKnockAccepted:
		c.registry.KnocksTotal.WithLabelValues("accepted").Inc()
	case events.EventKnockRejected:
		c.registry.KnocksTotal.WithLabelValues("rejected").Inc()
		if d, ok := e.Data.(events.KnockData); ok {
			switch d.Reason {
			case "banned":
				c.registry.EventsDropped.Inc()
			case "mismatch", "timeout":
				c.registry.SequenceResets.WithLabelValues(d.Reason).Inc()
			}
		}
	case events.EventAccessGranted:
		c.registry.GrantsTotal.Inc()
		c.registry.ActiveGrants.Inc()
	case events.EventAccessRevoked:
		c.registry.RevokesTotal.Inc()
		c.registry.ActiveGrants.Dec()
	case events.EventAddressBanned:
		c.registry.BansTotal.Inc()
		c.registry.ActiveBans.Inc()
	case events.EventAddressUnbanned:
		c.registry.UnbansTotal.Inc()
		c.registry.ActiveBans.Dec()
	case events.EventStateSwept:
		c.registry.SweepsTotal.Inc()
		if d, ok := e.Data.(events.SweepData); ok {
			c.registry.SweepEvictions.Add(float64(d.Removed))
			c.registry.TrackedAddresses.Set(float64(d.Remaining))
		}
	}
}
