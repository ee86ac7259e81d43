package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"grimm.is/portcullis/internal/events"
	"grimm.is/portcullis/internal/logging"
)

func drainOnce(c *Collector) {
	// Apply whatever is queued without running the Start loop.
	for {
		select {
		case e := <-c.ch:
			c.apply(e)
		default:
			return
		}
	}
}

func TestCollector_GrantAndRevoke(t *testing.T) {
	hub := events.NewHub()
	c := NewCollector(logging.Default(), hub)

	before := testutil.ToFloat64(c.registry.GrantsTotal)

	hub.EmitAccessGranted("192.0.2.1", []uint16{22}, 10*time.Minute)
	hub.EmitAccessGranted("192.0.2.2", []uint16{22}, 10*time.Minute)
	hub.EmitAccessRevoked("192.0.2.1", []uint16{22})
	drainOnce(c)

	if got := testutil.ToFloat64(c.registry.GrantsTotal) - before; got != 2 {
		t.Errorf("grants delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.registry.ActiveGrants); got != 1 {
		t.Errorf("active grants = %v, want 1", got)
	}
}

func TestCollector_BanCycle(t *testing.T) {
	hub := events.NewHub()
	c := NewCollector(logging.Default(), hub)

	hub.EmitAddressBanned("192.0.2.9", time.Hour, 26)
	hub.EmitAddressUnbanned("192.0.2.9")
	drainOnce(c)

	if got := testutil.ToFloat64(c.registry.ActiveBans); got != 0 {
		t.Errorf("active bans = %v, want 0", got)
	}
}

func TestCollector_SweepUpdatesGauges(t *testing.T) {
	hub := events.NewHub()
	c := NewCollector(logging.Default(), hub)

	hub.EmitStateSwept(4, 11)
	drainOnce(c)

	if got := testutil.ToFloat64(c.registry.TrackedAddresses); got != 11 {
		t.Errorf("tracked addresses = %v, want 11", got)
	}
}

func TestCollector_RejectionReasons(t *testing.T) {
	hub := events.NewHub()
	c := NewCollector(logging.Default(), hub)

	beforeDropped := testutil.ToFloat64(c.registry.EventsDropped)

	hub.EmitKnockRejected("192.0.2.5", 8000, "mismatch")
	hub.EmitKnockRejected("192.0.2.5", 7000, "banned")
	drainOnce(c)

	if got := testutil.ToFloat64(c.registry.EventsDropped) - beforeDropped; got != 1 {
		t.Errorf("dropped delta = %v, want 1", got)
	}
}
