// Package metrics exposes Prometheus instrumentation for the daemon.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once     sync.Once
	registry *Registry
)

// Registry holds all daemon metrics.
type Registry struct {
	// Event pipeline
	EventsTotal    *prometheus.CounterVec
	EventsDropped  prometheus.Counter
	KnocksTotal    *prometheus.CounterVec
	SequenceResets *prometheus.CounterVec

	// Access decisions
	GrantsTotal  prometheus.Counter
	RevokesTotal prometheus.Counter
	BansTotal    prometheus.Counter
	UnbansTotal  prometheus.Counter

	// Current state
	ActiveGrants     prometheus.Gauge
	ActiveBans       prometheus.Gauge
	TrackedAddresses prometheus.Gauge
	PendingReversals prometheus.Gauge

	// Housekeeping
	SweepsTotal     prometheus.Counter
	SweepEvictions  prometheus.Counter
	FirewallErrors  *prometheus.CounterVec
	FirewallLatency *prometheus.HistogramVec

	// System
	Uptime prometheus.Gauge
}

// Get returns the global metrics registry, creating it if necessary.
func Get() *Registry {
	once.Do(func() {
		registry = newRegistry()
	})
	return registry
}

func newRegistry() *Registry {
	r := &Registry{}

	r.EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portcullis_events_total",
		Help: "Knock events received from the event source",
	}, []string{"source"})

	r.EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portcullis_events_dropped_total",
		Help: "Knock events discarded because the address was banned",
	})

	r.KnocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portcullis_knocks_total",
		Help: "Knocks by outcome (accepted, rejected)",
	}, []string{"outcome"})

	r.SequenceResets = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portcullis_sequence_resets_total",
		Help: "Sequence resets by cause (mismatch, timeout)",
	}, []string{"cause"})

	r.GrantsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portcullis_grants_total",
		Help: "Completed knock sequences resulting in opened ports",
	})

	r.RevokesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portcullis_revokes_total",
		Help: "Grant expirations that closed the protected ports",
	})

	r.BansTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portcullis_bans_total",
		Help: "Addresses banned for exceeding the rate limit",
	})

	r.UnbansTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portcullis_unbans_total",
		Help: "Ban expirations that unblocked an address",
	})

	r.ActiveGrants = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "portcullis_active_grants",
		Help: "Addresses currently holding open protected ports",
	})

	r.ActiveBans = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "portcullis_active_bans",
		Help: "Addresses currently banned",
	})

	r.TrackedAddresses = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "portcullis_tracked_addresses",
		Help: "Addresses with live tracking state",
	})

	r.PendingReversals = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "portcullis_pending_reversals",
		Help: "Scheduled unban and revoke timers outstanding",
	})

	r.SweepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portcullis_sweeps_total",
		Help: "Idle-state sweeper passes",
	})

	r.SweepEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portcullis_sweep_evictions_total",
		Help: "Tracking states evicted by the sweeper",
	})

	r.FirewallErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portcullis_firewall_errors_total",
		Help: "Failed firewall operations by kind",
	}, []string{"op"})

	r.FirewallLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portcullis_firewall_op_duration_seconds",
		Help:    "Latency of firewall operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	r.Uptime = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "portcullis_uptime_seconds",
		Help: "Daemon uptime in seconds",
	})

	return r
}

// RecordFirewallOp records one firewall backend call.
func (r *Registry) RecordFirewallOp(op string, seconds float64, err error) {
	r.FirewallLatency.WithLabelValues(op).Observe(seconds)
	if err != nil {
		r.FirewallErrors.WithLabelValues(op).Inc()
	}
}
