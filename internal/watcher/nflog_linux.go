//go:build linux
// +build linux

package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/florianl/go-nflog/v2"

	"grimm.is/portcullis/internal/clock"
	"grimm.is/portcullis/internal/logging"
	"grimm.is/portcullis/internal/metrics"
)

// NFLogSource reads knock packets from a netfilter log group. The group
// must match the log rule in the daemon's nftables ruleset.
type NFLogSource struct {
	group  uint16
	secret string
	logger *logging.Logger
	clk    clock.Clock

	nf     *nflog.Nflog
	cancel context.CancelFunc
	events chan Event
}

// NewNFLogSource creates a source listening on the given nflog group.
// Packets not carrying the secret token are discarded.
func NewNFLogSource(group uint16, secret string, logger *logging.Logger, clk clock.Clock) *NFLogSource {
	if clk == nil {
		clk = &clock.RealClock{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &NFLogSource{
		group:  group,
		secret: secret,
		logger: logger.WithComponent("nflog"),
		clk:    clk,
		events: make(chan Event, 256),
	}
}

// Start opens the nflog socket and begins producing events.
func (s *NFLogSource) Start() error {
	config := nflog.Config{
		Group:       s.group,
		Copymode:    nflog.CopyPacket,
		ReadTimeout: 10 * time.Millisecond,
	}

	nf, err := nflog.Open(&config)
	if err != nil {
		return fmt.Errorf("failed to open nflog: %w", err)
	}
	s.nf = nf

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	err = nf.RegisterWithErrorFunc(ctx,
		func(attrs nflog.Attribute) int {
			s.handle(attrs)
			return 0
		},
		func(err error) int {
			s.logger.Warn("nflog read error", "error", err)
			return 0
		},
	)
	if err != nil {
		nf.Close()
		cancel()
		return fmt.Errorf("failed to register nflog callback: %w", err)
	}

	s.logger.Info("listening on nflog group", "group", s.group)
	return nil
}

// Stop closes the socket and the event channel.
func (s *NFLogSource) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.nf != nil {
		s.nf.Close()
	}
	close(s.events)
}

// Events returns the channel knock events arrive on.
func (s *NFLogSource) Events() <-chan Event {
	return s.events
}

func (s *NFLogSource) handle(attrs nflog.Attribute) {
	if attrs.Payload == nil || len(*attrs.Payload) == 0 {
		return
	}

	pkt, ok := parsePacket(*attrs.Payload)
	if !ok {
		return
	}
	if !carriesToken(pkt.Payload, s.secret) {
		s.logger.Debug("packet without token discarded", "address", pkt.SrcIP, "port", pkt.DstPort)
		return
	}

	metrics.Get().EventsTotal.WithLabelValues("nflog").Inc()

	select {
	case s.events <- Event{Addr: pkt.SrcIP, Port: pkt.DstPort, At: s.clk.Now()}:
	default:
		s.logger.Warn("event channel full, knock dropped", "address", pkt.SrcIP)
	}
}
