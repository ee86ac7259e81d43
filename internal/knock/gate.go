// Package knock implements the per-address knock-sequence state machine,
// its rate limiter, ban handling, timed access grants and the idle-state
// sweeper.
package knock

import (
	"sync"
	"time"

	"grimm.is/portcullis/internal/clock"
	"grimm.is/portcullis/internal/events"
	"grimm.is/portcullis/internal/firewall"
	"grimm.is/portcullis/internal/logging"
)

// Config is the policy the gate enforces. All fields are required.
type Config struct {
	// Sequence is the ordered knock sequence; the first element is the
	// sequence-start marker. Length >= 2, ports distinct.
	Sequence []uint16

	// ProtectedPorts are opened for an address on sequence completion.
	ProtectedPorts []uint16

	AccessDuration  time.Duration
	SequenceTimeout time.Duration
	BanDuration     time.Duration
	RateLimitWindow time.Duration
	RateLimitMax    int
	IdleEviction    time.Duration
}

// addrState is the tracking state for one address. Owned by the Gate; all
// access goes through the gate mutex.
type addrState struct {
	// seqIndex is in [0, len(Sequence)]; 0 means no active sequence. It
	// reaches len(Sequence) only transiently inside Process.
	seqIndex    int
	lastEventAt time.Time
	windowStart time.Time
	windowCount int
}

// Gate is the authoritative access-decision engine. One instance owns the
// address state map and the pending reversal timers. Safe for concurrent
// use; Process, Sweep and the timer callbacks all serialize on one mutex.
//
// Reversal timers are cancellable and keyed by address: re-banning or
// re-granting an address cancels and replaces its pending reversal instead
// of relying on idempotent no-ops.
type Gate struct {
	cfg    Config
	fw     firewall.AccessController
	hub    *events.Hub
	logger *logging.Logger
	clk    clock.Clock

	mu          sync.Mutex
	states      map[string]*addrState
	banned      map[string]bool
	banTimers   map[string]clock.Timer
	grantTimers map[string]clock.Timer
}

// New creates a gate. A nil clk selects the real clock.
func New(cfg Config, fw firewall.AccessController, hub *events.Hub, logger *logging.Logger, clk clock.Clock) *Gate {
	if clk == nil {
		clk = &clock.RealClock{}
	}
	if hub == nil {
		hub = events.NewHub()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Gate{
		cfg:         cfg,
		fw:          fw,
		hub:         hub,
		logger:      logger.WithComponent("gate"),
		clk:         clk,
		states:      make(map[string]*addrState),
		banned:      make(map[string]bool),
		banTimers:   make(map[string]clock.Timer),
		grantTimers: make(map[string]clock.Timer),
	}
}

// Process handles one knock event. Events must be fed in arrival order;
// now is the event's observation time. Malformed events (empty address,
// zero port) are discarded.
func (g *Gate) Process(addr string, port uint16, now time.Time) {
	if addr == "" || port == 0 {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// Banned addresses are dead to us until the unban fires.
	if g.banned[addr] {
		g.hub.EmitKnockRejected(addr, port, "banned")
		return
	}

	// Rate-limit accounting runs before any sequence logic.
	if g.countEvent(addr, port, now) {
		return
	}

	st := g.states[addr]

	// A start-port knock always begins a fresh attempt, regardless of
	// prior progress.
	if port == g.cfg.Sequence[0] {
		st.seqIndex = 1
		st.lastEventAt = now
		g.hub.EmitKnockAccepted(addr, port, 1)
		return
	}

	if st.seqIndex == 0 {
		st.lastEventAt = now
		g.hub.EmitKnockRejected(addr, port, "mismatch")
		return
	}

	// Stale progress: the timed-out knock is discarded, not reinterpreted
	// as a new start (the start-port case above already handled that).
	if now.Sub(st.lastEventAt) > g.cfg.SequenceTimeout {
		st.seqIndex = 0
		st.lastEventAt = now
		g.hub.EmitKnockRejected(addr, port, "timeout")
		return
	}

	if port == g.cfg.Sequence[st.seqIndex] {
		st.seqIndex++
		st.lastEventAt = now
		g.hub.EmitKnockAccepted(addr, port, st.seqIndex)
		if st.seqIndex == len(g.cfg.Sequence) {
			st.seqIndex = 0
			g.grant(addr, st, now)
		}
		return
	}

	// One wrong knock discards all progress.
	st.seqIndex = 0
	st.lastEventAt = now
	g.hub.EmitKnockRejected(addr, port, "mismatch")
}

// countEvent applies rate-limit accounting for one event and reports
// whether it banned the address. Creates the address state if needed.
// Caller holds the mutex.
func (g *Gate) countEvent(addr string, port uint16, now time.Time) (banned bool) {
	st, ok := g.states[addr]
	if !ok {
		g.states[addr] = &addrState{windowStart: now, windowCount: 1}
		return false
	}
	if now.Sub(st.windowStart) > g.cfg.RateLimitWindow {
		st.windowStart = now
		st.windowCount = 1
		return false
	}
	st.windowCount++
	if st.windowCount > g.cfg.RateLimitMax {
		g.hub.EmitKnockRejected(addr, port, "banned")
		g.ban(addr, st.windowCount)
		return true
	}
	return false
}

// grant opens the protected ports for addr and schedules the revocation.
// A pending revocation for the same address is cancelled and replaced.
// Caller holds the mutex.
func (g *Gate) grant(addr string, st *addrState, now time.Time) {
	for _, p := range g.cfg.ProtectedPorts {
		if err := g.fw.OpenPort(addr, p); err != nil {
			g.logger.Error("failed to open port", "address", addr, "port", p, "error", err)
		}
	}

	// Successful authentication forgives prior request volume.
	st.windowStart = now
	st.windowCount = 0

	g.scheduleRevoke(addr)

	g.logger.Audit("grant", addr, map[string]any{
		"ports":    g.cfg.ProtectedPorts,
		"duration": g.cfg.AccessDuration.String(),
	})
	g.hub.EmitAccessGranted(addr, g.cfg.ProtectedPorts, g.cfg.AccessDuration)
}

// ban revokes any standing grant, blocks the address, clears its tracking
// state and schedules the unban. Caller holds the mutex.
func (g *Gate) ban(addr string, count int) {
	// Revoke-then-block: standing access goes first so the address never
	// holds an open port while blocked.
	if t, ok := g.grantTimers[addr]; ok {
		t.Stop()
		delete(g.grantTimers, addr)
		g.closePorts(addr)
		g.hub.EmitAccessRevoked(addr, g.cfg.ProtectedPorts)
	}

	if err := g.fw.BlockAddress(addr); err != nil {
		g.logger.Error("failed to block address", "address", addr, "error", err)
	}
	g.banned[addr] = true
	delete(g.states, addr)

	g.scheduleUnban(addr)

	g.logger.Audit("ban", addr, map[string]any{
		"events":   count,
		"duration": g.cfg.BanDuration.String(),
	})
	g.hub.EmitAddressBanned(addr, g.cfg.BanDuration, count)
}

func (g *Gate) scheduleRevoke(addr string) {
	if t, ok := g.grantTimers[addr]; ok {
		t.Stop()
	}
	var tm clock.Timer
	tm = g.clk.AfterFunc(g.cfg.AccessDuration, func() {
		g.revoke(addr, tm)
	})
	g.grantTimers[addr] = tm
}

func (g *Gate) scheduleUnban(addr string) {
	if t, ok := g.banTimers[addr]; ok {
		t.Stop()
	}
	var tm clock.Timer
	tm = g.clk.AfterFunc(g.cfg.BanDuration, func() {
		g.unban(addr, tm)
	})
	g.banTimers[addr] = tm
}

// revoke is the grant reversal. The timer identity check drops callbacks
// superseded by a newer grant for the same address.
func (g *Gate) revoke(addr string, tm clock.Timer) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.grantTimers[addr] != tm {
		return
	}
	delete(g.grantTimers, addr)
	g.closePorts(addr)

	g.logger.Audit("revoke", addr, map[string]any{"ports": g.cfg.ProtectedPorts})
	g.hub.EmitAccessRevoked(addr, g.cfg.ProtectedPorts)
}

// unban is the ban reversal, tolerant of an already-removed block.
func (g *Gate) unban(addr string, tm clock.Timer) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.banTimers[addr] != tm {
		return
	}
	delete(g.banTimers, addr)
	delete(g.banned, addr)

	if err := g.fw.UnblockAddress(addr); err != nil {
		g.logger.Error("failed to unblock address", "address", addr, "error", err)
	}

	g.logger.Audit("unban", addr, nil)
	g.hub.EmitAddressUnbanned(addr)
}

func (g *Gate) closePorts(addr string) {
	for _, p := range g.cfg.ProtectedPorts {
		if err := g.fw.ClosePort(addr, p); err != nil {
			g.logger.Error("failed to close port", "address", addr, "port", p, "error", err)
		}
	}
}

// Sweep evicts tracking state for addresses idle beyond the eviction
// threshold. Bans and grants are unaffected; they live at the firewall and
// in the timer maps.
func (g *Gate) Sweep(now time.Time) (removed, remaining int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for addr, st := range g.states {
		if now.Sub(st.lastEventAt) > g.cfg.IdleEviction {
			delete(g.states, addr)
			removed++
		}
	}
	remaining = len(g.states)

	if removed > 0 {
		g.logger.Debug("swept idle state", "removed", removed, "remaining", remaining)
	}
	g.hub.EmitStateSwept(removed, remaining)
	return removed, remaining
}

// Stats is a point-in-time snapshot of gate state.
type Stats struct {
	Tracked          int `json:"tracked"`
	Banned           int `json:"banned"`
	PendingUnbans    int `json:"pending_unbans"`
	PendingRevokes   int `json:"pending_revokes"`
	PendingReversals int `json:"pending_reversals"`
}

// Snapshot returns current gate statistics.
func (g *Gate) Snapshot() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()

	return Stats{
		Tracked:          len(g.states),
		Banned:           len(g.banned),
		PendingUnbans:    len(g.banTimers),
		PendingRevokes:   len(g.grantTimers),
		PendingReversals: len(g.banTimers) + len(g.grantTimers),
	}
}
