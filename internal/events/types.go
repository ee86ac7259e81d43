package events

import "time"

// EventType identifies a category of event flowing through the hub.
type EventType string

const (
	// Knock lifecycle.
	EventKnockAccepted EventType = "knock.accepted"
	EventKnockRejected EventType = "knock.rejected"

	// Access decisions.
	EventAccessGranted EventType = "access.granted"
	EventAccessRevoked EventType = "access.revoked"
	EventAddressBanned EventType = "address.banned"
	EventAddressUnbanned EventType = "address.unbanned"

	// Housekeeping.
	EventStateSwept EventType = "state.swept"
)

// Event is the envelope for all hub traffic.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Data      any       `json:"data,omitempty"`
}

// KnockData describes a single observed knock and how the sequence engine
// handled it.
type KnockData struct {
	Address string `json:"address"`
	Port    uint16 `json:"port"`
	// Progress is the number of sequence steps matched so far, after this
	// knock was applied.
	Progress int `json:"progress"`
	// Reason is set on rejected knocks: "mismatch", "timeout" or "banned".
	Reason string `json:"reason,omitempty"`
}

// AccessData describes a grant or revocation of the protected ports.
type AccessData struct {
	Address string        `json:"address"`
	Ports   []uint16      `json:"ports"`
	For     time.Duration `json:"for,omitempty"`
}

// BanData describes a ban or unban of an address.
type BanData struct {
	Address string        `json:"address"`
	For     time.Duration `json:"for,omitempty"`
	// Events is the window count that tripped the limiter.
	Events int `json:"events,omitempty"`
}

// SweepData summarizes one pass of the idle-state sweeper.
type SweepData struct {
	Removed   int `json:"removed"`
	Remaining int `json:"remaining"`
}
