//go:build !linux
// +build !linux

package firewall

import "fmt"

// OpenBackend returns the AccessController for the configured backend.
// Off Linux only the nft backend exists, and it fails at runtime; this
// keeps check and status usable on development machines.
func OpenBackend(backend string, ruleset *Ruleset) (AccessController, error) {
	switch backend {
	case "nft":
		return NewNFTController(ruleset), nil
	case "native":
		return nil, fmt.Errorf("native backend requires linux")
	default:
		return nil, fmt.Errorf("unknown firewall backend %q", backend)
	}
}
