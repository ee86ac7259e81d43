//go:build linux
// +build linux

package firewall

import (
	"fmt"

	"github.com/google/nftables"
)

// OpenBackend returns the AccessController for the configured backend.
// The base ruleset is always applied through the nft binary; the backend
// choice only affects per-address set operations.
func OpenBackend(backend string, ruleset *Ruleset) (AccessController, error) {
	switch backend {
	case "nft":
		return NewNFTController(ruleset), nil
	case "native":
		conn, err := nftables.New()
		if err != nil {
			return nil, fmt.Errorf("failed to open netlink connection: %w", err)
		}
		return NewNativeController(NewRealNFTablesConn(conn), ruleset.Table), nil
	default:
		return nil, fmt.Errorf("unknown firewall backend %q", backend)
	}
}
