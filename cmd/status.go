package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"grimm.is/portcullis/internal/config"
	"grimm.is/portcullis/internal/firewall"
)

// RunStatus reads the live firewall sets and prints the current bans and
// grants. It talks to nftables directly, so it works whether or not the
// daemon is running.
func RunStatus(configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	ctl := firewall.NewNFTController(&firewall.Ruleset{
		Table:          cfg.Firewall.Table,
		KnockPorts:     cfg.Knock.SequencePorts(),
		ProtectedPorts: cfg.Knock.Protected(),
		NFLogGroup:     cfg.Source.NFLogGroup,
	})

	banned, err := ctl.ListBanned()
	if err != nil {
		return fmt.Errorf("failed to read firewall state (is the ruleset applied?): %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintf(w, "Table:\tinet %s\n", cfg.Firewall.Table)
	fmt.Fprintf(w, "Banned:\t%s\n", formatAddrs(banned))

	for _, port := range cfg.Knock.Protected() {
		allowed, err := ctl.ListAllowed(port)
		if err != nil {
			return fmt.Errorf("failed to list grants for port %d: %w", port, err)
		}
		fmt.Fprintf(w, "Port %d allowed:\t%s\n", port, formatAddrs(allowed))
	}
	return w.Flush()
}

func formatAddrs(addrs []string) string {
	if len(addrs) == 0 {
		return "(none)"
	}
	return strings.Join(addrs, ", ")
}
