package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"grimm.is/portcullis/internal/config"
	"grimm.is/portcullis/internal/firewall"
)

// RunCheck validates the configuration file and prints a summary of the
// resolved policy. With verbose it also prints the nftables ruleset that
// start would apply, without touching the firewall.
func RunCheck(configFile string, verbose bool) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	timings, err := cfg.Knock.Timings()
	if err != nil {
		return err
	}

	fmt.Printf("Configuration OK: %s\n\n", configFile)

	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintf(w, "Knock sequence:\t%s\n", joinPortList(cfg.Knock.SequencePorts()))
	fmt.Fprintf(w, "Protected ports:\t%s\n", joinPortList(cfg.Knock.Protected()))
	fmt.Fprintf(w, "Access duration:\t%s\n", timings.AccessDuration)
	fmt.Fprintf(w, "Sequence timeout:\t%s\n", timings.SequenceTimeout)
	fmt.Fprintf(w, "Ban duration:\t%s\n", timings.BanDuration)
	fmt.Fprintf(w, "Rate limit:\t%d events / %s\n", cfg.Knock.RateLimit.Max, timings.RateLimitWindow)
	fmt.Fprintf(w, "Idle eviction:\t%s\n", timings.IdleEviction)
	fmt.Fprintf(w, "Event source:\t%s\n", describeSource(cfg))
	fmt.Fprintf(w, "Firewall:\ttable inet %s, %s backend\n", cfg.Firewall.Table, cfg.Firewall.Backend)
	if cfg.Metrics.Enabled {
		fmt.Fprintf(w, "Metrics:\t%s\n", cfg.Metrics.Listen)
	} else {
		fmt.Fprintf(w, "Metrics:\tdisabled\n")
	}
	if cfg.Syslog.Enabled {
		fmt.Fprintf(w, "Syslog:\t%s://%s:%d\n", cfg.Syslog.Protocol, cfg.Syslog.Host, cfg.Syslog.Port)
	}
	w.Flush()

	if verbose {
		ruleset := &firewall.Ruleset{
			Table:          cfg.Firewall.Table,
			KnockPorts:     cfg.Knock.SequencePorts(),
			ProtectedPorts: cfg.Knock.Protected(),
			NFLogGroup:     cfg.Source.NFLogGroup,
		}
		fmt.Printf("\nGenerated ruleset:\n\n%s\n", ruleset.BuildSetup())
	}

	return nil
}

func describeSource(cfg *config.Config) string {
	switch cfg.Source.Kind {
	case "nflog":
		return fmt.Sprintf("nflog group %d", cfg.Source.NFLogGroup)
	case "file":
		return fmt.Sprintf("file %s", cfg.Source.File)
	default:
		return cfg.Source.Kind
	}
}

func joinPortList(ports []uint16) string {
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = fmt.Sprintf("%d", p)
	}
	return strings.Join(parts, ", ")
}
