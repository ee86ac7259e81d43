package config

import (
	"fmt"
	"regexp"
	"time"
)

var validTableNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Timings holds the parsed duration policy of a Knock block.
type Timings struct {
	AccessDuration  time.Duration
	SequenceTimeout time.Duration
	BanDuration     time.Duration
	RateLimitWindow time.Duration
	IdleEviction    time.Duration
}

// Timings parses the duration strings of the knock block.
// ApplyDefaults must have run first.
func (k *Knock) Timings() (Timings, error) {
	var t Timings
	var err error

	parse := func(name, value string, dst *time.Duration) {
		if err != nil {
			return
		}
		var d time.Duration
		d, err = time.ParseDuration(value)
		if err != nil {
			err = fmt.Errorf("invalid %s %q: %w", name, value, err)
			return
		}
		if d <= 0 {
			err = fmt.Errorf("%s must be positive, got %s", name, d)
			return
		}
		*dst = d
	}

	parse("access_duration", k.AccessDuration, &t.AccessDuration)
	parse("sequence_timeout", k.SequenceTimeout, &t.SequenceTimeout)
	parse("ban_duration", k.BanDuration, &t.BanDuration)
	parse("rate_limit.window", k.RateLimit.Window, &t.RateLimitWindow)
	parse("idle_eviction", k.IdleEviction, &t.IdleEviction)

	return t, err
}

// SequencePorts returns the knock sequence as wire-sized port numbers.
func (k *Knock) SequencePorts() []uint16 {
	out := make([]uint16, len(k.Sequence))
	for i, p := range k.Sequence {
		out[i] = uint16(p)
	}
	return out
}

// Protected returns the protected ports as wire-sized port numbers.
func (k *Knock) Protected() []uint16 {
	out := make([]uint16, len(k.ProtectedPorts))
	for i, p := range k.ProtectedPorts {
		out[i] = uint16(p)
	}
	return out
}

// Validate checks the configuration for semantic errors.
// ApplyDefaults must have run first.
func (c *Config) Validate() error {
	k := c.Knock
	if k == nil {
		return fmt.Errorf("knock block is required")
	}

	if len(k.Sequence) < 2 {
		return fmt.Errorf("knock sequence must contain at least 2 ports, got %d", len(k.Sequence))
	}
	seen := make(map[int]bool, len(k.Sequence))
	for _, p := range k.Sequence {
		if p < 1 || p > 65535 {
			return fmt.Errorf("knock sequence port %d out of range", p)
		}
		if seen[p] {
			return fmt.Errorf("knock sequence port %d repeated; sequence ports must be distinct", p)
		}
		seen[p] = true
	}

	if len(k.ProtectedPorts) == 0 {
		return fmt.Errorf("at least one protected port is required")
	}
	for _, p := range k.ProtectedPorts {
		if p < 1 || p > 65535 {
			return fmt.Errorf("protected port %d out of range", p)
		}
		if seen[p] {
			return fmt.Errorf("port %d cannot be both a knock port and a protected port", p)
		}
	}

	if k.Secret == "" {
		return fmt.Errorf("knock secret must not be empty")
	}

	if _, err := k.Timings(); err != nil {
		return err
	}

	if k.RateLimit.Max < 1 {
		return fmt.Errorf("rate_limit.max must be at least 1, got %d", k.RateLimit.Max)
	}

	switch c.Source.Kind {
	case "nflog":
		if c.Source.NFLogGroup < 0 || c.Source.NFLogGroup > 65535 {
			return fmt.Errorf("nflog_group %d out of range", c.Source.NFLogGroup)
		}
	case "file":
		if c.Source.File == "" {
			return fmt.Errorf("source kind %q requires a file path", c.Source.Kind)
		}
	default:
		return fmt.Errorf("unknown source kind %q (want nflog or file)", c.Source.Kind)
	}

	if !validTableNameRegex.MatchString(c.Firewall.Table) {
		return fmt.Errorf("invalid firewall table name %q", c.Firewall.Table)
	}
	switch c.Firewall.Backend {
	case "nft", "native":
	default:
		return fmt.Errorf("unknown firewall backend %q (want nft or native)", c.Firewall.Backend)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}

	if c.Syslog.Enabled && c.Syslog.Host == "" {
		return fmt.Errorf("syslog enabled but no host configured")
	}

	return nil
}
