// Package config provides HCL configuration handling for the daemon.
// A configuration file is read once at startup; there is no hot reload.
package config

import (
	"time"
)

// Config is the top-level structure for the daemon configuration.
type Config struct {
	Knock    *Knock    `hcl:"knock,block" json:"knock"`
	Source   *Source   `hcl:"source,block" json:"source,omitempty"`
	Firewall *Firewall `hcl:"firewall,block" json:"firewall,omitempty"`
	Metrics  *Metrics  `hcl:"metrics,block" json:"metrics,omitempty"`
	Log      *Log      `hcl:"log,block" json:"log,omitempty"`
	Syslog   *Syslog   `hcl:"syslog,block" json:"syslog,omitempty"`
}

// Knock configures the knock sequence and the access policy around it.
type Knock struct {
	// Sequence is the ordered list of ports that must be knocked, in order,
	// to authenticate. Length >= 2, all ports distinct. The first element is
	// the sequence-start marker.
	Sequence []int `hcl:"sequence" json:"sequence"`

	// ProtectedPorts are opened for an address after a completed sequence.
	ProtectedPorts []int `hcl:"protected_ports" json:"protected_ports"`

	// Secret is the shared token a knock must carry to be observed at all.
	// It is consumed by the event source filter, never by the core.
	Secret string `hcl:"secret" json:"-"`

	AccessDuration  string `hcl:"access_duration,optional" json:"access_duration,omitempty"`
	SequenceTimeout string `hcl:"sequence_timeout,optional" json:"sequence_timeout,omitempty"`
	BanDuration     string `hcl:"ban_duration,optional" json:"ban_duration,omitempty"`

	RateLimit *RateLimit `hcl:"rate_limit,block" json:"rate_limit,omitempty"`

	// IdleEviction is how long an address may stay idle before the sweeper
	// drops its tracking state. Defaults to the rate-limit window.
	IdleEviction string `hcl:"idle_eviction,optional" json:"idle_eviction,omitempty"`
}

// RateLimit bounds how many knock events a single address may produce
// inside a counting window before it is banned.
type RateLimit struct {
	Window string `hcl:"window,optional" json:"window,omitempty"`
	Max    int    `hcl:"max,optional" json:"max,omitempty"`
}

// Source selects and configures the knock event source.
type Source struct {
	// Kind is "nflog" (kernel netfilter log group, linux) or "file"
	// (follow a text log produced by an external filter).
	Kind       string `hcl:"kind,optional" json:"kind,omitempty"`
	NFLogGroup int    `hcl:"nflog_group,optional" json:"nflog_group,omitempty"`
	File       string `hcl:"file,optional" json:"file,omitempty"`
}

// Firewall configures the access controller backend.
type Firewall struct {
	// Table is the nftables table name owned by the daemon.
	Table string `hcl:"table,optional" json:"table,omitempty"`
	// Backend is "nft" (drive the nft binary) or "native" (netlink library).
	Backend string `hcl:"backend,optional" json:"backend,omitempty"`
}

// Metrics configures the optional Prometheus endpoint.
type Metrics struct {
	Enabled bool   `hcl:"enabled,optional" json:"enabled"`
	Listen  string `hcl:"listen,optional" json:"listen,omitempty"`
}

// Log configures local logging.
type Log struct {
	Level string `hcl:"level,optional" json:"level,omitempty"`
	JSON  bool   `hcl:"json,optional" json:"json"`
}

// Syslog configures remote syslog forwarding.
type Syslog struct {
	Enabled  bool   `hcl:"enabled,optional" json:"enabled"`
	Host     string `hcl:"host,optional" json:"host,omitempty"`
	Port     int    `hcl:"port,optional" json:"port,omitempty"`
	Protocol string `hcl:"protocol,optional" json:"protocol,omitempty"`
	Tag      string `hcl:"tag,optional" json:"tag,omitempty"`
}

// Default policy values. Exposed so `check` can report what an omitted
// field will resolve to.
const (
	DefaultAccessDuration  = 10 * time.Minute
	DefaultSequenceTimeout = 15 * time.Second
	DefaultBanDuration     = time.Hour
	DefaultRateLimitWindow = 15 * time.Minute
	DefaultRateLimitMax    = 25
	DefaultNFLogGroup      = 100
	DefaultTable           = "portcullis"
	DefaultBackend         = "nft"
	DefaultMetricsListen   = "127.0.0.1:9155"
)

// ApplyDefaults fills in unset optional fields. Called by the loader before
// validation so validation only ever sees a fully populated config.
func (c *Config) ApplyDefaults() {
	if c.Knock == nil {
		c.Knock = &Knock{}
	}
	k := c.Knock
	if k.AccessDuration == "" {
		k.AccessDuration = DefaultAccessDuration.String()
	}
	if k.SequenceTimeout == "" {
		k.SequenceTimeout = DefaultSequenceTimeout.String()
	}
	if k.BanDuration == "" {
		k.BanDuration = DefaultBanDuration.String()
	}
	if k.RateLimit == nil {
		k.RateLimit = &RateLimit{}
	}
	if k.RateLimit.Window == "" {
		k.RateLimit.Window = DefaultRateLimitWindow.String()
	}
	if k.RateLimit.Max == 0 {
		k.RateLimit.Max = DefaultRateLimitMax
	}
	if k.IdleEviction == "" {
		k.IdleEviction = k.RateLimit.Window
	}

	if c.Source == nil {
		c.Source = &Source{}
	}
	if c.Source.Kind == "" {
		c.Source.Kind = "nflog"
	}
	if c.Source.NFLogGroup == 0 {
		c.Source.NFLogGroup = DefaultNFLogGroup
	}

	if c.Firewall == nil {
		c.Firewall = &Firewall{}
	}
	if c.Firewall.Table == "" {
		c.Firewall.Table = DefaultTable
	}
	if c.Firewall.Backend == "" {
		c.Firewall.Backend = DefaultBackend
	}

	if c.Metrics == nil {
		c.Metrics = &Metrics{}
	}
	if c.Metrics.Listen == "" {
		c.Metrics.Listen = DefaultMetricsListen
	}

	if c.Log == nil {
		c.Log = &Log{}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Syslog == nil {
		c.Syslog = &Syslog{}
	}
	if c.Syslog.Port == 0 {
		c.Syslog.Port = 514
	}
	if c.Syslog.Protocol == "" {
		c.Syslog.Protocol = "udp"
	}
	if c.Syslog.Tag == "" {
		c.Syslog.Tag = "portcullis"
	}
}
