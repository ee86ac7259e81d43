// Package brand provides centralized branding constants for the daemon.
// Keeping them in one place makes it easy to fork or rename the product.
package brand

import (
	"os"
	"path/filepath"
)

const (
	Name        = "Portcullis"
	LowerName   = "portcullis"
	Description = "Covert port-knocking access gate"

	ConfigEnvPrefix  = "PORTCULLIS"
	DefaultConfigDir = "/etc/portcullis"
	DefaultRunDir    = "/run/portcullis"
	BinaryName       = "portcullis"
	ServiceName      = "portcullis.service"
	ConfigFileName   = "portcullis.hcl"
)

// Version information is set at build time via -ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
	BuildArch = "unknown"
)

// DefaultConfigFile returns the default configuration file path.
func DefaultConfigFile() string {
	return filepath.Join(GetConfigDir(), ConfigFileName)
}

// GetConfigDir returns the config directory, checking env vars first.
// Priority: PORTCULLIS_CONFIG_DIR > PORTCULLIS_PREFIX/config > DefaultConfigDir
func GetConfigDir() string {
	if dir := os.Getenv(ConfigEnvPrefix + "_CONFIG_DIR"); dir != "" {
		return dir
	}
	if prefix := os.Getenv(ConfigEnvPrefix + "_PREFIX"); prefix != "" {
		return filepath.Join(prefix, "config")
	}
	return DefaultConfigDir
}
