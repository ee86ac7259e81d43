package brand

import (
	"strings"
	"testing"
)

func TestDefaultConfigFile(t *testing.T) {
	t.Setenv(ConfigEnvPrefix+"_CONFIG_DIR", "")
	t.Setenv(ConfigEnvPrefix+"_PREFIX", "")

	got := DefaultConfigFile()
	if got != DefaultConfigDir+"/"+ConfigFileName {
		t.Errorf("DefaultConfigFile() = %q", got)
	}
}

func TestGetConfigDir_EnvOverride(t *testing.T) {
	t.Setenv(ConfigEnvPrefix+"_CONFIG_DIR", "/tmp/pc-test")
	if got := GetConfigDir(); got != "/tmp/pc-test" {
		t.Errorf("GetConfigDir() = %q, want /tmp/pc-test", got)
	}

	t.Setenv(ConfigEnvPrefix+"_CONFIG_DIR", "")
	t.Setenv(ConfigEnvPrefix+"_PREFIX", "/opt/pc")
	if got := GetConfigDir(); !strings.HasPrefix(got, "/opt/pc") {
		t.Errorf("GetConfigDir() = %q, want /opt/pc prefix", got)
	}
}
