package firewall

import (
	"strings"
	"testing"
)

func TestBuildSetup_ContainsAllPieces(t *testing.T) {
	r := &Ruleset{
		Table:          "portcullis",
		KnockPorts:     []uint16{7000, 8000, 9000},
		ProtectedPorts: []uint16{22, 443},
		NFLogGroup:     100,
	}
	script := r.BuildSetup()

	for _, want := range []string{
		"add table inet portcullis",
		"delete table inet portcullis",
		"table inet portcullis {",
		"set banned_v4",
		"set banned_v6",
		"set allow_22_v4",
		"set allow_22_v6",
		"set allow_443_v4",
		"set allow_443_v6",
		"type filter hook input priority filter - 10; policy accept;",
		"ip saddr @banned_v4 drop",
		"ip6 saddr @banned_v6 drop",
		"meta l4proto { tcp, udp } th dport { 7000, 8000, 9000 } log group 100 drop",
		"tcp dport 22 ip saddr @allow_22_v4 accept",
		"tcp dport 443 ip6 saddr @allow_443_v6 accept",
		"tcp dport { 22, 443 } drop",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("setup script missing %q:\n%s", want, script)
		}
	}
}

func TestBuildSetup_BannedBeforeLog(t *testing.T) {
	r := &Ruleset{
		Table:          "portcullis",
		KnockPorts:     []uint16{7000, 8000},
		ProtectedPorts: []uint16{22},
		NFLogGroup:     100,
	}
	script := r.BuildSetup()

	bannedIdx := strings.Index(script, "@banned_v4 drop")
	logIdx := strings.Index(script, "log group")
	if bannedIdx == -1 || logIdx == -1 {
		t.Fatal("expected rules missing from script")
	}
	if bannedIdx > logIdx {
		t.Error("banned drop must come before the knock log rule")
	}
}

func TestBuildTeardown(t *testing.T) {
	r := &Ruleset{Table: "portcullis"}
	script := r.BuildTeardown()

	if !strings.Contains(script, "delete table inet portcullis") {
		t.Errorf("teardown script missing delete: %s", script)
	}
}
