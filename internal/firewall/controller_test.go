package firewall

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
)

func testRuleset() *Ruleset {
	return &Ruleset{
		Table:          "portcullis",
		KnockPorts:     []uint16{7000, 8000, 9000},
		ProtectedPorts: []uint16{22},
		NFLogGroup:     100,
	}
}

func TestNFTController_OpenPort(t *testing.T) {
	runner := new(MockCommandRunner)
	c := NewNFTController(testRuleset())
	c.SetRunner(runner)

	runner.On("Run", "nft", "add", "element", "inet", "portcullis",
		"allow_22_v4", "{", "192.0.2.1", "}").Return(nil)

	if err := c.OpenPort("192.0.2.1", 22); err != nil {
		t.Fatalf("OpenPort: %v", err)
	}
	runner.AssertExpectations(t)
}

func TestNFTController_OpenPort_IPv6(t *testing.T) {
	runner := new(MockCommandRunner)
	c := NewNFTController(testRuleset())
	c.SetRunner(runner)

	runner.On("Run", "nft", "add", "element", "inet", "portcullis",
		"allow_22_v6", "{", "2001:db8::1", "}").Return(nil)

	if err := c.OpenPort("2001:db8::1", 22); err != nil {
		t.Fatalf("OpenPort: %v", err)
	}
	runner.AssertExpectations(t)
}

func TestNFTController_ClosePort(t *testing.T) {
	runner := new(MockCommandRunner)
	c := NewNFTController(testRuleset())
	c.SetRunner(runner)

	runner.On("Run", "nft", "delete", "element", "inet", "portcullis",
		"allow_22_v4", "{", "192.0.2.1", "}").Return(nil)

	if err := c.ClosePort("192.0.2.1", 22); err != nil {
		t.Fatalf("ClosePort: %v", err)
	}
	runner.AssertExpectations(t)
}

func TestNFTController_BlockAndUnblock(t *testing.T) {
	runner := new(MockCommandRunner)
	c := NewNFTController(testRuleset())
	c.SetRunner(runner)

	runner.On("Run", "nft", "add", "element", "inet", "portcullis",
		"banned_v4", "{", "198.51.100.9", "}").Return(nil)
	runner.On("Run", "nft", "delete", "element", "inet", "portcullis",
		"banned_v4", "{", "198.51.100.9", "}").Return(nil)

	if err := c.BlockAddress("198.51.100.9"); err != nil {
		t.Fatalf("BlockAddress: %v", err)
	}
	if err := c.UnblockAddress("198.51.100.9"); err != nil {
		t.Fatalf("UnblockAddress: %v", err)
	}
	runner.AssertExpectations(t)
}

func TestNFTController_InvalidAddress(t *testing.T) {
	c := NewNFTController(testRuleset())
	c.SetRunner(new(MockCommandRunner))

	if err := c.BlockAddress("not-an-ip"); err == nil {
		t.Error("expected error for invalid address")
	}
	if err := c.OpenPort("999.999.999.999", 22); err == nil {
		t.Error("expected error for invalid address")
	}
}

func TestNFTController_IsBlocked(t *testing.T) {
	runner := new(MockCommandRunner)
	c := NewNFTController(testRuleset())
	c.SetRunner(runner)

	listing := []byte(`table inet portcullis {
	set banned_v4 {
		type ipv4_addr
		elements = { 192.0.2.1, 198.51.100.9 }
	}
}
`)
	runner.On("Output", "nft", "list", "set", "inet", "portcullis", "banned_v4").Return(listing, nil)

	blocked, err := c.IsBlocked("198.51.100.9")
	if err != nil {
		t.Fatalf("IsBlocked: %v", err)
	}
	if !blocked {
		t.Error("IsBlocked = false, want true")
	}

	blocked, err = c.IsBlocked("203.0.113.5")
	if err != nil {
		t.Fatalf("IsBlocked: %v", err)
	}
	if blocked {
		t.Error("IsBlocked = true, want false")
	}
}

func TestNFTController_Setup(t *testing.T) {
	runner := new(MockCommandRunner)
	c := NewNFTController(testRuleset())
	c.SetRunner(runner)

	runner.On("RunInput", mock.AnythingOfType("string"), "nft", "-f", "-").Return(nil)

	if err := c.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	runner.AssertExpectations(t)
}

func TestNFTController_FlushDynamic(t *testing.T) {
	runner := new(MockCommandRunner)
	c := NewNFTController(testRuleset())
	c.SetRunner(runner)

	for _, set := range []string{"banned_v4", "banned_v6", "allow_22_v4", "allow_22_v6"} {
		runner.On("Run", "nft", "flush", "set", "inet", "portcullis", set).Return(nil)
	}

	if err := c.FlushDynamic(); err != nil {
		t.Fatalf("FlushDynamic: %v", err)
	}
	runner.AssertExpectations(t)
}

func TestNFTController_RunnerErrorPropagates(t *testing.T) {
	runner := new(MockCommandRunner)
	c := NewNFTController(testRuleset())
	c.SetRunner(runner)

	runner.On("Run", "nft", "add", "element", "inet", "portcullis",
		"banned_v4", "{", "192.0.2.1", "}").Return(errors.New("nft exploded"))

	if err := c.BlockAddress("192.0.2.1"); err == nil {
		t.Error("expected runner error to propagate")
	}
}

func TestParseSetElements_Multiline(t *testing.T) {
	out := `	elements = { 192.0.2.1, 192.0.2.7,
		     198.51.100.3 }
`
	elems := parseSetElements(out)
	if len(elems) != 3 {
		t.Fatalf("got %d elements: %v", len(elems), elems)
	}
	if elems[2] != "198.51.100.3" {
		t.Errorf("elems[2] = %q", elems[2])
	}
}

func TestParseSetElements_Empty(t *testing.T) {
	if elems := parseSetElements("set banned_v4 {\n\ttype ipv4_addr\n}\n"); elems != nil {
		t.Errorf("expected nil for set without elements, got %v", elems)
	}
}
