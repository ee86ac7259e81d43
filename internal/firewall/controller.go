package firewall

import (
	"fmt"
	"strings"
)

// NFTController implements AccessController by driving the nft binary. It
// is the default backend; it only needs the nft userspace tool and works
// identically inside containers.
type NFTController struct {
	table   string
	ruleset *Ruleset
	runner  CommandRunner
}

// NewNFTController creates a controller for the given ruleset.
func NewNFTController(ruleset *Ruleset) *NFTController {
	return &NFTController{
		table:   ruleset.Table,
		ruleset: ruleset,
		runner:  DefaultCommandRunner,
	}
}

// SetRunner replaces the command runner, for testing.
func (c *NFTController) SetRunner(runner CommandRunner) {
	c.runner = runner
}

// Setup applies the base ruleset atomically, replacing any previous table.
func (c *NFTController) Setup() error {
	return c.runner.RunInput(c.ruleset.BuildSetup(), "nft", "-f", "-")
}

// Teardown removes the daemon's table entirely.
func (c *NFTController) Teardown() error {
	return c.runner.RunInput(c.ruleset.BuildTeardown(), "nft", "-f", "-")
}

// OpenPort admits addr to a protected port.
func (c *NFTController) OpenPort(addr string, port uint16) error {
	fam, ip, err := AddrFamily(addr)
	if err != nil {
		return err
	}
	return c.addElement(AllowSet(port, fam), ip)
}

// ClosePort removes addr's admission to a protected port.
func (c *NFTController) ClosePort(addr string, port uint16) error {
	fam, ip, err := AddrFamily(addr)
	if err != nil {
		return err
	}
	return c.deleteElement(AllowSet(port, fam), ip)
}

// BlockAddress drops all traffic from addr.
func (c *NFTController) BlockAddress(addr string) error {
	fam, ip, err := AddrFamily(addr)
	if err != nil {
		return err
	}
	return c.addElement(BannedSet(fam), ip)
}

// UnblockAddress lifts a block placed by BlockAddress.
func (c *NFTController) UnblockAddress(addr string) error {
	fam, ip, err := AddrFamily(addr)
	if err != nil {
		return err
	}
	return c.deleteElement(BannedSet(fam), ip)
}

// IsBlocked reports whether addr is in the banned set.
func (c *NFTController) IsBlocked(addr string) (bool, error) {
	fam, ip, err := AddrFamily(addr)
	if err != nil {
		return false, err
	}
	elements, err := c.GetSetElements(BannedSet(fam))
	if err != nil {
		return false, err
	}
	for _, e := range elements {
		if e == ip {
			return true, nil
		}
	}
	return false, nil
}

// FlushDynamic empties the banned and allow sets but leaves the ruleset in
// place. Used by the flush subcommand.
func (c *NFTController) FlushDynamic() error {
	sets := []string{BannedSet(FamilyV4), BannedSet(FamilyV6)}
	for _, p := range c.ruleset.ProtectedPorts {
		sets = append(sets, AllowSet(p, FamilyV4), AllowSet(p, FamilyV6))
	}
	for _, s := range sets {
		if err := c.runNft("flush", "set", "inet", c.table, s); err != nil {
			return fmt.Errorf("failed to flush set %s: %w", s, err)
		}
	}
	return nil
}

// ListBanned returns all banned addresses across both families.
func (c *NFTController) ListBanned() ([]string, error) {
	var out []string
	for _, f := range []Family{FamilyV4, FamilyV6} {
		elems, err := c.GetSetElements(BannedSet(f))
		if err != nil {
			return nil, err
		}
		out = append(out, elems...)
	}
	return out, nil
}

// ListAllowed returns all addresses admitted to a protected port.
func (c *NFTController) ListAllowed(port uint16) ([]string, error) {
	var out []string
	for _, f := range []Family{FamilyV4, FamilyV6} {
		elems, err := c.GetSetElements(AllowSet(port, f))
		if err != nil {
			return nil, err
		}
		out = append(out, elems...)
	}
	return out, nil
}

// GetSetElements returns all elements in a set.
func (c *NFTController) GetSetElements(setName string) ([]string, error) {
	if !isValidSetName(setName) {
		return nil, fmt.Errorf("invalid set name: %s", setName)
	}
	out, err := c.runner.Output("nft", "list", "set", "inet", c.table, setName)
	if err != nil {
		return nil, err
	}
	return parseSetElements(string(out)), nil
}

func (c *NFTController) addElement(setName, element string) error {
	if !isValidSetName(setName) {
		return fmt.Errorf("invalid set name: %s", setName)
	}
	return c.runNft("add", "element", "inet", c.table, setName, "{", element, "}")
}

func (c *NFTController) deleteElement(setName, element string) error {
	if !isValidSetName(setName) {
		return fmt.Errorf("invalid set name: %s", setName)
	}
	return c.runNft("delete", "element", "inet", c.table, setName, "{", element, "}")
}

func (c *NFTController) runNft(args ...string) error {
	return c.runner.Run("nft", args...)
}

// parseSetElements extracts the element list from `nft list set` output.
// The elements block may span multiple lines:
//
//	elements = { 192.0.2.1, 192.0.2.7,
//	             198.51.100.3 }
func parseSetElements(out string) []string {
	start := strings.Index(out, "elements = {")
	if start == -1 {
		return nil
	}
	rest := out[start+len("elements = {"):]
	end := strings.Index(rest, "}")
	if end == -1 {
		return nil
	}

	var elements []string
	for _, tok := range strings.Split(rest[:end], ",") {
		tok = strings.TrimSpace(tok)
		if tok != "" {
			elements = append(elements, tok)
		}
	}
	return elements
}
