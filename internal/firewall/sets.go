package firewall

import (
	"fmt"
	"net"
	"regexp"
)

var validSetNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func isValidSetName(name string) bool {
	return validSetNameRegex.MatchString(name)
}

// Family is the IP family of an address, used to pick the right set.
type Family int

const (
	FamilyV4 Family = iota
	FamilyV6
)

func (f Family) suffix() string {
	if f == FamilyV6 {
		return "v6"
	}
	return "v4"
}

// AddrFamily classifies addr and returns its canonical string form.
func AddrFamily(addr string) (Family, string, error) {
	ip := net.ParseIP(addr)
	if ip == nil {
		return FamilyV4, "", fmt.Errorf("invalid address: %s", addr)
	}
	if v4 := ip.To4(); v4 != nil {
		return FamilyV4, v4.String(), nil
	}
	return FamilyV6, ip.String(), nil
}

// BannedSet returns the banned-address set name for a family.
func BannedSet(f Family) string {
	return "banned_" + f.suffix()
}

// AllowSet returns the allow set name for a protected port and family.
func AllowSet(port uint16, f Family) string {
	return fmt.Sprintf("allow_%d_%s", port, f.suffix())
}
