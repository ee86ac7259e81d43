package firewall

import (
	"fmt"
	"strings"
)

// Ruleset describes the base nftables ruleset the daemon owns.
type Ruleset struct {
	Table          string
	KnockPorts     []uint16
	ProtectedPorts []uint16
	NFLogGroup     int
}

// BuildSetup renders the full ruleset as an nft script. Applying it via
// `nft -f -` replaces any previous incarnation of the table atomically.
func (r *Ruleset) BuildSetup() string {
	var sb strings.Builder

	// add-then-delete makes the script idempotent: delete would fail on a
	// first run without the preceding add.
	fmt.Fprintf(&sb, "add table inet %s\n", r.Table)
	fmt.Fprintf(&sb, "delete table inet %s\n", r.Table)

	fmt.Fprintf(&sb, "table inet %s {\n", r.Table)

	sb.WriteString("\tset banned_v4 {\n\t\ttype ipv4_addr\n\t}\n")
	sb.WriteString("\tset banned_v6 {\n\t\ttype ipv6_addr\n\t}\n")
	for _, p := range r.ProtectedPorts {
		fmt.Fprintf(&sb, "\tset %s {\n\t\ttype ipv4_addr\n\t}\n", AllowSet(p, FamilyV4))
		fmt.Fprintf(&sb, "\tset %s {\n\t\ttype ipv6_addr\n\t}\n", AllowSet(p, FamilyV6))
	}

	sb.WriteString("\tchain input {\n")
	sb.WriteString("\t\ttype filter hook input priority filter - 10; policy accept;\n")

	// Banned addresses are cut off before anything else, including the
	// knock log rule.
	sb.WriteString("\t\tip saddr @banned_v4 drop\n")
	sb.WriteString("\t\tip6 saddr @banned_v6 drop\n")

	if len(r.KnockPorts) > 0 {
		fmt.Fprintf(&sb, "\t\tmeta l4proto { tcp, udp } th dport { %s } log group %d drop\n",
			joinPorts(r.KnockPorts), r.NFLogGroup)
	}

	for _, p := range r.ProtectedPorts {
		fmt.Fprintf(&sb, "\t\ttcp dport %d ip saddr @%s accept\n", p, AllowSet(p, FamilyV4))
		fmt.Fprintf(&sb, "\t\ttcp dport %d ip6 saddr @%s accept\n", p, AllowSet(p, FamilyV6))
	}
	if len(r.ProtectedPorts) > 0 {
		fmt.Fprintf(&sb, "\t\ttcp dport { %s } drop\n", joinPorts(r.ProtectedPorts))
	}

	sb.WriteString("\t}\n")
	sb.WriteString("}\n")

	return sb.String()
}

// BuildTeardown renders the script that removes the table entirely.
func (r *Ruleset) BuildTeardown() string {
	return fmt.Sprintf("add table inet %s\ndelete table inet %s\n", r.Table, r.Table)
}

func joinPorts(ports []uint16) string {
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = fmt.Sprintf("%d", p)
	}
	return strings.Join(parts, ", ")
}
