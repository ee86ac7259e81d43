// Package firewall owns the nftables state backing access decisions.
//
// The daemon maintains one table (inet family) holding a banned-address set
// per IP family and an allow set per protected port and family. The base
// ruleset is applied atomically through `nft -f -`. Per-address changes go
// through either the nft binary (backend "nft") or the netlink library
// (backend "native").
package firewall
