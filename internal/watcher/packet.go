package watcher

import (
	"bytes"
	"encoding/binary"
	"net"
)

// knockPacket is the result of parsing one raw packet from the kernel.
type knockPacket struct {
	SrcIP   string
	DstPort uint16
	Payload []byte
}

// parsePacket extracts source address, destination port and transport
// payload from a raw IPv4 or IPv6 packet. Returns false for anything that
// is not TCP or UDP, or is too short to carry the headers it claims.
func parsePacket(raw []byte) (knockPacket, bool) {
	if len(raw) < 20 {
		return knockPacket{}, false
	}

	switch raw[0] >> 4 {
	case 4:
		return parseIPv4(raw)
	case 6:
		return parseIPv6(raw)
	}
	return knockPacket{}, false
}

func parseIPv4(raw []byte) (knockPacket, bool) {
	ihl := int(raw[0]&0x0f) * 4
	if ihl < 20 || len(raw) < ihl {
		return knockPacket{}, false
	}

	proto := raw[9]
	src := net.IP(raw[12:16]).String()
	transport := raw[ihl:]

	return parseTransport(proto, src, transport)
}

func parseIPv6(raw []byte) (knockPacket, bool) {
	if len(raw) < 40 {
		return knockPacket{}, false
	}

	proto := raw[6]
	src := net.IP(raw[8:24]).String()
	transport := raw[40:]

	return parseTransport(proto, src, transport)
}

func parseTransport(proto byte, src string, transport []byte) (knockPacket, bool) {
	switch proto {
	case 6: // TCP
		if len(transport) < 20 {
			return knockPacket{}, false
		}
		dport := binary.BigEndian.Uint16(transport[2:4])
		hl := int(transport[12]>>4) * 4
		if hl < 20 || len(transport) < hl {
			return knockPacket{SrcIP: src, DstPort: dport}, true
		}
		return knockPacket{SrcIP: src, DstPort: dport, Payload: transport[hl:]}, true
	case 17: // UDP
		if len(transport) < 8 {
			return knockPacket{}, false
		}
		dport := binary.BigEndian.Uint16(transport[2:4])
		return knockPacket{SrcIP: src, DstPort: dport, Payload: transport[8:]}, true
	}
	return knockPacket{}, false
}

// carriesToken reports whether a packet payload carries the shared secret.
// An empty secret disables the check (every logged packet is a knock).
func carriesToken(payload []byte, secret string) bool {
	if secret == "" {
		return true
	}
	return bytes.Contains(payload, []byte(secret))
}
