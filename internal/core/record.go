// Package core defines the capture data model with zero external dependencies.
package core

import (
	"net/netip"
	"time"
)

// Importance classifies how much attention a packet deserves from a
// non-expert operator. Assignment is a deterministic table lookup.
type Importance string

const (
	ImportanceLow    Importance = "low"
	ImportanceMedium Importance = "medium"
	ImportanceHigh   Importance = "high"
)

// IPv4Info is the decoded IPv4 header subset kept on a record.
type IPv4Info struct {
	Src netip.Addr `json:"src"`
	Dst netip.Addr `json:"dst"`
	TTL uint8      `json:"ttl"`
}

// IPv6Info is the decoded IPv6 header subset kept on a record.
type IPv6Info struct {
	Src netip.Addr `json:"src"`
	Dst netip.Addr `json:"dst"`
}

// TCPInfo is the decoded TCP header subset kept on a record.
// Flags is the flag combination string in scapy order, e.g. "S", "SA", "FA".
type TCPInfo struct {
	SrcPort    uint16 `json:"sport"`
	DstPort    uint16 `json:"dport"`
	Flags      string `json:"flags"`
	Seq        uint32 `json:"seq"`
	Ack        uint32 `json:"ack"`
	PayloadLen int    `json:"payload_len"`
}

// UDPInfo is the decoded UDP header subset kept on a record.
type UDPInfo struct {
	SrcPort uint16 `json:"sport"`
	DstPort uint16 `json:"dport"`
	Length  uint16 `json:"length"`
}

// ICMPInfo is the decoded ICMP header subset kept on a record.
type ICMPInfo struct {
	Type uint8 `json:"type"`
	Code uint8 `json:"code"`
}

// ARPInfo is the decoded ARP payload kept on a record.
type ARPInfo struct {
	Op        uint16     `json:"op"` // 1 = request, 2 = reply
	SenderIP  netip.Addr `json:"psrc"`
	TargetIP  netip.Addr `json:"pdst"`
	SenderMAC string     `json:"hwsrc"`
	TargetMAC string     `json:"hwdst"`
}

// PacketRecord is one captured frame after classification. Layer fields are
// nil when the corresponding header did not parse; a record with every layer
// nil is still valid. Raw retains the original frame bytes for pcap export.
type PacketRecord struct {
	Sequence   uint64    `json:"sequence"`
	CapturedAt time.Time `json:"captured_at"`
	Length     int       `json:"length"` // wire length in bytes

	IPv4 *IPv4Info `json:"ipv4,omitempty"`
	IPv6 *IPv6Info `json:"ipv6,omitempty"`
	TCP  *TCPInfo  `json:"tcp,omitempty"`
	UDP  *UDPInfo  `json:"udp,omitempty"`
	ICMP *ICMPInfo `json:"icmp,omitempty"`
	ARP  *ARPInfo  `json:"arp,omitempty"`

	Service     string     `json:"service,omitempty"` // well-known service on the lower port
	Importance  Importance `json:"importance"`
	Explanation []string   `json:"explanation,omitempty"`
	HTTPPreview string     `json:"http_preview,omitempty"` // first request line on cleartext web ports

	Raw []byte `json:"raw,omitempty"`
}

// Protocol returns the top-level protocol label used by the statistics
// engine: TCP, UDP, ICMP, ARP or Other.
func (r *PacketRecord) Protocol() string {
	switch {
	case r.TCP != nil:
		return "TCP"
	case r.UDP != nil:
		return "UDP"
	case r.ICMP != nil:
		return "ICMP"
	case r.ARP != nil:
		return "ARP"
	default:
		return "Other"
	}
}

// SrcAddr returns the network-layer source address. ARP records report the
// sender protocol address. The zero Addr means no network layer parsed.
func (r *PacketRecord) SrcAddr() netip.Addr {
	switch {
	case r.IPv4 != nil:
		return r.IPv4.Src
	case r.IPv6 != nil:
		return r.IPv6.Src
	case r.ARP != nil:
		return r.ARP.SenderIP
	default:
		return netip.Addr{}
	}
}

// DstAddr returns the network-layer destination address.
func (r *PacketRecord) DstAddr() netip.Addr {
	switch {
	case r.IPv4 != nil:
		return r.IPv4.Dst
	case r.IPv6 != nil:
		return r.IPv6.Dst
	case r.ARP != nil:
		return r.ARP.TargetIP
	default:
		return netip.Addr{}
	}
}

// Ports returns the transport-layer ports, or ok=false for records without
// TCP or UDP.
func (r *PacketRecord) Ports() (sport, dport uint16, ok bool) {
	switch {
	case r.TCP != nil:
		return r.TCP.SrcPort, r.TCP.DstPort, true
	case r.UDP != nil:
		return r.UDP.SrcPort, r.UDP.DstPort, true
	default:
		return 0, 0, false
	}
}

// ServicePort returns the lower of the two transport ports. Well-known
// services sit on the low side of an ephemeral/well-known pair, so the lower
// port is the best single-port label for a packet.
func (r *PacketRecord) ServicePort() (uint16, bool) {
	sport, dport, ok := r.Ports()
	if !ok {
		return 0, false
	}
	if sport < dport {
		return sport, true
	}
	return dport, true
}
