package classify

import (
	"fmt"
	"net/netip"

	"netlens.dev/netlens/internal/core"
)

// portNotes are per-service annotations shown to the operator. Keyed on the
// service port (lower of the pair), so both directions of a flow get the
// same note.
var portNotes = map[uint16][]string{
	21:   {"port 21: FTP file transfer", "security note: FTP sends passwords in cleartext"},
	22:   {"port 22: SSH remote login", "security note: traffic is encrypted"},
	23:   {"port 23: Telnet remote login", "security note: Telnet sends everything in cleartext"},
	25:   {"port 25: SMTP mail delivery"},
	53:   {"port 53: DNS name resolution", "role: translates names like www.example.com into addresses"},
	67:   {"port 67: DHCP address assignment", "role: hands out addresses when a device joins the network"},
	68:   {"port 68: DHCP address assignment", "role: hands out addresses when a device joins the network"},
	80:   {"port 80: HTTP web traffic", "security note: not encrypted, contents can be observed in transit"},
	110:  {"port 110: POP3 mail retrieval"},
	123:  {"port 123: NTP time synchronization", "role: keeps the computer clock accurate"},
	137:  {"port 137: NetBIOS name service", "role: Windows computer-name resolution"},
	138:  {"port 138: NetBIOS datagram service", "role: Windows computer-name resolution"},
	143:  {"port 143: IMAP mail retrieval"},
	161:  {"port 161: SNMP device monitoring"},
	162:  {"port 162: SNMP device monitoring"},
	443:  {"port 443: HTTPS web traffic", "security note: encrypted with TLS"},
	993:  {"port 993: IMAPS encrypted mail retrieval"},
	995:  {"port 995: POP3S encrypted mail retrieval"},
	3306: {"port 3306: MySQL database"},
	3389: {"port 3389: RDP remote desktop", "role: remote access to a Windows machine"},
	5060: {"port 5060: SIP voice-over-IP signaling"},
	5061: {"port 5061: SIP voice-over-IP signaling"},
	5432: {"port 5432: PostgreSQL database"},
	8080: {"port 8080: alternate HTTP port, often a development web server"},
}

// tcpFlagNotes explains the most informative flag combination on a segment.
// Checked in priority order: handshake flags first, then teardown.
func tcpFlagNotes(flags string) []string {
	hasS := containsFlag(flags, 'S')
	hasA := containsFlag(flags, 'A')
	switch {
	case hasS && !hasA:
		return []string{"SYN flag: connection request, start of the three-way handshake"}
	case hasS && hasA:
		return []string{"SYN-ACK flags: connection accepted, second step of the handshake"}
	case containsFlag(flags, 'F'):
		return []string{"FIN flag: orderly connection shutdown"}
	case containsFlag(flags, 'R'):
		return []string{"RST flag: connection reset, a refusal or an abnormal teardown"}
	case containsFlag(flags, 'P'):
		return []string{"PSH flag: data handed to the application immediately"}
	default:
		return nil
	}
}

func containsFlag(flags string, f byte) bool {
	for i := 0; i < len(flags); i++ {
		if flags[i] == f {
			return true
		}
	}
	return false
}

// icmpNotes explains the common ICMP message types.
func icmpNotes(t uint8) []string {
	switch t {
	case 8:
		return []string{"echo request (ping): checking whether a host answers"}
	case 0:
		return []string{"echo reply (ping answer): the host is reachable"}
	case 3:
		return []string{"destination unreachable: a firewall, a missing route or a stopped service"}
	case 11:
		return []string{"time exceeded: the packet ran out of hops (TTL reached zero)"}
	default:
		return nil
	}
}

// addrNote describes where an address points to in operator terms. Returns
// an empty string for ordinary public unicast addresses.
func addrNote(role string, addr netip.Addr) string {
	switch {
	case !addr.IsValid():
		return ""
	case addr.IsLoopback():
		return fmt.Sprintf("%s %s: this machine itself (loopback)", role, addr)
	case addr.IsMulticast():
		return fmt.Sprintf("%s %s: multicast, delivered to a group of devices", role, addr)
	case addr.Is4() && addr == netip.AddrFrom4([4]byte{255, 255, 255, 255}):
		return fmt.Sprintf("%s %s: broadcast to every device on the network", role, addr)
	case addr.IsPrivate() || addr.IsLinkLocalUnicast():
		return fmt.Sprintf("%s %s: a device on the local network", role, addr)
	default:
		return ""
	}
}

// explain builds the ordered human-readable annotation list for a record.
// Deterministic: the same record always yields the same strings. Never empty
// for a record with a parsed network or transport layer.
func explain(r *core.PacketRecord) []string {
	var notes []string

	switch {
	case r.TCP != nil:
		notes = append(notes, "TCP: reliable, connection-oriented transport")
		if port, ok := r.ServicePort(); ok {
			notes = append(notes, portNotes[port]...)
		}
		notes = append(notes, tcpFlagNotes(r.TCP.Flags)...)
	case r.UDP != nil:
		notes = append(notes,
			"UDP: fast, connectionless transport",
			"no delivery guarantee; common for streaming, games and name lookups")
		if port, ok := r.ServicePort(); ok {
			notes = append(notes, portNotes[port]...)
		}
	case r.ICMP != nil:
		notes = append(notes, "ICMP: network diagnostics and error reporting")
		notes = append(notes, icmpNotes(r.ICMP.Type)...)
	case r.ARP != nil:
		notes = append(notes, "ARP: maps an IP address to a hardware address on the local network")
		switch r.ARP.Op {
		case 1:
			notes = append(notes, fmt.Sprintf("ARP request: who has %s?", r.ARP.TargetIP))
		case 2:
			notes = append(notes, fmt.Sprintf("ARP reply: %s answers with its hardware address", r.ARP.SenderIP))
		}
	case r.IPv4 != nil || r.IPv6 != nil:
		notes = append(notes, "IP packet with an unrecognized transport protocol")
	}

	if n := addrNote("source", r.SrcAddr()); n != "" {
		notes = append(notes, n)
	}
	if n := addrNote("destination", r.DstAddr()); n != "" {
		notes = append(notes, n)
	}

	return notes
}
