package classify

import (
	"encoding/binary"
	"net/netip"
	"testing"
	"time"
)

// buildEthernet returns an Ethernet header with the given EtherType.
func buildEthernet(etherType uint16) []byte {
	frame := make([]byte, ethernetHeaderLen)
	copy(frame[0:6], []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55})
	copy(frame[6:12], []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF})
	binary.BigEndian.PutUint16(frame[12:14], etherType)
	return frame
}

// buildIPv4 returns an IPv4 header carrying the given transport protocol.
func buildIPv4(src, dst netip.Addr, proto uint8, payloadLen int) []byte {
	h := make([]byte, ipv4HeaderMinLen)
	h[0] = 0x45 // version 4, IHL 5
	binary.BigEndian.PutUint16(h[2:4], uint16(ipv4HeaderMinLen+payloadLen))
	h[8] = 64 // TTL
	h[9] = proto
	s := src.As4()
	d := dst.As4()
	copy(h[12:16], s[:])
	copy(h[16:20], d[:])
	return h
}

// buildTCP returns a TCP header with the given ports and flag bits,
// followed by payload.
func buildTCP(sport, dport uint16, flags uint8, payload []byte) []byte {
	h := make([]byte, tcpHeaderMinLen, tcpHeaderMinLen+len(payload))
	binary.BigEndian.PutUint16(h[0:2], sport)
	binary.BigEndian.PutUint16(h[2:4], dport)
	binary.BigEndian.PutUint32(h[4:8], 1000)
	binary.BigEndian.PutUint32(h[8:12], 2000)
	h[12] = 5 << 4 // data offset: 5 words
	h[13] = flags
	return append(h, payload...)
}

func buildTCPFrame(src, dst netip.Addr, sport, dport uint16, flags uint8, payload []byte) []byte {
	tcp := buildTCP(sport, dport, flags, payload)
	frame := buildEthernet(etherTypeIPv4)
	frame = append(frame, buildIPv4(src, dst, protocolTCP, len(tcp))...)
	return append(frame, tcp...)
}

func buildUDPFrame(src, dst netip.Addr, sport, dport uint16) []byte {
	udp := make([]byte, udpHeaderLen)
	binary.BigEndian.PutUint16(udp[0:2], sport)
	binary.BigEndian.PutUint16(udp[2:4], dport)
	binary.BigEndian.PutUint16(udp[4:6], udpHeaderLen)
	frame := buildEthernet(etherTypeIPv4)
	frame = append(frame, buildIPv4(src, dst, protocolUDP, len(udp))...)
	return append(frame, udp...)
}

func buildARPFrame(op uint16, sender, target netip.Addr) []byte {
	arp := make([]byte, arpPayloadLen)
	binary.BigEndian.PutUint16(arp[0:2], 1)             // hardware: Ethernet
	binary.BigEndian.PutUint16(arp[2:4], etherTypeIPv4) // protocol: IPv4
	arp[4], arp[5] = 6, 4
	binary.BigEndian.PutUint16(arp[6:8], op)
	copy(arp[8:14], []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF})
	s := sender.As4()
	copy(arp[14:18], s[:])
	tgt := target.As4()
	copy(arp[24:28], tgt[:])
	return append(buildEthernet(etherTypeARP), arp...)
}

func TestClassifyTCPSyn(t *testing.T) {
	c := New(nil)
	src := netip.MustParseAddr("192.168.1.10")
	dst := netip.MustParseAddr("93.184.216.34")
	frame := buildTCPFrame(src, dst, 52000, 443, 0x02, nil) // SYN

	rec := c.Classify(frame, time.Now(), len(frame))

	if rec.IPv4 == nil {
		t.Fatal("expected IPv4 layer to be parsed")
	}
	if rec.IPv4.Src != src || rec.IPv4.Dst != dst {
		t.Errorf("unexpected addresses: %v -> %v", rec.IPv4.Src, rec.IPv4.Dst)
	}
	if rec.IPv4.TTL != 64 {
		t.Errorf("expected TTL 64, got %d", rec.IPv4.TTL)
	}
	if rec.TCP == nil {
		t.Fatal("expected TCP layer to be parsed")
	}
	if rec.TCP.Flags != "S" {
		t.Errorf("expected flags %q, got %q", "S", rec.TCP.Flags)
	}
	if rec.Service != "HTTPS" {
		t.Errorf("expected service HTTPS, got %q", rec.Service)
	}
	if rec.Importance != "high" {
		t.Errorf("expected high importance for port 443, got %q", rec.Importance)
	}
	if len(rec.Explanation) == 0 {
		t.Error("expected non-empty explanation for a parsed packet")
	}
	if rec.Protocol() != "TCP" {
		t.Errorf("expected protocol TCP, got %q", rec.Protocol())
	}
}

func TestClassifyFlagString(t *testing.T) {
	cases := []struct {
		bits uint8
		want string
	}{
		{0x02, "S"},
		{0x12, "SA"},
		{0x10, "A"},
		{0x04, "R"},
		{0x14, "RA"},
		{0x18, "PA"},
		{0x11, "FA"},
	}
	for _, tc := range cases {
		if got := flagString(tc.bits); got != tc.want {
			t.Errorf("flagString(0x%02x) = %q, want %q", tc.bits, got, tc.want)
		}
	}
}

func TestClassifyUDPDNS(t *testing.T) {
	c := New(nil)
	frame := buildUDPFrame(netip.MustParseAddr("10.0.0.5"), netip.MustParseAddr("8.8.8.8"), 40000, 53)

	rec := c.Classify(frame, time.Now(), len(frame))

	if rec.UDP == nil {
		t.Fatal("expected UDP layer to be parsed")
	}
	if rec.UDP.DstPort != 53 {
		t.Errorf("expected dport 53, got %d", rec.UDP.DstPort)
	}
	if rec.Service != "DNS" {
		t.Errorf("expected service DNS, got %q", rec.Service)
	}
	if rec.Importance != "medium" {
		t.Errorf("expected medium importance for DNS, got %q", rec.Importance)
	}
}

func TestClassifyARPRequest(t *testing.T) {
	c := New(nil)
	sender := netip.MustParseAddr("192.168.1.1")
	target := netip.MustParseAddr("192.168.1.77")
	frame := buildARPFrame(1, sender, target)

	rec := c.Classify(frame, time.Now(), len(frame))

	if rec.ARP == nil {
		t.Fatal("expected ARP layer to be parsed")
	}
	if rec.ARP.Op != 1 {
		t.Errorf("expected ARP op 1, got %d", rec.ARP.Op)
	}
	if rec.ARP.SenderIP != sender || rec.ARP.TargetIP != target {
		t.Errorf("unexpected ARP addresses: %v -> %v", rec.ARP.SenderIP, rec.ARP.TargetIP)
	}
	if rec.Protocol() != "ARP" {
		t.Errorf("expected protocol ARP, got %q", rec.Protocol())
	}
	if len(rec.Explanation) == 0 {
		t.Error("expected non-empty explanation for ARP")
	}
}

func TestClassifyIPv6(t *testing.T) {
	c := New(nil)
	src := netip.MustParseAddr("2001:db8::1")
	dst := netip.MustParseAddr("2001:db8::2")

	udp := make([]byte, udpHeaderLen)
	binary.BigEndian.PutUint16(udp[0:2], 5353)
	binary.BigEndian.PutUint16(udp[2:4], 5353)
	binary.BigEndian.PutUint16(udp[4:6], udpHeaderLen)

	ip6 := make([]byte, ipv6HeaderLen)
	ip6[0] = 6 << 4
	binary.BigEndian.PutUint16(ip6[4:6], uint16(len(udp)))
	ip6[6] = protocolUDP
	ip6[7] = 64
	s := src.As16()
	copy(ip6[8:24], s[:])
	d := dst.As16()
	copy(ip6[24:40], d[:])

	frame := append(buildEthernet(etherTypeIPv6), ip6...)
	frame = append(frame, udp...)

	rec := c.Classify(frame, time.Now(), len(frame))

	if rec.IPv6 == nil {
		t.Fatal("expected IPv6 layer to be parsed")
	}
	if rec.IPv6.Src != src || rec.IPv6.Dst != dst {
		t.Errorf("unexpected addresses: %v -> %v", rec.IPv6.Src, rec.IPv6.Dst)
	}
	if rec.UDP == nil {
		t.Fatal("expected UDP layer inside IPv6")
	}
}

func TestClassifyVLANTagged(t *testing.T) {
	c := New(nil)
	src := netip.MustParseAddr("192.168.1.10")
	dst := netip.MustParseAddr("192.168.1.20")
	tcp := buildTCP(40000, 22, 0x02, nil)

	frame := buildEthernet(etherTypeVLAN)
	vlan := make([]byte, vlanHeaderLen)
	binary.BigEndian.PutUint16(vlan[0:2], 10) // VLAN ID 10
	binary.BigEndian.PutUint16(vlan[2:4], etherTypeIPv4)
	frame = append(frame, vlan...)
	frame = append(frame, buildIPv4(src, dst, protocolTCP, len(tcp))...)
	frame = append(frame, tcp...)

	rec := c.Classify(frame, time.Now(), len(frame))

	if rec.IPv4 == nil || rec.TCP == nil {
		t.Fatal("expected VLAN-tagged IPv4/TCP frame to be parsed")
	}
	if rec.Service != "SSH" {
		t.Errorf("expected service SSH, got %q", rec.Service)
	}
}

func TestClassifyTruncatedFrameNeverErrors(t *testing.T) {
	c := New(nil)
	full := buildTCPFrame(netip.MustParseAddr("10.0.0.1"), netip.MustParseAddr("10.0.0.2"), 1234, 80, 0x02, nil)

	// Every prefix of a valid frame must still yield a record; shorter
	// prefixes just parse fewer layers.
	for n := 0; n <= len(full); n++ {
		rec := c.Classify(full[:n], time.Now(), n)
		if rec.Length != n {
			t.Fatalf("prefix %d: expected length %d, got %d", n, n, rec.Length)
		}
	}

	// A frame with only the Ethernet+IP headers parses L3 but not L4.
	l3Only := full[:ethernetHeaderLen+ipv4HeaderMinLen]
	rec := c.Classify(l3Only, time.Now(), len(l3Only))
	if rec.IPv4 == nil {
		t.Fatal("expected IPv4 to parse from an L3-only frame")
	}
	if rec.TCP != nil {
		t.Error("expected TCP to be nil for a truncated transport header")
	}
	if len(rec.Explanation) == 0 {
		t.Error("expected non-empty explanation for a parsed L3 layer")
	}
}

func TestClassifyHTTPPreview(t *testing.T) {
	c := New(nil)
	payload := []byte("GET /index.html HTTP/1.1\r\nHost: example.com\r\n\r\n")
	frame := buildTCPFrame(netip.MustParseAddr("10.0.0.1"), netip.MustParseAddr("10.0.0.2"), 40000, 80, 0x18, payload)

	rec := c.Classify(frame, time.Now(), len(frame))

	if rec.HTTPPreview != "GET /index.html HTTP/1.1" {
		t.Errorf("unexpected http preview: %q", rec.HTTPPreview)
	}
	if rec.TCP.PayloadLen != len(payload) {
		t.Errorf("expected payload length %d, got %d", len(payload), rec.TCP.PayloadLen)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	c := New(nil)
	frame := buildTCPFrame(netip.MustParseAddr("10.1.1.1"), netip.MustParseAddr("10.1.1.2"), 55555, 3389, 0x02, nil)
	ts := time.Unix(1700000000, 0)

	a := c.Classify(frame, ts, len(frame))
	b := c.Classify(frame, ts, len(frame))

	if a.Importance != b.Importance || a.Service != b.Service {
		t.Error("classification must be deterministic")
	}
	if len(a.Explanation) != len(b.Explanation) {
		t.Fatal("explanations must be deterministic")
	}
	for i := range a.Explanation {
		if a.Explanation[i] != b.Explanation[i] {
			t.Errorf("explanation %d differs: %q vs %q", i, a.Explanation[i], b.Explanation[i])
		}
	}
}

func TestClassifyExtraServices(t *testing.T) {
	c := New(map[uint16]string{9999: "Custom-App"})
	frame := buildTCPFrame(netip.MustParseAddr("10.0.0.1"), netip.MustParseAddr("10.0.0.2"), 50123, 9999, 0x02, nil)

	rec := c.Classify(frame, time.Now(), len(frame))

	if rec.Service != "Custom-App" {
		t.Errorf("expected configured service name, got %q", rec.Service)
	}
}
