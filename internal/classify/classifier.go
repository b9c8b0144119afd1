package classify

import (
	"bytes"
	"time"

	"netlens.dev/netlens/internal/core"
)

// httpPreviewLimit caps how many payload bytes are inspected for a request line.
const httpPreviewLimit = 200

// Classifier is a pure mapping from raw frames to annotated records. It
// holds only lookup tables and is safe for concurrent use.
type Classifier struct {
	services map[uint16]string
}

// New creates a Classifier. extraServices entries extend (and may override)
// the built-in well-known port table.
func New(extraServices map[uint16]string) *Classifier {
	services := make(map[uint16]string, len(wellKnownServices)+len(extraServices))
	for port, name := range wellKnownServices {
		services[port] = name
	}
	for port, name := range extraServices {
		services[port] = name
	}
	return &Classifier{services: services}
}

// Classify decodes one raw frame into a PacketRecord. Parsing order is
// ARP, IPv4, IPv6 at the network layer, then TCP, UDP, ICMP within IP.
// A layer that fails to parse is left nil; Classify never returns an error,
// one malformed frame must never abort a capture. The caller assigns the
// sequence number.
func (c *Classifier) Classify(data []byte, capturedAt time.Time, wireLen int) core.PacketRecord {
	if wireLen < len(data) {
		wireLen = len(data)
	}
	rec := core.PacketRecord{
		CapturedAt: capturedAt,
		Length:     wireLen,
		Raw:        data,
	}

	etherType, payload, err := decodeEthernet(data)
	if err != nil {
		rec.Importance = importanceFor(&rec)
		return rec
	}

	switch etherType {
	case etherTypeARP:
		if arp, err := decodeARP(payload); err == nil {
			rec.ARP = arp
		}
	case etherTypeIPv4:
		if ip, proto, rest, err := decodeIPv4(payload); err == nil {
			rec.IPv4 = ip
			c.classifyTransport(&rec, proto, rest)
		}
	case etherTypeIPv6:
		if ip, proto, rest, err := decodeIPv6(payload); err == nil {
			rec.IPv6 = ip
			c.classifyTransport(&rec, proto, rest)
		}
	}

	if port, ok := rec.ServicePort(); ok {
		rec.Service = c.services[port]
	}
	rec.Importance = importanceFor(&rec)
	rec.Explanation = explain(&rec)
	return rec
}

// classifyTransport fills in the transport layer. Order: TCP, UDP, ICMP.
func (c *Classifier) classifyTransport(rec *core.PacketRecord, proto uint8, data []byte) {
	switch proto {
	case protocolTCP:
		if tcp, payload, err := decodeTCP(data); err == nil {
			rec.TCP = tcp
			rec.HTTPPreview = httpPreview(tcp, payload)
		}
	case protocolUDP:
		if udp, _, err := decodeUDP(data); err == nil {
			rec.UDP = udp
		}
	case protocolICMP, protocolICMPv6:
		if icmp, err := decodeICMP(data); err == nil {
			rec.ICMP = icmp
		}
	}
}

// httpPreview extracts the request line from cleartext web traffic so the
// operator can see what was asked for without a protocol decoder.
func httpPreview(tcp *core.TCPInfo, payload []byte) string {
	if len(payload) == 0 || (tcp.DstPort != 80 && tcp.DstPort != 8080) {
		return ""
	}
	if len(payload) > httpPreviewLimit {
		payload = payload[:httpPreviewLimit]
	}
	if !bytes.HasPrefix(payload, []byte("GET ")) &&
		!bytes.HasPrefix(payload, []byte("POST ")) &&
		!bytes.HasPrefix(payload, []byte("HTTP")) {
		return ""
	}
	if i := bytes.Index(payload, []byte("\r\n")); i >= 0 {
		payload = payload[:i]
	}
	return string(payload)
}
