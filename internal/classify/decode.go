// Package classify turns raw link-layer frames into annotated packet records.
package classify

import (
	"encoding/binary"
	"net"
	"net/netip"

	"netlens.dev/netlens/internal/core"
)

const (
	ethernetHeaderLen = 14
	vlanHeaderLen     = 4
	arpPayloadLen     = 28
	ipv4HeaderMinLen  = 20
	ipv6HeaderLen     = 40
	udpHeaderLen      = 8
	tcpHeaderMinLen   = 20
	icmpHeaderMinLen  = 4

	etherTypeIPv4 = 0x0800
	etherTypeARP  = 0x0806
	etherTypeVLAN = 0x8100
	etherTypeQinQ = 0x88A8
	etherTypeIPv6 = 0x86DD

	protocolICMP   = 1
	protocolTCP    = 6
	protocolUDP    = 17
	protocolICMPv6 = 58
)

// decodeEthernet decodes the Ethernet frame header (including VLAN tags).
// Returns the final EtherType and the remaining payload.
func decodeEthernet(data []byte) (etherType uint16, payload []byte, err error) {
	if len(data) < ethernetHeaderLen {
		return 0, nil, core.ErrPacketTooShort
	}

	etherType = binary.BigEndian.Uint16(data[12:14])
	offset := ethernetHeaderLen

	// Skip VLAN tags (can be nested: QinQ)
	for etherType == etherTypeVLAN || etherType == etherTypeQinQ {
		if len(data) < offset+vlanHeaderLen {
			return etherType, nil, core.ErrPacketTooShort
		}
		etherType = binary.BigEndian.Uint16(data[offset+2 : offset+4])
		offset += vlanHeaderLen
	}

	return etherType, data[offset:], nil
}

// decodeARP decodes an Ethernet/IPv4 ARP payload.
func decodeARP(data []byte) (*core.ARPInfo, error) {
	if len(data) < arpPayloadLen {
		return nil, core.ErrPacketTooShort
	}

	// Hardware type (2) + protocol type (2) + sizes (2): only Ethernet/IPv4
	// ARP is annotated, anything else stays an unparsed layer.
	if binary.BigEndian.Uint16(data[0:2]) != 1 || binary.BigEndian.Uint16(data[2:4]) != etherTypeIPv4 {
		return nil, core.ErrUnsupportedProto
	}

	senderIP, ok := netip.AddrFromSlice(data[14:18])
	if !ok {
		return nil, core.ErrPacketTooShort
	}
	targetIP, ok := netip.AddrFromSlice(data[24:28])
	if !ok {
		return nil, core.ErrPacketTooShort
	}

	return &core.ARPInfo{
		Op:        binary.BigEndian.Uint16(data[6:8]),
		SenderIP:  senderIP,
		TargetIP:  targetIP,
		SenderMAC: net.HardwareAddr(data[8:14]).String(),
		TargetMAC: net.HardwareAddr(data[18:24]).String(),
	}, nil
}

// decodeIPv4 decodes an IPv4 header. Returns the header info, the transport
// protocol number and the remaining payload.
func decodeIPv4(data []byte) (*core.IPv4Info, uint8, []byte, error) {
	if len(data) < ipv4HeaderMinLen {
		return nil, 0, nil, core.ErrPacketTooShort
	}

	// IHL is the lower 4 bits of the first byte, in 32-bit words
	headerLen := int(data[0]&0x0F) * 4
	if headerLen < ipv4HeaderMinLen || len(data) < headerLen {
		return nil, 0, nil, core.ErrPacketTooShort
	}

	src, ok := netip.AddrFromSlice(data[12:16])
	if !ok {
		return nil, 0, nil, core.ErrPacketTooShort
	}
	dst, ok := netip.AddrFromSlice(data[16:20])
	if !ok {
		return nil, 0, nil, core.ErrPacketTooShort
	}

	info := &core.IPv4Info{Src: src, Dst: dst, TTL: data[8]}
	return info, data[9], data[headerLen:], nil
}

// decodeIPv6 decodes an IPv6 header. Extension headers are not walked; a
// packet whose next header is an extension yields an unparsed transport layer.
func decodeIPv6(data []byte) (*core.IPv6Info, uint8, []byte, error) {
	if len(data) < ipv6HeaderLen {
		return nil, 0, nil, core.ErrPacketTooShort
	}

	src, ok := netip.AddrFromSlice(data[8:24])
	if !ok {
		return nil, 0, nil, core.ErrPacketTooShort
	}
	dst, ok := netip.AddrFromSlice(data[24:40])
	if !ok {
		return nil, 0, nil, core.ErrPacketTooShort
	}

	info := &core.IPv6Info{Src: src, Dst: dst}
	return info, data[6], data[ipv6HeaderLen:], nil
}

// decodeTCP decodes a TCP header. Returns the header info and the payload.
func decodeTCP(data []byte) (*core.TCPInfo, []byte, error) {
	if len(data) < tcpHeaderMinLen {
		return nil, nil, core.ErrPacketTooShort
	}

	// Data offset is the upper 4 bits of byte 12, in 32-bit words
	headerLen := int(data[12]>>4) * 4
	if headerLen < tcpHeaderMinLen || len(data) < headerLen {
		return nil, nil, core.ErrPacketTooShort
	}

	payload := data[headerLen:]
	info := &core.TCPInfo{
		SrcPort:    binary.BigEndian.Uint16(data[0:2]),
		DstPort:    binary.BigEndian.Uint16(data[2:4]),
		Seq:        binary.BigEndian.Uint32(data[4:8]),
		Ack:        binary.BigEndian.Uint32(data[8:12]),
		Flags:      flagString(data[13]),
		PayloadLen: len(payload),
	}
	return info, payload, nil
}

// flagString renders TCP flag bits as a combination string in FSRPAUEC
// order ("S" for a bare SYN, "SA" for SYN+ACK).
func flagString(bits uint8) string {
	names := []struct {
		mask uint8
		ch   byte
	}{
		{0x01, 'F'}, // FIN
		{0x02, 'S'}, // SYN
		{0x04, 'R'}, // RST
		{0x08, 'P'}, // PSH
		{0x10, 'A'}, // ACK
		{0x20, 'U'}, // URG
		{0x40, 'E'}, // ECE
		{0x80, 'C'}, // CWR
	}

	buf := make([]byte, 0, 8)
	for _, n := range names {
		if bits&n.mask != 0 {
			buf = append(buf, n.ch)
		}
	}
	return string(buf)
}

// decodeUDP decodes a UDP header. Returns the header info and the payload.
func decodeUDP(data []byte) (*core.UDPInfo, []byte, error) {
	if len(data) < udpHeaderLen {
		return nil, nil, core.ErrPacketTooShort
	}

	info := &core.UDPInfo{
		SrcPort: binary.BigEndian.Uint16(data[0:2]),
		DstPort: binary.BigEndian.Uint16(data[2:4]),
		Length:  binary.BigEndian.Uint16(data[4:6]),
	}
	return info, data[udpHeaderLen:], nil
}

// decodeICMP decodes the fixed leading bytes shared by ICMPv4 and ICMPv6.
func decodeICMP(data []byte) (*core.ICMPInfo, error) {
	if len(data) < icmpHeaderMinLen {
		return nil, core.ErrPacketTooShort
	}
	return &core.ICMPInfo{Type: data[0], Code: data[1]}, nil
}
