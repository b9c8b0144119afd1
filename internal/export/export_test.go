package export

import (
	"bytes"
	"encoding/csv"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"netlens.dev/netlens/internal/core"
)

func sampleRecords() []core.PacketRecord {
	at := time.Date(2026, 8, 1, 12, 0, 0, 123456000, time.UTC)
	return []core.PacketRecord{
		{
			Sequence:   0,
			CapturedAt: at,
			Length:     74,
			IPv4: &core.IPv4Info{
				Src: netip.MustParseAddr("192.168.1.10"),
				Dst: netip.MustParseAddr("93.184.216.34"),
				TTL: 64,
			},
			TCP:         &core.TCPInfo{SrcPort: 52000, DstPort: 443, Flags: "S", Seq: 1000, Ack: 0},
			Service:     "HTTPS",
			Importance:  core.ImportanceHigh,
			Explanation: []string{"port 443: HTTPS web traffic", "SYN: connection attempt"},
			Raw:         bytes.Repeat([]byte{0xAB}, 74),
		},
		{
			Sequence:   1,
			CapturedAt: at.Add(time.Second),
			Length:     90,
			IPv4: &core.IPv4Info{
				Src: netip.MustParseAddr("192.168.1.10"),
				Dst: netip.MustParseAddr("8.8.8.8"),
				TTL: 64,
			},
			UDP:        &core.UDPInfo{SrcPort: 40000, DstPort: 53, Length: 56},
			Service:    "DNS",
			Importance: core.ImportanceMedium,
			Raw:        bytes.Repeat([]byte{0xCD}, 90),
		},
		{
			Sequence:   2,
			CapturedAt: at.Add(2 * time.Second),
			Length:     42,
			ARP: &core.ARPInfo{
				Op:        1,
				SenderIP:  netip.MustParseAddr("192.168.1.1"),
				TargetIP:  netip.MustParseAddr("192.168.1.10"),
				SenderMAC: "aa:bb:cc:dd:ee:ff",
				TargetMAC: "00:00:00:00:00:00",
			},
			Importance: core.ImportanceLow,
			Raw:        bytes.Repeat([]byte{0xEF}, 42),
		},
	}
}

func TestJSONRoundTrip(t *testing.T) {
	records := sampleRecords()

	var buf bytes.Buffer
	if err := Write(&buf, FormatJSON, records); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if len(decoded) != len(records) {
		t.Fatalf("expected %d records, got %d", len(records), len(decoded))
	}
	for i := range records {
		want, got := records[i], decoded[i]
		if got.Sequence != want.Sequence || got.Length != want.Length ||
			!got.CapturedAt.Equal(want.CapturedAt) ||
			got.Service != want.Service || got.Importance != want.Importance {
			t.Errorf("record %d header mismatch:\nwant %+v\ngot  %+v", i, want, got)
		}
		if (want.TCP == nil) != (got.TCP == nil) || (want.TCP != nil && *want.TCP != *got.TCP) {
			t.Errorf("record %d TCP mismatch", i)
		}
		if (want.UDP == nil) != (got.UDP == nil) || (want.UDP != nil && *want.UDP != *got.UDP) {
			t.Errorf("record %d UDP mismatch", i)
		}
		if (want.IPv4 == nil) != (got.IPv4 == nil) || (want.IPv4 != nil && *want.IPv4 != *got.IPv4) {
			t.Errorf("record %d IPv4 mismatch", i)
		}
		if (want.ARP == nil) != (got.ARP == nil) || (want.ARP != nil && *want.ARP != *got.ARP) {
			t.Errorf("record %d ARP mismatch", i)
		}
		if !bytes.Equal(want.Raw, got.Raw) {
			t.Errorf("record %d raw bytes mismatch", i)
		}
	}
}

func TestJSONEmptyBuffer(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatJSON, nil); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(decoded) != 0 {
		t.Errorf("expected empty collection, got %d records", len(decoded))
	}
}

func TestPcapRoundTrip(t *testing.T) {
	records := sampleRecords()

	var buf bytes.Buffer
	if err := Write(&buf, FormatPcap, records); err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	reader, err := pcapgo.NewReader(&buf)
	if err != nil {
		t.Fatalf("pcap header did not parse: %v", err)
	}
	if reader.LinkType() != layers.LinkTypeEthernet {
		t.Errorf("expected Ethernet link type, got %v", reader.LinkType())
	}

	for i, want := range records {
		data, ci, err := reader.ReadPacketData()
		if err != nil {
			t.Fatalf("packet %d did not parse: %v", i, err)
		}
		if !bytes.Equal(data, want.Raw) {
			t.Errorf("packet %d bytes differ from the original frame", i)
		}
		if ci.Length != want.Length {
			t.Errorf("packet %d: expected wire length %d, got %d", i, want.Length, ci.Length)
		}
		// pcap stores microsecond timestamps.
		if ci.Timestamp.UnixMicro() != want.CapturedAt.UnixMicro() {
			t.Errorf("packet %d: expected timestamp %v, got %v", i, want.CapturedAt, ci.Timestamp)
		}
	}
}

func TestPcapEmptyBuffer(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatPcap, nil); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	reader, err := pcapgo.NewReader(&buf)
	if err != nil {
		t.Fatalf("empty pcap must still carry a valid header: %v", err)
	}
	if _, _, err := reader.ReadPacketData(); err == nil {
		t.Error("expected EOF reading packets from an empty pcap")
	}
}

func TestCSVOutput(t *testing.T) {
	records := sampleRecords()

	var buf bytes.Buffer
	if err := Write(&buf, FormatCSV, records); err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("csv did not parse: %v", err)
	}
	if len(rows) != len(records)+1 {
		t.Fatalf("expected header plus %d rows, got %d", len(records), len(rows))
	}
	if rows[0][0] != "Timestamp" || rows[0][8] != "Summary" {
		t.Errorf("unexpected header: %v", rows[0])
	}

	tcpRow := rows[1]
	if tcpRow[1] != "TCP" || tcpRow[3] != "192.168.1.10" || tcpRow[5] != "52000" || tcpRow[6] != "443" {
		t.Errorf("unexpected TCP row: %v", tcpRow)
	}
	if tcpRow[7] != "Flags: S" {
		t.Errorf("unexpected protocol info: %q", tcpRow[7])
	}
	if !strings.Contains(tcpRow[8], "TCP 192.168.1.10:52000") {
		t.Errorf("unexpected summary: %q", tcpRow[8])
	}

	arpRow := rows[3]
	if arpRow[1] != "ARP" || arpRow[7] != "ARP request" {
		t.Errorf("unexpected ARP row: %v", arpRow)
	}
}

func TestCSVEmptyBuffer(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatCSV, nil); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("csv did not parse: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected only the header row, got %d rows", len(rows))
	}
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"json", "pcap", "csv"} {
		if _, err := ParseFormat(name); err != nil {
			t.Errorf("format %q must parse, got %v", name, err)
		}
	}
	if _, err := ParseFormat("xml"); err != core.ErrUnknownFormat {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestSuggestedFilename(t *testing.T) {
	if got := SuggestedFilename("abc123", FormatPcap); got != "netlens_abc123.pcap" {
		t.Errorf("unexpected filename %q", got)
	}
}
