package export

import (
	"fmt"
	"io"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"netlens.dev/netlens/internal/core"
)

// pcapSnapLen is the snapshot length written to the pcap global header.
const pcapSnapLen = 65536

// writePcap encodes records as a classic pcap file readable by tcpdump and
// Wireshark. Records without raw frame bytes are skipped; the classifier
// keeps the original frame precisely so this export stays byte-faithful.
func writePcap(w io.Writer, records []core.PacketRecord) error {
	pw := pcapgo.NewWriter(w)
	if err := pw.WriteFileHeader(pcapSnapLen, layers.LinkTypeEthernet); err != nil {
		return fmt.Errorf("export: write pcap header: %w", err)
	}
	for _, rec := range records {
		if len(rec.Raw) == 0 {
			continue
		}
		length := rec.Length
		if length < len(rec.Raw) {
			length = len(rec.Raw)
		}
		ci := gopacket.CaptureInfo{
			Timestamp:     rec.CapturedAt,
			CaptureLength: len(rec.Raw),
			Length:        length,
		}
		if err := pw.WritePacket(ci, rec.Raw); err != nil {
			return fmt.Errorf("export: write packet %d: %w", rec.Sequence, err)
		}
	}
	return nil
}
