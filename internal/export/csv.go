package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"netlens.dev/netlens/internal/core"
)

var csvHeader = []string{
	"Timestamp", "Type", "Length", "Source IP", "Destination IP",
	"Source Port", "Destination Port", "Protocol Info", "Summary",
}

// writeCSV encodes records as RFC 4180 CSV with a header row. Fields
// containing commas or quotes are quoted by the encoder.
func writeCSV(w io.Writer, records []core.PacketRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("export: write csv header: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(csvRow(&rec)); err != nil {
			return fmt.Errorf("export: write csv row %d: %w", rec.Sequence, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(rec *core.PacketRecord) []string {
	row := make([]string, len(csvHeader))
	row[0] = rec.CapturedAt.Format(time.RFC3339Nano)
	row[1] = rec.Protocol()
	row[2] = strconv.Itoa(rec.Length)
	if src := rec.SrcAddr(); src.IsValid() {
		row[3] = src.String()
	}
	if dst := rec.DstAddr(); dst.IsValid() {
		row[4] = dst.String()
	}
	switch {
	case rec.TCP != nil:
		row[5] = strconv.Itoa(int(rec.TCP.SrcPort))
		row[6] = strconv.Itoa(int(rec.TCP.DstPort))
		row[7] = "Flags: " + rec.TCP.Flags
	case rec.UDP != nil:
		row[5] = strconv.Itoa(int(rec.UDP.SrcPort))
		row[6] = strconv.Itoa(int(rec.UDP.DstPort))
	case rec.ICMP != nil:
		row[7] = fmt.Sprintf("Type: %d, Code: %d", rec.ICMP.Type, rec.ICMP.Code)
	case rec.ARP != nil:
		if rec.ARP.Op == 1 {
			row[7] = "ARP request"
		} else {
			row[7] = "ARP reply"
		}
	}
	row[8] = summary(rec)
	return row
}

// summary is the one-line human description used in the last CSV column.
func summary(rec *core.PacketRecord) string {
	src, dst := rec.SrcAddr(), rec.DstAddr()
	switch {
	case rec.TCP != nil:
		return fmt.Sprintf("TCP %s:%d > %s:%d [%s]",
			src, rec.TCP.SrcPort, dst, rec.TCP.DstPort, rec.TCP.Flags)
	case rec.UDP != nil:
		return fmt.Sprintf("UDP %s:%d > %s:%d",
			src, rec.UDP.SrcPort, dst, rec.UDP.DstPort)
	case rec.ICMP != nil:
		return fmt.Sprintf("ICMP %s > %s type=%d", src, dst, rec.ICMP.Type)
	case rec.ARP != nil:
		if rec.ARP.Op == 1 {
			return fmt.Sprintf("ARP who-has %s tell %s", dst, src)
		}
		return fmt.Sprintf("ARP %s is-at %s", src, rec.ARP.SenderMAC)
	default:
		return fmt.Sprintf("frame of %d bytes", rec.Length)
	}
}
