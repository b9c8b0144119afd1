// Package export encodes capture buffers into interchange formats: JSON for
// lossless re-ingestion, pcap for external analysis tools, CSV for
// spreadsheets.
package export

import (
	"io"

	"netlens.dev/netlens/internal/core"
	"netlens.dev/netlens/internal/metrics"
)

// Format names an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatPcap Format = "pcap"
	FormatCSV  Format = "csv"
)

// ParseFormat validates a format name from config or the control socket.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatJSON, FormatPcap, FormatCSV:
		return Format(name), nil
	default:
		return "", core.ErrUnknownFormat
	}
}

// Extension returns the conventional file extension for f.
func (f Format) Extension() string {
	return string(f)
}

// SuggestedFilename names an export file after its session.
func SuggestedFilename(sessionID string, f Format) string {
	return "netlens_" + sessionID + "." + f.Extension()
}

// Write encodes records to w in the given format. An empty buffer produces
// a valid, empty document in every format.
func Write(w io.Writer, f Format, records []core.PacketRecord) error {
	var err error
	switch f {
	case FormatJSON:
		err = writeJSON(w, records)
	case FormatPcap:
		err = writePcap(w, records)
	case FormatCSV:
		err = writeCSV(w, records)
	default:
		return core.ErrUnknownFormat
	}
	if err == nil {
		metrics.ExportsTotal.WithLabelValues(string(f)).Inc()
	}
	return err
}
