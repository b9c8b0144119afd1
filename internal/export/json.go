package export

import (
	"encoding/json"
	"io"

	"netlens.dev/netlens/internal/core"
)

// writeJSON encodes records as a JSON array. The encoding is lossless: every
// field of every record survives a round trip through ReadJSON.
func writeJSON(w io.Writer, records []core.PacketRecord) error {
	if records == nil {
		records = []core.PacketRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// ReadJSON decodes a buffer previously written by the JSON exporter.
func ReadJSON(r io.Reader) ([]core.PacketRecord, error) {
	var records []core.PacketRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, err
	}
	return records, nil
}
