// Package stats aggregates captured packet records into a statistics
// snapshot. Computation is a pure function of the buffer, so the same
// records always produce the same snapshot.
package stats

import (
	"sort"
	"time"

	"netlens.dev/netlens/internal/core"
)

const (
	topPortLimit   = 20
	topIPLimit     = 10
	topTalkerLimit = 10
)

// encryptedPorts and cleartextPorts drive the security summary. The split
// follows common service defaults; traffic to other ports is counted in
// neither bucket.
var (
	encryptedPorts = map[uint16]bool{443: true, 22: true, 993: true, 995: true}
	cleartextPorts = map[uint16]bool{80: true, 21: true, 23: true, 110: true}
)

// PortCount is one entry of the port frequency table.
type PortCount struct {
	Port  uint16 `json:"port"`
	Count int    `json:"count"`
}

// IPCount is one entry of an address frequency table.
type IPCount struct {
	IP    string `json:"ip"`
	Count int    `json:"count"`
}

// Talker ranks a source address by bytes sent.
type Talker struct {
	IP      string `json:"ip"`
	Bytes   int    `json:"bytes"`
	Packets int    `json:"packets"`
}

// IPStats summarizes address usage.
type IPStats struct {
	UniqueSrcIPs int       `json:"unique_src_ips"`
	UniqueDstIPs int       `json:"unique_dst_ips"`
	TopSrcIPs    []IPCount `json:"top_src_ips"`
	TopDstIPs    []IPCount `json:"top_dst_ips"`
}

// SizeStats summarizes packet sizes. Distribution buckets packets into the
// ranges 0-100, 101-500, 501-1000, 1001-1500 and 1501+ bytes.
type SizeStats struct {
	Min          int            `json:"min"`
	Max          int            `json:"max"`
	Average      float64        `json:"average"`
	TotalBytes   int            `json:"total_bytes"`
	Distribution map[string]int `json:"size_distribution"`
}

// TimeStats summarizes the capture window. Duration spans the earliest to
// the latest timestamp regardless of record order.
type TimeStats struct {
	DurationSeconds  float64   `json:"duration_seconds"`
	PacketsPerSecond float64   `json:"packets_per_second"`
	StartTime        time.Time `json:"start_time,omitzero"`
	EndTime          time.Time `json:"end_time,omitzero"`
}

// SecurityStats counts packets by transport security and importance.
type SecurityStats struct {
	EncryptedPackets   int `json:"encrypted_packets"`
	UnencryptedPackets int `json:"unencrypted_packets"`
	HighImportance     int `json:"high_importance"`
	MediumImportance   int `json:"medium_importance"`
	LowImportance      int `json:"low_importance"`
}

// Snapshot is the full statistics view of one capture buffer.
type Snapshot struct {
	TotalPackets         int            `json:"total_packets"`
	ProtocolDistribution map[string]int `json:"protocol_distribution"`
	TopPorts             []PortCount    `json:"top_ports"`
	IPStatistics         IPStats        `json:"ip_statistics"`
	PacketSizes          SizeStats      `json:"packet_size_stats"`
	TimeAnalysis         TimeStats      `json:"time_analysis"`
	TopTalkers           []Talker       `json:"top_talkers"`
	Security             SecurityStats  `json:"security_analysis"`
	TCPFlags             map[string]int `json:"tcp_flags"`
}

// Compute builds a Snapshot from records. An empty buffer yields a zero
// snapshot with allocated maps so encoders never see nil.
func Compute(records []core.PacketRecord) Snapshot {
	snap := Snapshot{
		TotalPackets:         len(records),
		ProtocolDistribution: make(map[string]int),
		TCPFlags:             make(map[string]int),
		PacketSizes:          SizeStats{Distribution: newSizeBuckets()},
	}
	if len(records) == 0 {
		return snap
	}

	portCounts := make(map[uint16]int)
	srcCounts := make(map[string]int)
	dstCounts := make(map[string]int)
	srcBytes := make(map[string]int)

	first := records[0].CapturedAt
	last := records[0].CapturedAt
	minSize := records[0].Length
	maxSize := records[0].Length

	for _, rec := range records {
		snap.ProtocolDistribution[rec.Protocol()]++

		if port, ok := rec.ServicePort(); ok {
			portCounts[port]++
		}

		if src := rec.SrcAddr(); src.IsValid() {
			srcCounts[src.String()]++
			srcBytes[src.String()] += rec.Length
		}
		if dst := rec.DstAddr(); dst.IsValid() {
			dstCounts[dst.String()]++
		}

		snap.PacketSizes.TotalBytes += rec.Length
		if rec.Length < minSize {
			minSize = rec.Length
		}
		if rec.Length > maxSize {
			maxSize = rec.Length
		}
		snap.PacketSizes.Distribution[sizeBucket(rec.Length)]++

		if rec.CapturedAt.Before(first) {
			first = rec.CapturedAt
		}
		if rec.CapturedAt.After(last) {
			last = rec.CapturedAt
		}

		if rec.TCP != nil {
			snap.TCPFlags[rec.TCP.Flags]++
			if encryptedPorts[rec.TCP.DstPort] {
				snap.Security.EncryptedPackets++
			} else if cleartextPorts[rec.TCP.DstPort] {
				snap.Security.UnencryptedPackets++
			}
		}

		switch rec.Importance {
		case core.ImportanceHigh:
			snap.Security.HighImportance++
		case core.ImportanceMedium:
			snap.Security.MediumImportance++
		default:
			snap.Security.LowImportance++
		}
	}

	snap.PacketSizes.Min = minSize
	snap.PacketSizes.Max = maxSize
	snap.PacketSizes.Average = float64(snap.PacketSizes.TotalBytes) / float64(len(records))

	duration := last.Sub(first).Seconds()
	snap.TimeAnalysis = TimeStats{
		DurationSeconds: duration,
		StartTime:       first,
		EndTime:         last,
	}
	if duration > 0 {
		snap.TimeAnalysis.PacketsPerSecond = float64(len(records)) / duration
	}

	snap.TopPorts = topPorts(portCounts, topPortLimit)
	snap.IPStatistics = IPStats{
		UniqueSrcIPs: len(srcCounts),
		UniqueDstIPs: len(dstCounts),
		TopSrcIPs:    topIPs(srcCounts, topIPLimit),
		TopDstIPs:    topIPs(dstCounts, topIPLimit),
	}
	snap.TopTalkers = topTalkers(srcBytes, srcCounts, topTalkerLimit)
	return snap
}

func newSizeBuckets() map[string]int {
	return map[string]int{
		"0-100":     0,
		"101-500":   0,
		"501-1000":  0,
		"1001-1500": 0,
		"1501+":     0,
	}
}

func sizeBucket(size int) string {
	switch {
	case size <= 100:
		return "0-100"
	case size <= 500:
		return "101-500"
	case size <= 1000:
		return "501-1000"
	case size <= 1500:
		return "1001-1500"
	default:
		return "1501+"
	}
}

// topPorts ranks ports by count, breaking ties toward the smaller port so
// the output is stable across runs.
func topPorts(counts map[uint16]int, limit int) []PortCount {
	out := make([]PortCount, 0, len(counts))
	for port, count := range counts {
		out = append(out, PortCount{Port: port, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Port < out[j].Port
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// topIPs ranks addresses by count, breaking ties lexicographically.
func topIPs(counts map[string]int, limit int) []IPCount {
	out := make([]IPCount, 0, len(counts))
	for ip, count := range counts {
		out = append(out, IPCount{IP: ip, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].IP < out[j].IP
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func topTalkers(bytes, packets map[string]int, limit int) []Talker {
	out := make([]Talker, 0, len(bytes))
	for ip, b := range bytes {
		out = append(out, Talker{IP: ip, Bytes: b, Packets: packets[ip]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Bytes != out[j].Bytes {
			return out[i].Bytes > out[j].Bytes
		}
		return out[i].IP < out[j].IP
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
