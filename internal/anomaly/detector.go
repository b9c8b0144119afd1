// Package anomaly flags suspicious traffic patterns in a capture buffer.
// Detection is a pure function of the buffer and the configured thresholds,
// so the same input always yields the same report.
package anomaly

import (
	"fmt"
	"net/netip"
	"sort"
	"strings"

	"netlens.dev/netlens/internal/classify"
	"netlens.dev/netlens/internal/core"
	"netlens.dev/netlens/internal/metrics"
)

// Thresholds are the tunable detection parameters. Every heuristic compares
// an aggregate against exactly one of these.
type Thresholds struct {
	// PortScanPorts flags a source once it has contacted this many distinct
	// destination ports.
	PortScanPorts int `mapstructure:"port_scan_ports"`
	// SynFloodCount flags a source once its bare-SYN count reaches this.
	SynFloodCount int `mapstructure:"syn_flood_count"`
	// RSTCount flags a source once its RST count exceeds this.
	RSTCount int `mapstructure:"rst_count"`
	// TrafficMultiplier flags a source sending more than this multiple of
	// the mean per-source packet count.
	TrafficMultiplier float64 `mapstructure:"traffic_multiplier"`
	// UnusualPortMinCount is the minimum occurrence count before a port
	// outside the well-known table is reported.
	UnusualPortMinCount int `mapstructure:"unusual_port_min_count"`
}

// DefaultThresholds returns the detection defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PortScanPorts:       15,
		SynFloodCount:       50,
		RSTCount:            10,
		TrafficMultiplier:   3.0,
		UnusualPortMinCount: 3,
	}
}

// suspiciousPorts are ports with a history of malware and backdoor use.
var suspiciousPorts = map[uint16]string{
	1337:  "commonly used by attack tools",
	31337: "commonly used by attack tools",
	4444:  "commonly used by backdoors",
	5555:  "commonly used by backdoors",
	6667:  "IRC, a frequent botnet channel",
	6668:  "IRC, a frequent botnet channel",
	6669:  "IRC, a frequent botnet channel",
	12345: "associated with trojan software",
	54321: "associated with trojan software",
	3127:  "associated with proxy tunnels",
	3128:  "associated with proxy tunnels",
}

// Finding is one heuristic hit. IP is set for per-source findings, Port for
// per-port findings.
type Finding struct {
	IP          string `json:"ip,omitempty"`
	Port        uint16 `json:"port,omitempty"`
	MetricValue int    `json:"metric_value"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

// SuspiciousIP is the combined per-address verdict.
type SuspiciousIP struct {
	IP             string   `json:"ip"`
	Score          int      `json:"suspicion_score"`
	Severity       string   `json:"severity"`
	Reasons        []string `json:"reasons"`
	PacketCount    int      `json:"packet_count"`
	IsPrivate      bool     `json:"is_private"`
	Recommendation string   `json:"recommendation"`
}

// Report is the full detector output for one buffer.
type Report struct {
	PortScanning      []Finding      `json:"port_scanning"`
	SynFlood          []Finding      `json:"syn_flood"`
	UnusualPorts      []Finding      `json:"unusual_ports"`
	HighTrafficIPs    []Finding      `json:"high_traffic_ips"`
	FailedConnections []Finding      `json:"failed_connections"`
	Warnings          []string       `json:"warnings"`
	SuspiciousIPs     []SuspiciousIP `json:"suspicious_ips"`
}

// Detector applies the heuristics with a fixed threshold set.
type Detector struct {
	thresholds Thresholds
}

// New creates a Detector. Non-positive threshold fields fall back to the
// defaults.
func New(t Thresholds) *Detector {
	def := DefaultThresholds()
	if t.PortScanPorts <= 0 {
		t.PortScanPorts = def.PortScanPorts
	}
	if t.SynFloodCount <= 0 {
		t.SynFloodCount = def.SynFloodCount
	}
	if t.RSTCount <= 0 {
		t.RSTCount = def.RSTCount
	}
	if t.TrafficMultiplier <= 0 {
		t.TrafficMultiplier = def.TrafficMultiplier
	}
	if t.UnusualPortMinCount <= 0 {
		t.UnusualPortMinCount = def.UnusualPortMinCount
	}
	return &Detector{thresholds: t}
}

// aggregates are the per-buffer tallies shared by all heuristics.
type aggregates struct {
	srcCounts     map[string]int
	dstCounts     map[string]int
	dstPortCounts map[uint16]int
	srcPorts      map[string]map[uint16]bool
	synCounts     map[string]int
	rstCounts     map[string]int
	srcToSusp     map[string]uint16
}

func tally(records []core.PacketRecord) aggregates {
	agg := aggregates{
		srcCounts:     make(map[string]int),
		dstCounts:     make(map[string]int),
		dstPortCounts: make(map[uint16]int),
		srcPorts:      make(map[string]map[uint16]bool),
		synCounts:     make(map[string]int),
		rstCounts:     make(map[string]int),
		srcToSusp:     make(map[string]uint16),
	}
	for _, rec := range records {
		src := ""
		if a := rec.SrcAddr(); a.IsValid() {
			src = a.String()
			agg.srcCounts[src]++
		}
		if a := rec.DstAddr(); a.IsValid() {
			agg.dstCounts[a.String()]++
		}
		if _, dport, ok := rec.Ports(); ok {
			agg.dstPortCounts[dport]++
			if src != "" && rec.TCP != nil {
				ports := agg.srcPorts[src]
				if ports == nil {
					ports = make(map[uint16]bool)
					agg.srcPorts[src] = ports
				}
				ports[dport] = true
				if _, bad := suspiciousPorts[dport]; bad {
					agg.srcToSusp[src] = dport
				}
			}
		}
		if rec.TCP != nil && src != "" {
			if rec.TCP.Flags == "S" {
				agg.synCounts[src]++
			}
			for _, ch := range rec.TCP.Flags {
				if ch == 'R' {
					agg.rstCounts[src]++
					break
				}
			}
		}
	}
	return agg
}

// Detect runs all heuristics over records and combines per-IP findings into
// suspicion scores.
func (d *Detector) Detect(records []core.PacketRecord) Report {
	agg := tally(records)
	t := d.thresholds

	report := Report{}

	for _, src := range sortedKeys(agg.srcPorts) {
		ports := agg.srcPorts[src]
		if len(ports) >= t.PortScanPorts {
			report.PortScanning = append(report.PortScanning, Finding{
				IP:          src,
				MetricValue: len(ports),
				Severity:    "high",
				Description: fmt.Sprintf("%s contacted %d distinct ports, a likely port scan", src, len(ports)),
			})
		}
	}

	for _, src := range sortedKeys(agg.synCounts) {
		if count := agg.synCounts[src]; count >= t.SynFloodCount {
			report.SynFlood = append(report.SynFlood, Finding{
				IP:          src,
				MetricValue: count,
				Severity:    "high",
				Description: fmt.Sprintf("%s sent %d SYN packets, a possible SYN flood", src, count),
			})
		}
	}

	for _, port := range sortedPorts(agg.dstPortCounts) {
		count := agg.dstPortCounts[port]
		if count < t.UnusualPortMinCount || classify.IsWellKnown(port) {
			continue
		}
		severity := "low"
		reason := "outside the well-known service table"
		if known, bad := suspiciousPorts[port]; bad {
			severity = "medium"
			reason = known
		}
		report.UnusualPorts = append(report.UnusualPorts, Finding{
			Port:        port,
			MetricValue: count,
			Severity:    severity,
			Description: fmt.Sprintf("destination port %d seen %d times, %s", port, count, reason),
		})
	}

	if len(agg.srcCounts) > 0 {
		total := 0
		for _, count := range agg.srcCounts {
			total += count
		}
		mean := float64(total) / float64(len(agg.srcCounts))
		for _, src := range sortedKeys(agg.srcCounts) {
			count := agg.srcCounts[src]
			if float64(count) > mean*t.TrafficMultiplier {
				report.HighTrafficIPs = append(report.HighTrafficIPs, Finding{
					IP:          src,
					MetricValue: count,
					Severity:    "medium",
					Description: fmt.Sprintf("%s sent %d packets, %.1f times the per-source mean", src, count, float64(count)/mean),
				})
			}
		}
	}

	for _, src := range sortedKeys(agg.rstCounts) {
		if count := agg.rstCounts[src]; count > t.RSTCount {
			report.FailedConnections = append(report.FailedConnections, Finding{
				IP:          src,
				MetricValue: count,
				Severity:    "low",
				Description: fmt.Sprintf("%s had %d failed connections (RST packets)", src, count),
			})
		}
	}

	totalFindings := len(report.PortScanning) + len(report.SynFlood) +
		len(report.UnusualPorts) + len(report.HighTrafficIPs)
	if totalFindings > 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("%d unusual traffic patterns detected, review the findings and firewall rules", totalFindings))
	}

	report.SuspiciousIPs = d.scoreIPs(records, agg, &report)

	for category, findings := range map[string][]Finding{
		"port_scanning":      report.PortScanning,
		"syn_flood":          report.SynFlood,
		"unusual_ports":      report.UnusualPorts,
		"high_traffic_ips":   report.HighTrafficIPs,
		"failed_connections": report.FailedConnections,
	} {
		if len(findings) > 0 {
			metrics.AnomalyFindings.WithLabelValues(category).Add(float64(len(findings)))
		}
	}
	return report
}

const suspiciousIPLimit = 20

// scoreIPs combines the heuristics into a 0-10 suspicion score per address.
// Only addresses scoring at least 3 are reported.
func (d *Detector) scoreIPs(records []core.PacketRecord, agg aggregates, report *Report) []SuspiciousIP {
	flagged := func(findings []Finding) map[string]bool {
		m := make(map[string]bool, len(findings))
		for _, f := range findings {
			m[f.IP] = true
		}
		return m
	}
	scanners := flagged(report.PortScanning)
	flooders := flagged(report.SynFlood)
	heavy := flagged(report.HighTrafficIPs)
	failers := flagged(report.FailedConnections)

	all := make(map[string]netip.Addr)
	for _, rec := range records {
		if a := rec.SrcAddr(); a.IsValid() {
			all[a.String()] = a
		}
		if a := rec.DstAddr(); a.IsValid() {
			all[a.String()] = a
		}
	}

	var out []SuspiciousIP
	for _, ip := range sortedKeys(all) {
		addr := all[ip]
		isPrivate := addr.IsPrivate() || addr.IsLoopback()

		score := 0
		var reasons []string

		if scanners[ip] {
			score += 4
			reasons = append(reasons, "port scanning behavior")
		}
		if flooders[ip] {
			score += 4
			reasons = append(reasons, "SYN flood behavior")
		}
		if !isPrivate && agg.srcCounts[ip] > 50 {
			score += 3
			reasons = append(reasons, "high traffic from an external address")
		} else if heavy[ip] {
			score += 2
			reasons = append(reasons, "well above the per-source mean traffic")
		}
		if port, bad := agg.srcToSusp[ip]; bad {
			score += 4
			reasons = append(reasons, fmt.Sprintf("connected to suspicious port %d", port))
		}
		if failers[ip] {
			score += 2
			reasons = append(reasons, fmt.Sprintf("%d failed connections", agg.rstCounts[ip]))
		}

		switch {
		case addr.Is4() && addr.As4()[0] == 0:
			score += 5
			reasons = append(reasons, "invalid address range")
		case addr.Is4() && addr.IsLinkLocalUnicast():
			score += 2
			reasons = append(reasons, "link-local address, automatic assignment failed")
		case addr.IsMulticast():
			score++
			reasons = append(reasons, "multicast address")
		}

		if score < 3 {
			continue
		}
		if score > 10 {
			score = 10
		}
		out = append(out, SuspiciousIP{
			IP:             ip,
			Score:          score,
			Severity:       severityFor(score),
			Reasons:        reasons,
			PacketCount:    agg.srcCounts[ip] + agg.dstCounts[ip],
			IsPrivate:      isPrivate,
			Recommendation: recommendationFor(score, reasons),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].IP < out[j].IP
	})
	if len(out) > suspiciousIPLimit {
		out = out[:suspiciousIPLimit]
	}
	return out
}

func severityFor(score int) string {
	switch {
	case score >= 7:
		return "high"
	case score >= 5:
		return "medium"
	default:
		return "low"
	}
}

func recommendationFor(score int, reasons []string) string {
	switch {
	case score >= 7:
		return "high risk: consider blocking this address at the firewall"
	case score >= 5:
		return "medium risk: keep monitoring and intervene on further suspicious activity"
	}
	for _, r := range reasons {
		if r == "port scanning behavior" || strings.HasPrefix(r, "connected to suspicious port") {
			return "caution: suspicious port activity detected, inspect the traffic"
		}
	}
	return "watch: unusual traffic pattern observed"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedPorts(m map[uint16]int) []uint16 {
	ports := make([]uint16, 0, len(m))
	for p := range m {
		ports = append(ports, p)
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i] < ports[j] })
	return ports
}
