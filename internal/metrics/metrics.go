// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsStarted counts capture sessions started since daemon start.
	SessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "netlens_sessions_started_total",
			Help: "Total number of capture sessions started",
		},
	)

	// SessionActive is 1 while a capture session is running.
	SessionActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "netlens_session_active",
			Help: "Whether a capture session is currently running (0 or 1)",
		},
	)

	// PacketsCaptured counts packets classified and buffered, by protocol.
	PacketsCaptured = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netlens_packets_captured_total",
			Help: "Total number of packets captured and classified",
		},
		[]string{"protocol"},
	)

	// ExportsTotal counts buffer exports by format.
	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netlens_exports_total",
			Help: "Total number of buffer exports",
		},
		[]string{"format"},
	)

	// RPCRequestsTotal counts control socket requests by method and outcome.
	RPCRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netlens_rpc_requests_total",
			Help: "Total number of control socket requests",
		},
		[]string{"method", "outcome"},
	)

	// AnomalyFindings counts anomaly detector findings by category.
	AnomalyFindings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netlens_anomaly_findings_total",
			Help: "Total number of anomaly findings reported",
		},
		[]string{"category"},
	)
)
