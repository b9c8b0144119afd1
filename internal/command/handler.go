package command

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"netlens.dev/netlens/internal/anomaly"
	"netlens.dev/netlens/internal/export"
	"netlens.dev/netlens/internal/hostinfo"
	"netlens.dev/netlens/internal/metrics"
	"netlens.dev/netlens/internal/session"
	"netlens.dev/netlens/internal/stats"
)

// Version is stamped at build time.
var Version = "dev"

// Handler routes control socket methods onto the session manager and the
// analysis engines.
type Handler struct {
	sessions  *session.Manager
	exportDir string
	startTime time.Time
	shutdown  func()

	mu       sync.RWMutex
	detector *anomaly.Detector
}

// NewHandler creates a Handler. exportDir is where capture.export writes
// files when the caller names no path; empty means the OS temp directory.
func NewHandler(sessions *session.Manager, detector *anomaly.Detector, exportDir string) *Handler {
	if exportDir == "" {
		exportDir = os.TempDir()
	}
	return &Handler{
		sessions:  sessions,
		detector:  detector,
		exportDir: exportDir,
		startTime: time.Now(),
	}
}

// SetShutdownFunc sets the callback invoked by daemon.shutdown.
func (h *Handler) SetShutdownFunc(fn func()) {
	h.shutdown = fn
}

// SetDetector swaps the anomaly detector, typically after a config reload.
func (h *Handler) SetDetector(d *anomaly.Detector) {
	h.mu.Lock()
	h.detector = d
	h.mu.Unlock()
}

// Handle dispatches one request. It never panics outward; every outcome is
// a Response.
func (h *Handler) Handle(req Request) Response {
	slog.Debug("handling request", "method", req.Method)

	result, err := h.dispatch(req)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.RPCRequestsTotal.WithLabelValues(req.Method, outcome).Inc()

	resp := Response{JSONRPC: "2.0", ID: req.ID}
	if err != nil {
		if info, ok := err.(*ErrorInfo); ok {
			resp.Error = info
		} else {
			resp.Error = errorInfoFor(err)
		}
		return resp
	}
	resp.Result = result
	return resp
}

func (h *Handler) dispatch(req Request) (interface{}, error) {
	switch req.Method {
	case "capture.start":
		return h.captureStart(req.Params)
	case "capture.stop":
		return h.sessions.Stop(), nil
	case "capture.status":
		return h.sessions.Status(), nil
	case "capture.packets":
		return h.capturePackets(req.Params)
	case "capture.statistics":
		return h.captureStatistics()
	case "capture.export":
		return h.captureExport(req.Params)
	case "capture.clear":
		if err := h.sessions.Clear(); err != nil {
			return nil, err
		}
		return map[string]bool{"cleared": true}, nil
	case "interfaces.list":
		return h.interfacesList()
	case "daemon.status":
		return h.daemonStatus(), nil
	case "daemon.shutdown":
		if h.shutdown != nil {
			go h.shutdown()
		}
		return map[string]bool{"shutting_down": true}, nil
	case "ping":
		return "pong", nil
	default:
		return nil, &ErrorInfo{
			Code:    ErrCodeMethodNotFound,
			Message: fmt.Sprintf("method %q not found", req.Method),
		}
	}
}

// StartParams are the capture.start parameters.
type StartParams struct {
	Interface string `json:"interface"`
	Count     int    `json:"count,omitempty"`
	Filter    string `json:"filter,omitempty"`
}

func (h *Handler) captureStart(raw json.RawMessage) (interface{}, error) {
	var params StartParams
	if err := unmarshalParams(raw, &params); err != nil {
		return nil, err
	}
	if params.Interface == "" {
		return nil, &ErrorInfo{Code: ErrCodeInvalidParams, Message: "interface is required"}
	}
	if err := hostinfo.Validate(params.Interface); err != nil {
		return nil, err
	}
	return h.sessions.Start(session.Request{
		Interface: params.Interface,
		Count:     params.Count,
		Filter:    params.Filter,
	})
}

// PacketsParams are the capture.packets parameters.
type PacketsParams struct {
	Offset int `json:"offset,omitempty"`
	Limit  int `json:"limit,omitempty"`
}

// PacketsResult pages through the capture buffer.
type PacketsResult struct {
	Total   int         `json:"total"`
	Offset  int         `json:"offset"`
	Packets interface{} `json:"packets"`
}

func (h *Handler) capturePackets(raw json.RawMessage) (interface{}, error) {
	var params PacketsParams
	if err := unmarshalParams(raw, &params); err != nil {
		return nil, err
	}
	if params.Offset < 0 || params.Limit < 0 {
		return nil, &ErrorInfo{Code: ErrCodeInvalidParams, Message: "offset and limit must be non-negative"}
	}
	records := h.sessions.Packets(params.Offset, params.Limit)
	return PacketsResult{
		Total:   h.sessions.Status().PacketCount,
		Offset:  params.Offset,
		Packets: records,
	}, nil
}

// StatisticsResult joins the statistics snapshot with the anomaly report.
type StatisticsResult struct {
	stats.Snapshot
	AnomalyDetection anomaly.Report `json:"anomaly_detection"`
}

func (h *Handler) captureStatistics() (interface{}, error) {
	records := h.sessions.Snapshot()
	h.mu.RLock()
	detector := h.detector
	h.mu.RUnlock()
	return StatisticsResult{
		Snapshot:         stats.Compute(records),
		AnomalyDetection: detector.Detect(records),
	}, nil
}

// ExportParams are the capture.export parameters.
type ExportParams struct {
	Format string `json:"format"`
	// Path overrides the output location; empty uses the export directory
	// and the session-derived filename.
	Path string `json:"path,omitempty"`
}

// ExportResult reports where the encoded buffer was written.
type ExportResult struct {
	Path        string `json:"path"`
	Format      string `json:"format"`
	PacketCount int    `json:"packet_count"`
	Bytes       int64  `json:"bytes"`
}

func (h *Handler) captureExport(raw json.RawMessage) (interface{}, error) {
	var params ExportParams
	if err := unmarshalParams(raw, &params); err != nil {
		return nil, err
	}
	format, err := export.ParseFormat(params.Format)
	if err != nil {
		return nil, err
	}

	path := params.Path
	if path == "" {
		path = filepath.Join(h.exportDir, export.SuggestedFilename(h.sessions.SessionID(), format))
	}

	records := h.sessions.Snapshot()
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create export file: %w", err)
	}
	if err := export.Write(f, format, records); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	slog.Info("buffer exported", "path", path, "format", format, "packets", len(records))
	return ExportResult{
		Path:        path,
		Format:      string(format),
		PacketCount: len(records),
		Bytes:       info.Size(),
	}, nil
}

func (h *Handler) interfacesList() (interface{}, error) {
	ifaces, err := hostinfo.List()
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"interfaces": ifaces}, nil
}

// DaemonStatus is the daemon.status result.
type DaemonStatus struct {
	Version       string         `json:"version"`
	PID           int            `json:"pid"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Session       session.Status `json:"session"`
}

func (h *Handler) daemonStatus() DaemonStatus {
	return DaemonStatus{
		Version:       Version,
		PID:           os.Getpid(),
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Session:       h.sessions.Status(),
	}
}

func unmarshalParams(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &ErrorInfo{
			Code:    ErrCodeInvalidParams,
			Message: fmt.Sprintf("invalid params: %v", err),
		}
	}
	return nil
}
