package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "netlens: {}\n"))
	require.NoError(t, err)

	assert.Equal(t, "/var/run/netlens.sock", cfg.Control.Socket)
	assert.Equal(t, "pcap", cfg.Capture.Engine)
	assert.Equal(t, 65535, cfg.Capture.SnapLen)
	assert.Equal(t, 200, cfg.Capture.TimeoutMs)
	assert.Equal(t, 100000, cfg.Capture.MaxPackets)
	assert.Equal(t, 15, cfg.Detector.PortScanPorts)
	assert.Equal(t, 50, cfg.Detector.SynFloodCount)
	assert.Equal(t, 3.0, cfg.Detector.TrafficMultiplier)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
netlens:
  control:
    socket: /tmp/test.sock
  capture:
    engine: afpacket
    snap_len: 256
    bpf_filter: "tcp port 443"
  detector:
    port_scan_ports: 5
  classifier:
    services:
      "9999": Custom-App
  log:
    level: debug
    format: text
`))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test.sock", cfg.Control.Socket)
	assert.Equal(t, "afpacket", cfg.Capture.Engine)
	assert.Equal(t, 256, cfg.Capture.SnapLen)
	assert.Equal(t, "tcp port 443", cfg.Capture.Filter)
	assert.Equal(t, 5, cfg.Detector.PortScanPorts)
	assert.Equal(t, "debug", cfg.Log.Level)

	services, err := cfg.Classifier.ExtraServices()
	require.NoError(t, err)
	assert.Equal(t, "Custom-App", services[9999])
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	assert.Equal(t, "pcap", cfg.Capture.Engine)
}

func TestLoadRejectsBadValues(t *testing.T) {
	_, err := Load(writeConfig(t, "netlens:\n  log:\n    level: noisy\n"))
	assert.ErrorContains(t, err, "invalid log level")

	_, err = Load(writeConfig(t, "netlens:\n  capture:\n    engine: dpdk\n"))
	assert.ErrorContains(t, err, "invalid capture engine")

	_, err = Load(writeConfig(t, "netlens:\n  classifier:\n    services:\n      \"99999\": Too-Big\n"))
	assert.ErrorContains(t, err, "invalid port")
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("NETLENS_LOG_LEVEL", "warn")
	cfg, err := Load(writeConfig(t, "netlens: {}\n"))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}
