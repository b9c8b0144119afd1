// Package config handles configuration loading using viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"netlens.dev/netlens/internal/anomaly"
	"netlens.dev/netlens/internal/capture"
)

// Config is the top-level configuration. Maps to the `netlens:` root key in
// YAML; env vars use the NETLENS_ prefix (e.g. NETLENS_LOG_LEVEL).
type Config struct {
	Control    ControlConfig      `mapstructure:"control"`
	Capture    CaptureConfig      `mapstructure:"capture"`
	Classifier ClassifierConfig   `mapstructure:"classifier"`
	Detector   anomaly.Thresholds `mapstructure:"detector"`
	Metrics    MetricsConfig      `mapstructure:"metrics"`
	Log        LogConfig          `mapstructure:"log"`
}

// ControlConfig contains local control plane settings.
type ControlConfig struct {
	Socket  string `mapstructure:"socket"`
	PIDFile string `mapstructure:"pid_file"`
	// ExportDir is where capture.export writes when the caller gives no
	// path. Empty means the OS temp directory.
	ExportDir string `mapstructure:"export_dir"`
}

// CaptureConfig contains capture engine settings plus the buffer safety
// ceiling applied to unbounded sessions.
type CaptureConfig struct {
	capture.Options `mapstructure:",squash"`
	MaxPackets      int `mapstructure:"max_packets"`
}

// ClassifierConfig extends the built-in service table.
type ClassifierConfig struct {
	// Services maps additional port numbers to service names. Keys are
	// strings because they arrive from YAML.
	Services map[string]string `mapstructure:"services"`
}

// ExtraServices converts the configured service table to port keys.
func (c ClassifierConfig) ExtraServices() (map[uint16]string, error) {
	if len(c.Services) == 0 {
		return nil, nil
	}
	out := make(map[uint16]string, len(c.Services))
	for key, name := range c.Services {
		port, err := strconv.ParseUint(key, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("classifier.services: invalid port %q", key)
		}
		out[uint16(port)] = name
	}
	return out, nil
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string           `mapstructure:"level"`  // debug / info / warn / error
	Format string           `mapstructure:"format"` // json / text
	File   FileOutputConfig `mapstructure:"file"`
}

// FileOutputConfig configures rotated file log output.
type FileOutputConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// configRoot is the wrapper matching the YAML structure `netlens: ...`.
type configRoot struct {
	Netlens Config `mapstructure:"netlens"`
}

// Load reads configuration from path. A missing file is not an error; the
// defaults then apply, still subject to env overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	// The `netlens.` key prefix maps to NETLENS_ env vars via the key
	// replacer, e.g. "netlens.log.level" becomes NETLENS_LOG_LEVEL.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg := root.Netlens

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("netlens.control.socket", "/var/run/netlens.sock")
	v.SetDefault("netlens.control.pid_file", "/var/run/netlens.pid")
	v.SetDefault("netlens.control.export_dir", "")

	v.SetDefault("netlens.capture.engine", "pcap")
	v.SetDefault("netlens.capture.snap_len", 65535)
	v.SetDefault("netlens.capture.buffer_size_mb", 8)
	v.SetDefault("netlens.capture.promiscuous", true)
	v.SetDefault("netlens.capture.timeout_ms", 200)
	v.SetDefault("netlens.capture.max_packets", 100000)

	v.SetDefault("netlens.detector.port_scan_ports", 15)
	v.SetDefault("netlens.detector.syn_flood_count", 50)
	v.SetDefault("netlens.detector.rst_count", 10)
	v.SetDefault("netlens.detector.traffic_multiplier", 3.0)
	v.SetDefault("netlens.detector.unusual_port_min_count", 3)

	v.SetDefault("netlens.metrics.enabled", false)
	v.SetDefault("netlens.metrics.listen", ":9341")

	v.SetDefault("netlens.log.level", "info")
	v.SetDefault("netlens.log.format", "json")
	v.SetDefault("netlens.log.file.enabled", false)
	v.SetDefault("netlens.log.file.path", "/var/log/netlens/netlens.log")
	v.SetDefault("netlens.log.file.max_size_mb", 100)
	v.SetDefault("netlens.log.file.max_age_days", 30)
	v.SetDefault("netlens.log.file.max_backups", 5)
	v.SetDefault("netlens.log.file.compress", true)
}

func (cfg *Config) validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug/info/warn/error)", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return fmt.Errorf("invalid log format: %s (must be json/text)", cfg.Log.Format)
	}
	switch cfg.Capture.Engine {
	case "pcap", "afpacket":
	default:
		return fmt.Errorf("invalid capture engine: %s (must be pcap/afpacket)", cfg.Capture.Engine)
	}
	if cfg.Capture.MaxPackets <= 0 {
		return fmt.Errorf("capture.max_packets must be positive")
	}
	if _, err := cfg.Classifier.ExtraServices(); err != nil {
		return err
	}
	return nil
}
