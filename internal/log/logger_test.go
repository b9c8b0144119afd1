package log

import (
	"log/slog"
	"path/filepath"
	"testing"

	"netlens.dev/netlens/internal/config"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"DEBUG":   slog.LevelDebug,
	}
	for in, want := range cases {
		got, err := parseLevel(in)
		if err != nil {
			t.Errorf("parseLevel(%q) failed: %v", in, err)
		}
		if got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := parseLevel("verbose"); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

func TestInitRejectsBadFormat(t *testing.T) {
	err := Init(config.LogConfig{Level: "info", Format: "xml"})
	if err == nil {
		t.Error("expected an error for an unsupported format")
	}
}

func TestInitWithFileOutput(t *testing.T) {
	cfg := config.LogConfig{
		Level:  "info",
		Format: "json",
		File: config.FileOutputConfig{
			Enabled:   true,
			Path:      filepath.Join(t.TempDir(), "netlens.log"),
			MaxSizeMB: 1,
		},
	}
	if err := Init(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	slog.Info("logger initialized")
}
