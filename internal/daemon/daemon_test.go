package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netlens.dev/netlens/internal/command"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDaemonLifecycle(t *testing.T) {
	dir := t.TempDir()
	socket := filepath.Join(dir, "netlens.sock")
	pidFile := filepath.Join(dir, "netlens.pid")
	cfgPath := writeConfig(t, "netlens:\n  log:\n    level: error\n    format: text\n")

	d, err := New(cfgPath, socket, pidFile)
	require.NoError(t, err)
	require.NoError(t, d.Start())

	runDone := make(chan error, 1)
	go func() { runDone <- d.Run() }()

	client := command.NewClient(socket, 2*time.Second)
	require.Eventually(t, func() bool {
		return client.Ping(context.Background()) == nil
	}, 2*time.Second, 20*time.Millisecond)

	data, err := os.ReadFile(pidFile)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	var status command.DaemonStatus
	require.NoError(t, client.CallInto(context.Background(), "daemon.status", nil, &status))
	assert.Equal(t, os.Getpid(), status.PID)

	d.TriggerShutdown()
	select {
	case err := <-runDone:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("daemon did not shut down")
	}

	_, statErr := os.Stat(pidFile)
	assert.True(t, os.IsNotExist(statErr), "pid file must be removed")
}

func TestDaemonShutdownViaCommand(t *testing.T) {
	dir := t.TempDir()
	socket := filepath.Join(dir, "netlens.sock")
	cfgPath := writeConfig(t, "netlens:\n  log:\n    level: error\n    format: text\n")

	d, err := New(cfgPath, socket, "")
	require.NoError(t, err)
	require.NoError(t, d.Start())

	runDone := make(chan error, 1)
	go func() { runDone <- d.Run() }()

	client := command.NewClient(socket, 2*time.Second)
	require.Eventually(t, func() bool {
		return client.Ping(context.Background()) == nil
	}, 2*time.Second, 20*time.Millisecond)

	// The connection may drop before the response arrives, so only the
	// resulting shutdown is asserted.
	client.Call(context.Background(), "daemon.shutdown", nil)

	select {
	case err := <-runDone:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("daemon did not shut down")
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfgPath := writeConfig(t, "netlens:\n  log:\n    level: noisy\n")

	_, err := New(cfgPath, "", "")
	assert.Error(t, err)
}

func TestReloadSwapsDetector(t *testing.T) {
	dir := t.TempDir()
	socket := filepath.Join(dir, "netlens.sock")
	cfgPath := writeConfig(t, "netlens:\n  log:\n    level: error\n    format: text\n")

	d, err := New(cfgPath, socket, "")
	require.NoError(t, err)
	require.NoError(t, d.Start())
	defer d.Stop()

	require.NoError(t, os.WriteFile(cfgPath, []byte(
		"netlens:\n  log:\n    level: error\n    format: text\n  detector:\n    port_scan_ports: 5\n"), 0644))
	require.NoError(t, d.Reload())
	assert.Equal(t, 5, d.config.Detector.PortScanPorts)
}
