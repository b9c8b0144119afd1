// Package daemon implements the netlens daemon process lifecycle.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"netlens.dev/netlens/internal/anomaly"
	"netlens.dev/netlens/internal/capture"
	"netlens.dev/netlens/internal/classify"
	"netlens.dev/netlens/internal/command"
	"netlens.dev/netlens/internal/config"
	logpkg "netlens.dev/netlens/internal/log"
	"netlens.dev/netlens/internal/metrics"
	"netlens.dev/netlens/internal/session"
)

// Daemon owns the capture session manager and the control surfaces built
// around it.
type Daemon struct {
	config     *config.Config
	configPath string
	socketPath string
	pidFile    string

	sessions      *session.Manager
	handler       *command.Handler
	server        *command.Server
	metricsServer *metrics.Server // nil if metrics disabled

	ctx          context.Context
	cancel       context.CancelFunc
	shutdownChan chan struct{}
	sigChan      chan os.Signal
}

// New loads configuration and creates a Daemon. socketPath and pidFile
// override the configured values when non-empty.
func New(configPath, socketPath, pidFile string) (*Daemon, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if socketPath == "" {
		socketPath = cfg.Control.Socket
	}
	if pidFile == "" {
		pidFile = cfg.Control.PIDFile
	}

	d := &Daemon{
		config:       cfg,
		configPath:   configPath,
		socketPath:   socketPath,
		pidFile:      pidFile,
		shutdownChan: make(chan struct{}),
	}
	d.ctx, d.cancel = context.WithCancel(context.Background())
	return d, nil
}

// Start initializes logging and brings up all daemon components.
func (d *Daemon) Start() error {
	if err := d.initLogging(); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	slog.Info("starting netlens daemon",
		"version", command.Version,
		"config", d.configPath,
		"socket", d.socketPath,
	)

	if err := d.writePIDFile(); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}

	if d.config.Metrics.Enabled {
		d.metricsServer = metrics.NewServer(d.config.Metrics.Listen)
		d.metricsServer.Start()
		slog.Info("metrics server started", "addr", d.config.Metrics.Listen)
	}

	services, err := d.config.Classifier.ExtraServices()
	if err != nil {
		return fmt.Errorf("classifier services: %w", err)
	}
	classifier := classify.New(services)

	d.sessions = session.NewManager(d.config.Capture.Options, capture.Open, classifier)
	d.sessions.MaxPackets = d.config.Capture.MaxPackets

	detector := anomaly.New(d.config.Detector)

	d.handler = command.NewHandler(d.sessions, detector, d.config.Control.ExportDir)
	d.handler.SetShutdownFunc(func() {
		slog.Info("shutdown requested over control socket")
		d.TriggerShutdown()
	})

	d.server = command.NewServer(d.socketPath, d.handler)
	go func() {
		if err := d.server.Start(d.ctx); err != nil && err != context.Canceled {
			slog.Error("control server failed", "error", err)
			d.TriggerShutdown()
		}
	}()

	slog.Info("daemon started")
	return nil
}

// Run blocks until shutdown is triggered by SIGTERM or SIGINT, by the
// daemon.shutdown command, or by context cancellation. SIGHUP reloads the
// configuration.
func (d *Daemon) Run() error {
	d.sigChan = make(chan os.Signal, 1)
	signal.Notify(d.sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)

	for {
		select {
		case sig := <-d.sigChan:
			switch sig {
			case syscall.SIGTERM, syscall.SIGINT:
				slog.Info("received shutdown signal", "signal", sig)
				d.Stop()
				return nil
			case syscall.SIGHUP:
				if err := d.Reload(); err != nil {
					slog.Error("config reload failed", "error", err)
				}
			}

		case <-d.shutdownChan:
			d.Stop()
			return nil

		case <-d.ctx.Done():
			d.Stop()
			return d.ctx.Err()
		}
	}
}

// Stop shuts down components in dependency order. Safe to call once.
func (d *Daemon) Stop() {
	slog.Info("initiating graceful shutdown")

	if d.sessions != nil {
		d.sessions.Stop()
		d.sessions.Drain()
	}

	if d.server != nil {
		d.server.Stop()
	}

	if d.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.metricsServer.Stop(ctx); err != nil {
			slog.Error("error stopping metrics server", "error", err)
		}
	}

	d.cancel()

	if d.sigChan != nil {
		signal.Stop(d.sigChan)
	}

	if err := d.removePIDFile(); err != nil {
		slog.Error("error removing pid file", "error", err)
	}

	slog.Info("daemon stopped")
}

// Reload re-reads the configuration file. Log level and format and the
// detector thresholds apply immediately; capture and listener settings
// need a restart.
func (d *Daemon) Reload() error {
	slog.Info("reloading configuration", "path", d.configPath)

	cfg, err := config.Load(d.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	oldLog := d.config.Log
	d.config = cfg
	if cfg.Log != oldLog {
		if err := d.initLogging(); err != nil {
			slog.Error("failed to reinitialize logging", "error", err)
		}
	}
	d.handler.SetDetector(anomaly.New(cfg.Detector))

	slog.Info("configuration reloaded")
	return nil
}

// TriggerShutdown requests a graceful stop. Repeated calls are no-ops.
func (d *Daemon) TriggerShutdown() {
	select {
	case d.shutdownChan <- struct{}{}:
	default:
	}
}

func (d *Daemon) initLogging() error {
	return logpkg.Init(d.config.Log)
}

func (d *Daemon) writePIDFile() error {
	if d.pidFile == "" {
		return nil
	}
	pid := os.Getpid()
	if err := os.WriteFile(d.pidFile, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return err
	}
	slog.Debug("pid file written", "path", d.pidFile, "pid", pid)
	return nil
}

func (d *Daemon) removePIDFile() error {
	if d.pidFile == "" {
		return nil
	}
	if err := os.Remove(d.pidFile); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
