package session

import (
	"sync"
	"time"

	"netlens.dev/netlens/internal/capture"
	"netlens.dev/netlens/internal/classify"
	"netlens.dev/netlens/internal/core"
	"netlens.dev/netlens/internal/metrics"
)

// Manager serializes session lifecycle operations. At most one session
// exists at a time; a finished session keeps its buffer readable until the
// next Start or an explicit Clear.
type Manager struct {
	opts       capture.Options
	open       Opener
	classifier *classify.Classifier

	// MaxPackets caps the buffer of any session. Zero means no cap.
	MaxPackets int

	mu      sync.Mutex
	current *Session
}

// NewManager creates a Manager. open is usually capture.Open.
func NewManager(opts capture.Options, open Opener, classifier *classify.Classifier) *Manager {
	return &Manager{opts: opts, open: open, classifier: classifier}
}

// Start begins a new capture. It fails with core.ErrAlreadyRunning while a
// session is still running or stopping; a stopped session's buffer is
// discarded and replaced.
func (m *Manager) Start(req Request) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		switch m.current.State() {
		case core.StateRunning, core.StateStopping:
			return Status{}, core.ErrAlreadyRunning
		}
	}

	// Negative counts mean the same as zero: capture until stopped.
	if req.Count < 0 {
		req.Count = 0
	}
	if m.MaxPackets > 0 && (req.Count == 0 || req.Count > m.MaxPackets) {
		req.Count = m.MaxPackets
	}

	s, err := start(req, m.opts, m.open, m.classifier)
	if err != nil {
		return Status{}, err
	}
	m.current = s
	metrics.SessionsStarted.Inc()
	metrics.SessionActive.Set(1)

	go func() {
		<-s.Done()
		metrics.SessionActive.Set(0)
	}()

	return s.Status(), nil
}

// Stop aborts the running session and returns its status, usually still
// Stopping. It never blocks on the capture loop; the session reaches
// Stopped within one poll timeout even on a silent interface. Stop is
// idempotent all the way down: stopping an already stopped session, or
// stopping when no session ever ran, reports the current state instead of
// failing.
func (m *Manager) Stop() Status {
	m.mu.Lock()
	s := m.current
	m.mu.Unlock()

	if s == nil {
		return Status{State: core.StateIdle}
	}
	s.stop()
	return s.Status()
}

// Drain blocks until the current session's capture goroutine has exited.
// No-op when no session exists.
func (m *Manager) Drain() {
	m.mu.Lock()
	s := m.current
	m.mu.Unlock()

	if s != nil {
		<-s.done
	}
}

// Status reports the current session, or an idle placeholder if none
// exists.
func (m *Manager) Status() Status {
	m.mu.Lock()
	s := m.current
	m.mu.Unlock()

	if s == nil {
		return Status{State: core.StateIdle}
	}
	return s.Status()
}

// Packets returns records from the current session's buffer.
func (m *Manager) Packets(offset, limit int) []core.PacketRecord {
	m.mu.Lock()
	s := m.current
	m.mu.Unlock()

	if s == nil {
		return nil
	}
	return s.Packets(offset, limit)
}

// Snapshot returns all buffered records.
func (m *Manager) Snapshot() []core.PacketRecord {
	return m.Packets(0, 0)
}

// SessionID returns the current session's identifier, or a timestamp-based
// placeholder when no session exists.
func (m *Manager) SessionID() string {
	m.mu.Lock()
	s := m.current
	m.mu.Unlock()

	if s == nil {
		return time.Now().UTC().Format("20060102-150405")
	}
	return s.id
}

// Clear discards the buffer of a finished session. It fails with
// core.ErrSessionBusy while a capture is still in progress.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil
	}
	switch m.current.State() {
	case core.StateRunning, core.StateStopping:
		return core.ErrSessionBusy
	}
	m.current = nil
	return nil
}
