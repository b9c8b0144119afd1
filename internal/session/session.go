// Package session implements capture session lifecycle management.
package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"netlens.dev/netlens/internal/capture"
	"netlens.dev/netlens/internal/classify"
	"netlens.dev/netlens/internal/core"
	"netlens.dev/netlens/internal/metrics"
)

// Opener opens a live capture handle. Production code passes capture.Open;
// tests substitute a fake feed.
type Opener func(device string, opts capture.Options) (capture.Handle, error)

// Request describes one capture run.
type Request struct {
	Interface string
	// Count is the target packet count. Zero means capture until stopped.
	Count int
	// Filter is a tcpdump expression applied on top of the configured one.
	Filter string
}

// Status is a point-in-time view of a session.
type Status struct {
	ID            string            `json:"id"`
	Interface     string            `json:"interface"`
	State         core.SessionState `json:"state"`
	PacketCount   int               `json:"packet_count"`
	TargetCount   int               `json:"target_count,omitempty"`
	Filter        string            `json:"filter,omitempty"`
	StartedAt     time.Time         `json:"started_at"`
	StoppedAt     time.Time         `json:"stopped_at,omitzero"`
	FailureReason string            `json:"failure_reason,omitempty"`
}

// Session owns one capture run: the handle, the reader goroutine and the
// captured records. A Session never restarts; the Manager replaces it.
type Session struct {
	id         string
	device     string
	target     int
	filter     string
	classifier *classify.Classifier
	handle     capture.Handle

	mu        sync.RWMutex
	state     core.SessionState
	records   []core.PacketRecord
	startedAt time.Time
	stoppedAt time.Time
	failure   string

	done chan struct{}
}

// start opens the handle and launches the reader. On open failure no
// goroutine is started and the error is returned to the caller.
func start(req Request, opts capture.Options, open Opener, classifier *classify.Classifier) (*Session, error) {
	if req.Filter != "" {
		opts.Filter = req.Filter
	}
	handle, err := open(req.Interface, opts)
	if err != nil {
		return nil, errors.Join(core.ErrInterfaceUnavailable, err)
	}

	s := &Session{
		id:         uuid.New().String(),
		device:     req.Interface,
		target:     req.Count,
		filter:     opts.Filter,
		classifier: classifier,
		handle:     handle,
		state:      core.StateRunning,
		startedAt:  time.Now(),
		done:       make(chan struct{}),
	}
	slog.Info("capture started",
		"session_id", s.id, "interface", s.device, "target", s.target, "filter", s.filter)

	go s.captureLoop()
	return s, nil
}

// captureLoop is the only reader of the handle and the only writer of
// records. It exits on abort, on reaching the target count, or on a feed
// failure, and is the sole caller of handle.Close.
func (s *Session) captureLoop() {
	defer close(s.done)
	defer s.handle.Close()

	seq := uint64(0)
	for {
		data, ci, err := s.handle.ReadPacketData()
		switch {
		case err == nil:
		case errors.Is(err, core.ErrReadTimeout):
			continue
		case errors.Is(err, core.ErrHandleAborted):
			s.finish("")
			return
		default:
			slog.Error("capture read failed", "session_id", s.id, "error", err)
			s.finish(err.Error())
			return
		}

		capturedAt := ci.Timestamp
		if capturedAt.IsZero() {
			capturedAt = time.Now()
		}
		rec := s.classifier.Classify(data, capturedAt, ci.Length)
		rec.Sequence = seq
		seq++
		metrics.PacketsCaptured.WithLabelValues(rec.Protocol()).Inc()

		s.mu.Lock()
		s.records = append(s.records, rec)
		count := len(s.records)
		s.mu.Unlock()

		if s.target > 0 && count >= s.target {
			s.handle.Abort()
			s.finish("")
			return
		}
	}
}

// finish moves the session to Stopped. Safe to call exactly once, from the
// capture goroutine.
func (s *Session) finish(failure string) {
	s.mu.Lock()
	s.state = core.StateStopped
	s.stoppedAt = time.Now()
	s.failure = failure
	count := len(s.records)
	s.mu.Unlock()
	slog.Info("capture stopped", "session_id", s.id, "packets", count, "failure", failure)
}

// stop issues the abort and returns without waiting for the reader to
// unwind. Idempotent. Callers that need the Stopped state poll Status or
// block on Done.
func (s *Session) stop() {
	s.mu.Lock()
	if s.state == core.StateRunning {
		s.state = core.StateStopping
		slog.Info("capture stopping", "session_id", s.id)
	}
	s.mu.Unlock()

	s.handle.Abort()
}

// Done is closed once the capture goroutine has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

// State returns the current lifecycle state.
func (s *Session) State() core.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Status returns a point-in-time summary.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		ID:            s.id,
		Interface:     s.device,
		State:         s.state,
		PacketCount:   len(s.records),
		TargetCount:   s.target,
		Filter:        s.filter,
		StartedAt:     s.startedAt,
		StoppedAt:     s.stoppedAt,
		FailureReason: s.failure,
	}
}

// Packets returns a copy of up to limit records starting at offset.
// Sequence numbers are dense, so records[i].Sequence == offset+i.
// limit <= 0 means no limit.
func (s *Session) Packets(offset, limit int) []core.PacketRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if offset < 0 || offset >= len(s.records) {
		return nil
	}
	end := len(s.records)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]core.PacketRecord, end-offset)
	copy(out, s.records[offset:])
	return out
}

// Snapshot returns a copy of all records captured so far.
func (s *Session) Snapshot() []core.PacketRecord {
	return s.Packets(0, 0)
}
