package core

// SessionState represents the capture session lifecycle state.
type SessionState string

const (
	// StateIdle indicates no capture has run yet.
	StateIdle SessionState = "idle"
	// StateRunning indicates the capture goroutine is reading the feed.
	StateRunning SessionState = "running"
	// StateStopping indicates the abort signal was issued and the capture
	// goroutine has not yet unwound.
	StateStopping SessionState = "stopping"
	// StateStopped indicates the capture goroutine has exited and the
	// buffer is frozen.
	StateStopped SessionState = "stopped"
)
