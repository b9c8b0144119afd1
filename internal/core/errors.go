// Package core defines sentinel errors.
package core

import "errors"

var (
	// Session control errors
	ErrAlreadyRunning       = errors.New("netlens: capture already running")
	ErrInterfaceUnavailable = errors.New("netlens: capture interface unavailable")
	ErrSessionBusy          = errors.New("netlens: session busy")

	// Capture handle errors
	ErrHandleAborted = errors.New("netlens: capture handle aborted")
	ErrReadTimeout   = errors.New("netlens: capture read timeout")

	// Frame decoding errors
	ErrPacketTooShort   = errors.New("netlens: packet too short")
	ErrUnsupportedProto = errors.New("netlens: unsupported protocol")

	// Export errors
	ErrUnknownFormat = errors.New("netlens: unknown export format")
)
