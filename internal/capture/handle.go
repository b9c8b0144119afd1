// Package capture opens live packet handles on network interfaces. Two
// engines are supported: libpcap (the default) and Linux AF_PACKET with a
// TPacket v3 ring buffer.
package capture

import (
	"fmt"

	"github.com/google/gopacket"
)

// Handle is a live packet source. Reads block for at most the configured
// poll timeout so a reader loop can observe an abort promptly even on a
// silent interface.
type Handle interface {
	// ReadPacketData returns the next frame. It returns core.ErrReadTimeout
	// when the poll timeout expires with no traffic and core.ErrHandleAborted
	// once Abort has been called.
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)

	// Abort makes the current and all future reads return
	// core.ErrHandleAborted. It never blocks and is safe to call from any
	// goroutine, concurrently with a read.
	Abort()

	// Close releases the underlying handle. Only the reading goroutine may
	// call Close, after its read loop has exited.
	Close() error
}

// Options configures a capture handle.
type Options struct {
	Engine       string `mapstructure:"engine"`
	SnapLen      int    `mapstructure:"snap_len"`
	BufferSizeMB int    `mapstructure:"buffer_size_mb"`
	Promiscuous  bool   `mapstructure:"promiscuous"`
	TimeoutMs    int    `mapstructure:"timeout_ms"`
	Filter       string `mapstructure:"bpf_filter"`
}

// DefaultOptions returns the options used when the config file leaves the
// capture section empty.
func DefaultOptions() Options {
	return Options{
		Engine:       "pcap",
		SnapLen:      65535,
		BufferSizeMB: 8,
		Promiscuous:  true,
		TimeoutMs:    200,
	}
}

func (o *Options) applyDefaults() {
	def := DefaultOptions()
	if o.Engine == "" {
		o.Engine = def.Engine
	}
	if o.SnapLen <= 0 {
		o.SnapLen = def.SnapLen
	}
	if o.BufferSizeMB <= 0 {
		o.BufferSizeMB = def.BufferSizeMB
	}
	if o.TimeoutMs <= 0 {
		o.TimeoutMs = def.TimeoutMs
	}
}

// Open opens a live handle on device using the engine named in opts.
func Open(device string, opts Options) (Handle, error) {
	opts.applyDefaults()
	switch opts.Engine {
	case "pcap":
		return openPcap(device, opts)
	case "afpacket":
		return openAfpacket(device, opts)
	default:
		return nil, fmt.Errorf("capture: unknown engine %q", opts.Engine)
	}
}
