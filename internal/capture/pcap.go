package capture

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"

	"netlens.dev/netlens/internal/core"
)

// pcapHandle wraps a libpcap live handle. The poll timeout keeps libpcap
// from buffering packets indefinitely and bounds how long a read can block.
type pcapHandle struct {
	handle  *pcap.Handle
	aborted atomic.Bool
}

func openPcap(device string, opts Options) (Handle, error) {
	h, err := pcap.OpenLive(device, int32(opts.SnapLen), opts.Promiscuous,
		time.Duration(opts.TimeoutMs)*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("capture: open %s: %w", device, err)
	}
	if opts.Filter != "" {
		if err := h.SetBPFFilter(opts.Filter); err != nil {
			h.Close()
			return nil, fmt.Errorf("capture: compile filter %q: %w", opts.Filter, err)
		}
	}
	return &pcapHandle{handle: h}, nil
}

func (p *pcapHandle) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	if p.aborted.Load() {
		return nil, gopacket.CaptureInfo{}, core.ErrHandleAborted
	}
	data, ci, err := p.handle.ReadPacketData()
	if err == pcap.NextErrorTimeoutExpired {
		if p.aborted.Load() {
			return nil, gopacket.CaptureInfo{}, core.ErrHandleAborted
		}
		return nil, gopacket.CaptureInfo{}, core.ErrReadTimeout
	}
	return data, ci, err
}

func (p *pcapHandle) Abort() {
	p.aborted.Store(true)
}

func (p *pcapHandle) Close() error {
	p.handle.Close()
	return nil
}
