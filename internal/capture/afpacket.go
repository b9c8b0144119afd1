package capture

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/google/gopacket"
	"github.com/google/gopacket/afpacket"

	"netlens.dev/netlens/internal/core"
)

// afpacketHandle wraps an AF_PACKET TPacket v3 ring buffer. The poll
// timeout bounds blocking reads the same way the pcap engine's does.
type afpacketHandle struct {
	handle  *afpacket.TPacket
	aborted atomic.Bool
}

func openAfpacket(device string, opts Options) (Handle, error) {
	frameSize, blockSize, numBlocks, err := ringSizes(opts.BufferSizeMB, opts.SnapLen, os.Getpagesize())
	if err != nil {
		return nil, fmt.Errorf("capture: size ring buffer: %w", err)
	}

	tp, err := afpacket.NewTPacket(
		afpacket.OptInterface(device),
		afpacket.OptFrameSize(frameSize),
		afpacket.OptBlockSize(blockSize),
		afpacket.OptNumBlocks(numBlocks),
		afpacket.OptPollTimeout(pollTimeout(opts.TimeoutMs)),
		afpacket.SocketRaw,
		afpacket.TPacketVersion3,
	)
	if err != nil {
		return nil, fmt.Errorf("capture: open %s: %w", device, err)
	}

	if opts.Filter != "" {
		raw, err := compileFilter(opts.Filter, opts.SnapLen)
		if err != nil {
			tp.Close()
			return nil, err
		}
		if err := tp.SetBPF(raw); err != nil {
			tp.Close()
			return nil, fmt.Errorf("capture: attach filter: %w", err)
		}
	}

	return &afpacketHandle{handle: tp}, nil
}

func (a *afpacketHandle) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	if a.aborted.Load() {
		return nil, gopacket.CaptureInfo{}, core.ErrHandleAborted
	}
	data, ci, err := a.handle.ReadPacketData()
	if errors.Is(err, afpacket.ErrTimeout) {
		if a.aborted.Load() {
			return nil, gopacket.CaptureInfo{}, core.ErrHandleAborted
		}
		return nil, gopacket.CaptureInfo{}, core.ErrReadTimeout
	}
	return data, ci, err
}

func (a *afpacketHandle) Abort() {
	a.aborted.Store(true)
}

func (a *afpacketHandle) Close() error {
	a.handle.Close()
	return nil
}
