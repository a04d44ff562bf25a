package capture

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
)

// pcapHandle is a libpcap-backed capture/inject handle. It completes
// the capture type the teacher's factory left stubbed out.
type pcapHandle struct {
	mu     sync.Mutex
	handle *pcap.Handle
	stats  Stats
}

func newPCAPHandle() Handle {
	return &pcapHandle{}
}

func (h *pcapHandle) Open(interfaceName string, opts Options) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	snapLen := opts.SnapLen
	if snapLen <= 0 {
		snapLen = 1500
	}
	timeout := time.Duration(opts.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = pcap.BlockForever
	}

	inactive, err := pcap.NewInactiveHandle(interfaceName)
	if err != nil {
		return fmt.Errorf("failed to create inactive handle: %w", err)
	}
	defer inactive.CleanUp()

	if err := inactive.SetSnapLen(snapLen); err != nil {
		return fmt.Errorf("failed to set snaplen: %w", err)
	}
	if err := inactive.SetPromisc(opts.Promiscuous); err != nil {
		return fmt.Errorf("failed to set promiscuous mode: %w", err)
	}
	if err := inactive.SetTimeout(timeout); err != nil {
		return fmt.Errorf("failed to set timeout: %w", err)
	}
	if opts.BufferSize > 0 {
		if err := inactive.SetBufferSize(opts.BufferSize); err != nil {
			return fmt.Errorf("failed to set buffer size: %w", err)
		}
	}
	if err := inactive.SetImmediateMode(true); err != nil {
		return fmt.Errorf("failed to set immediate mode: %w", err)
	}

	handle, err := inactive.Activate()
	if err != nil {
		return fmt.Errorf("failed to activate handle: %w", err)
	}

	if opts.Filter != "" {
		if err := handle.SetBPFFilter(opts.Filter); err != nil {
			handle.Close()
			return fmt.Errorf("failed to install filter: %w", err)
		}
	}

	h.handle = handle
	return nil
}

func (h *pcapHandle) ReadPacket() ([]byte, gopacket.CaptureInfo, error) {
	h.mu.Lock()
	handle := h.handle
	h.mu.Unlock()

	if handle == nil {
		return nil, gopacket.CaptureInfo{}, fmt.Errorf("handle not opened")
	}

	data, ci, err := handle.ReadPacketData()
	if err != nil {
		h.mu.Lock()
		h.stats.Errors++
		h.mu.Unlock()
		return nil, ci, err
	}

	h.mu.Lock()
	h.stats.PacketsReceived++
	h.mu.Unlock()
	return data, ci, nil
}

func (h *pcapHandle) Send(data []byte) error {
	h.mu.Lock()
	handle := h.handle
	h.mu.Unlock()

	if handle == nil {
		return fmt.Errorf("handle not opened")
	}

	if err := handle.WritePacketData(data); err != nil {
		h.mu.Lock()
		h.stats.Errors++
		h.mu.Unlock()
		return fmt.Errorf("failed to inject packet: %w", err)
	}

	h.mu.Lock()
	h.stats.PacketsSent++
	h.mu.Unlock()
	return nil
}

func (h *pcapHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.handle != nil {
		h.handle.Close()
		h.handle = nil
	}
	return nil
}

func (h *pcapHandle) GetStats() (Stats, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.handle == nil {
		return h.stats, fmt.Errorf("handle not opened")
	}
	s, err := h.handle.Stats()
	if err != nil {
		return h.stats, err
	}
	h.stats.PacketsReceived = uint64(s.PacketsReceived)
	h.stats.PacketsDropped = uint64(s.PacketsDropped)
	return h.stats, nil
}

func (h *pcapHandle) Type() Type {
	return TypePCAP
}
