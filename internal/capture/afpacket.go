package capture

import (
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/afpacket"

	"github.com/fumble/fumble/internal/bpf"
)

// afpacketHandle is an AF_PACKET mmap'd ring buffer capture/inject
// handle.
type afpacketHandle struct {
	mu      sync.Mutex
	tpacket *afpacket.TPacket
	iface   string
	stats   Stats
}

func newAFPacketHandle() Handle {
	return &afpacketHandle{}
}

func (h *afpacketHandle) Open(interfaceName string, opts Options) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	iface, err := net.InterfaceByName(interfaceName)
	if err != nil {
		return fmt.Errorf("failed to get interface %s: %w", interfaceName, err)
	}

	frameSize, blockSize, numBlocks, err := computeFrameSizeAndBlocks(opts)
	if err != nil {
		return fmt.Errorf("failed to compute ring geometry: %w", err)
	}

	tpacket, err := afpacket.NewTPacket(
		afpacket.OptInterface(iface.Name),
		afpacket.OptFrameSize(frameSize),
		afpacket.OptBlockSize(blockSize),
		afpacket.OptNumBlocks(numBlocks),
		afpacket.OptPollTimeout(time.Duration(opts.TimeoutMS)*time.Millisecond),
		afpacket.SocketRaw,
		afpacket.TPacketVersion3,
	)
	if err != nil {
		return fmt.Errorf("failed to create TPacket: %w", err)
	}

	if opts.Filter != "" {
		raw, err := bpf.Compile(opts.Filter, opts.SnapLen)
		if err != nil {
			tpacket.Close()
			return fmt.Errorf("failed to compile filter: %w", err)
		}
		if err := tpacket.SetBPF(raw); err != nil {
			tpacket.Close()
			return fmt.Errorf("failed to install filter: %w", err)
		}
	}

	h.tpacket = tpacket
	h.iface = interfaceName
	return nil
}

func computeFrameSizeAndBlocks(opts Options) (frameSize, blockSize, numBlocks int, err error) {
	pageSize := os.Getpagesize()
	snapLen := opts.SnapLen
	if snapLen <= 0 {
		snapLen = 1500
	}
	if snapLen < pageSize {
		frameSize = pageSize / (pageSize / snapLen)
	} else {
		frameSize = (snapLen/pageSize + 1) * pageSize
	}
	blockSize = frameSize * 128
	numBlocks = opts.BufferSize / blockSize
	if numBlocks < 1 {
		return 0, 0, 0, fmt.Errorf("buffer size %d too small for frame size %d", opts.BufferSize, frameSize)
	}
	return frameSize, blockSize, numBlocks, nil
}

func (h *afpacketHandle) ReadPacket() ([]byte, gopacket.CaptureInfo, error) {
	h.mu.Lock()
	tpacket := h.tpacket
	h.mu.Unlock()

	if tpacket == nil {
		return nil, gopacket.CaptureInfo{}, fmt.Errorf("handle not opened")
	}

	data, ci, err := tpacket.ReadPacketData()
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

func (h *afpacketHandle) Send(data []byte) error {
	h.mu.Lock()
	tpacket := h.tpacket
	h.mu.Unlock()

	if tpacket == nil {
		return fmt.Errorf("handle not opened")
	}

	if err := tpacket.WritePacketData(data); err != nil {
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

func (h *afpacketHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.tpacket != nil {
		h.tpacket.Close()
		h.tpacket = nil
	}
	return nil
}

func (h *afpacketHandle) GetStats() (Stats, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.tpacket == nil {
		return h.stats, fmt.Errorf("handle not opened")
	}
	s, err := h.tpacket.Stats()
	if err != nil {
		return h.stats, err
	}
	h.stats.PacketsReceived = uint64(s.Packets)
	return h.stats, nil
}

func (h *afpacketHandle) Type() Type {
	return TypeAFPacket
}
