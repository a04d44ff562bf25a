package capture

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/gopacket"
)

// MemoryHandle is a deterministic in-memory Handle used by tests.
// ReadPacket drains a
// pre-seeded queue instead of touching the kernel; Send appends to an
// Injected slice instead of writing to the wire.
type MemoryHandle struct {
	mu       sync.Mutex
	opened   bool
	lastOpts Options
	queue    []queuedPacket
	Injected [][]byte
	stats    Stats
}

type queuedPacket struct {
	data []byte
	ci   gopacket.CaptureInfo
}

// NewMemoryHandle returns an unopened MemoryHandle.
func NewMemoryHandle() *MemoryHandle {
	return &MemoryHandle{}
}

// Enqueue stages a packet for the next ReadPacket call.
func (h *MemoryHandle) Enqueue(data []byte, arrival time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.queue = append(h.queue, queuedPacket{
		data: data,
		ci:   gopacket.CaptureInfo{Timestamp: arrival, CaptureLength: len(data), Length: len(data)},
	})
}

func (h *MemoryHandle) Open(interfaceName string, opts Options) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.opened = true
	h.lastOpts = opts
	return nil
}

func (h *MemoryHandle) ReadPacket() ([]byte, gopacket.CaptureInfo, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.opened {
		return nil, gopacket.CaptureInfo{}, fmt.Errorf("handle not opened")
	}
	if len(h.queue) == 0 {
		return nil, gopacket.CaptureInfo{}, fmt.Errorf("no packet available")
	}
	next := h.queue[0]
	h.queue = h.queue[1:]
	h.stats.PacketsReceived++
	return next.data, next.ci, nil
}

func (h *MemoryHandle) Send(data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.opened {
		return fmt.Errorf("handle not opened")
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	h.Injected = append(h.Injected, cp)
	h.stats.PacketsSent++
	return nil
}

func (h *MemoryHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.opened = false
	return nil
}

func (h *MemoryHandle) GetStats() (Stats, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats, nil
}

func (h *MemoryHandle) Type() Type {
	return "memory"
}

// LastFilter returns the filter string last passed to Open, for tests
// asserting the capture loop hot-swapped correctly.
func (h *MemoryHandle) LastFilter() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastOpts.Filter
}

// Pending reports how many queued packets have not yet been read.
func (h *MemoryHandle) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.queue)
}
