// Package capture implements the capture/inject interface (spec.md
// §5): open a handle against an OS adapter, read matching packets, and
// write survivors back onto the wire.
package capture

import (
	"fmt"

	"github.com/google/gopacket"
)

// Type selects the capture backend.
type Type string

const (
	TypeAFPacket Type = "afpacket"
	TypePCAP     Type = "pcap"
)

// Options configures a Handle at Open time.
type Options struct {
	BufferSize  int
	Promiscuous bool
	TimeoutMS   int
	SnapLen     int
	Filter      string
}

// Stats reports capture/inject counters for a Handle.
type Stats struct {
	PacketsReceived uint64
	PacketsDropped  uint64
	PacketsSent     uint64
	Errors          uint64
}

// Handle is the capture/inject interface: open(filter, flags) in
// spec.md §5 terms collapses here into Open (receive side) and Send
// (inject side) on the same handle, since both directions share one
// adapter and one filter.
type Handle interface {
	// Open acquires the handle against interfaceName with opts.Filter
	// applied as the BPF program.
	Open(interfaceName string, opts Options) error

	// ReadPacket blocks (up to opts.TimeoutMS) for the next packet
	// matching the filter.
	ReadPacket() ([]byte, gopacket.CaptureInfo, error)

	// Send reinjects raw bytes onto the wire.
	Send(data []byte) error

	// Close releases the handle. Idempotent.
	Close() error

	// GetStats reports cumulative counters.
	GetStats() (Stats, error)

	// Type reports which backend this handle is.
	Type() Type
}

// DefaultOptions returns the spec.md §6 capture defaults.
func DefaultOptions() Options {
	return Options{
		BufferSize:  1024 * 1024,
		Promiscuous: true,
		TimeoutMS:   250,
		SnapLen:     1500,
	}
}

// Factory constructs Handles by Type.
type Factory struct{}

// NewFactory returns a Factory.
func NewFactory() *Factory {
	return &Factory{}
}

// CreateHandle returns a fresh, unopened Handle of the requested type.
func (f *Factory) CreateHandle(t Type) (Handle, error) {
	switch t {
	case TypeAFPacket:
		return newAFPacketHandle(), nil
	case TypePCAP:
		return newPCAPHandle(), nil
	default:
		return nil, fmt.Errorf("unsupported capture type: %s", t)
	}
}
