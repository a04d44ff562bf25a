// Package pkt defines the owned packet record that flows through the
// capture loop, the impairment pipeline, and back out to the inject
// interface.
package pkt

import (
	"time"

	"github.com/google/gopacket"
)

// Direction carries the opaque metadata the capture interface attaches
// to a packet: which way it travelled and over which adapter, plus the
// checksum-valid flags the OS layer already computed. It must be kept
// intact and handed back unchanged at injection time.
type Direction struct {
	CaptureInfo gopacket.CaptureInfo
	Outbound    bool
	Interface   string
	IPChecksum  bool
	TCPChecksum bool
	UDPChecksum bool
}

// Record is the owned, mutable unit of work moving through the
// pipeline. Exactly one stage holds a given Record at a time; passing
// it onward transfers ownership. Duplicate is the only stage that
// clones a Record, and Clone always allocates a fresh backing buffer so
// no two Records ever alias the same payload bytes.
type Record struct {
	Payload     []byte
	Direction   Direction
	ArrivalTime time.Time
}

// New wraps a freshly captured frame, stamping it with the monotonic
// arrival time the capture loop observed.
func New(payload []byte, dir Direction, arrival time.Time) *Record {
	return &Record{Payload: payload, Direction: dir, ArrivalTime: arrival}
}

// Clone returns an independent copy with its own backing array, so
// later stages (Tamper on a later batch, Bandwidth buffering) cannot
// alias or double-mutate the original's bytes.
func (r *Record) Clone() *Record {
	cp := make([]byte, len(r.Payload))
	copy(cp, r.Payload)
	return &Record{
		Payload:     cp,
		Direction:   r.Direction,
		ArrivalTime: r.ArrivalTime,
	}
}

// Size returns the payload length in bytes, used by the bandwidth
// stage, which reasons about byte counts rather than packet counts.
func (r *Record) Size() int {
	return len(r.Payload)
}
