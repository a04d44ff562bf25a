// Package pipeline implements the impairment pipeline: seven stages
// applied in fixed order to each batch of captured records, plus the
// driver thread that sequences them.
package pipeline

import (
	"time"

	"github.com/fumble/fumble/internal/pkt"
)

// State aggregates every stage's private buffer plus the cross-stage
// instants (throttle_window_start, last_emit_time). Mutated only by
// the processing thread; never shared.
type State struct {
	Delay     DelayState
	Throttle  ThrottleState
	Reorder   ReorderState
	Bandwidth BandwidthState
}

// NewState returns a fresh, empty pipeline state.
func NewState() *State {
	return &State{
		Reorder: ReorderState{heap: make(reorderHeap, 0)},
	}
}

// DelayState holds Delay's FIFO of buffered records.
type DelayState struct {
	fifo []*pkt.Record
}

// ThrottleState holds Throttle's window instant and its FIFO buffer.
type ThrottleState struct {
	windowStart time.Time
	started     bool
	fifo        []*pkt.Record
}

// ReorderState holds Reorder's min-heap of delayed records.
type ReorderState struct {
	heap reorderHeap
}

// BandwidthState holds Bandwidth's FIFO, running byte total, and last
// emission instant.
type BandwidthState struct {
	fifo         []*pkt.Record
	totalBytes   int
	lastEmitTime time.Time
	emitPrimed   bool
}
