// Package stats implements the per-stage statistics registry (spec C3):
// integer counters plus EWMA smoothers, guarded by a single RWMutex so
// the processing thread can write and the TUI thread can read without
// racing.
package stats

import (
	"sync"
	"time"

	"github.com/fumble/fumble/internal/ewma"
)

// Long-running rate stats use a slow-moving average; burst-sensitive
// throughput stats (duplicate multiplier, bandwidth rate) react faster.
// Values chosen per spec.md §4.1.
const (
	AlphaSlow  = 0.005
	AlphaBurst = 0.5
)

// DropStats tracks Drop stage (C4) counters.
type DropStats struct {
	TotalPackets uint64
	TotalDropped uint64
	dropRate     *ewma.EWMA
	DropRate     float64
}

// DelayStats tracks Delay stage (C5) counters.
type DelayStats struct {
	Buffered int
}

// ThrottleStats tracks Throttle stage (C6) counters.
type ThrottleStats struct {
	IsThrottling bool
	DroppedCount uint64
}

// ReorderStats tracks Reorder stage (C7) counters.
type ReorderStats struct {
	TotalReordered   uint64
	CurrentlyDelayed int
	reorderRate      *ewma.EWMA
	ReorderRate      float64
}

// TamperStats tracks Tamper stage (C8) counters. Updated at most every
// 500ms (see spec.md §4.3.5) so the TUI isn't flooded.
type TamperStats struct {
	LastPayload      []byte
	TamperedFlags    []bool
	IPChecksumValid  bool
	TCPChecksumValid bool
	UDPChecksumValid bool
	lastUpdate       time.Time
}

// DuplicateStats tracks Duplicate stage (C9) counters.
type DuplicateStats struct {
	multiplier *ewma.EWMA
	Multiplier float64
}

// BandwidthStats tracks Bandwidth stage (C10) counters.
type BandwidthStats struct {
	Buffered  int
	rate      *ewma.EWMA
	RateKBps  float64
}

// Registry is the single readers-writer-guarded home for every stage's
// statistics. The pipeline driver is the sole writer; the TUI thread is
// the sole reader.
type Registry struct {
	mu sync.RWMutex

	Drop      DropStats
	Delay     DelayStats
	Throttle  ThrottleStats
	Reorder   ReorderStats
	Tamper    TamperStats
	Duplicate DuplicateStats
	Bandwidth BandwidthStats
}

// New constructs a Registry with its EWMA smoothers primed at the
// alphas prescribed by spec.md §4.1.
func New() *Registry {
	return &Registry{
		Drop:      DropStats{dropRate: ewma.MustNew(AlphaSlow)},
		Reorder:   ReorderStats{reorderRate: ewma.MustNew(AlphaSlow)},
		Duplicate: DuplicateStats{multiplier: ewma.MustNew(AlphaBurst)},
		Bandwidth: BandwidthStats{rate: ewma.MustNew(AlphaBurst)},
	}
}

// RecordDrop updates Drop stats for one batch: total/dropped counts and
// the EWMA of the observed drop rate.
func (r *Registry) RecordDrop(total, dropped int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Drop.TotalPackets += uint64(total)
	r.Drop.TotalDropped += uint64(dropped)
	if total > 0 {
		rate := r.Drop.dropRate.Update(float64(dropped) / float64(total))
		r.Drop.DropRate = rate
	}
}

// RecordDelay updates the Delay stage's buffered-record gauge.
func (r *Registry) RecordDelay(buffered int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Delay.Buffered = buffered
}

// RecordThrottle updates Throttle stage state.
func (r *Registry) RecordThrottle(isThrottling bool, droppedDelta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Throttle.IsThrottling = isThrottling
	r.Throttle.DroppedCount += uint64(droppedDelta)
}

// RecordReorder updates Reorder stage state: count reordered this
// batch, current queue depth, and the EWMA reorder rate.
func (r *Registry) RecordReorder(queuedThisBatch, currentlyDelayed, batchSize int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Reorder.TotalReordered += uint64(queuedThisBatch)
	r.Reorder.CurrentlyDelayed = currentlyDelayed
	if batchSize > 0 {
		rate := r.Reorder.reorderRate.Update(float64(queuedThisBatch) / float64(batchSize))
		r.Reorder.ReorderRate = rate
	}
}

// tamperUpdateInterval rate-limits TamperStats snapshots (spec.md §4.3.5).
const tamperUpdateInterval = 500 * time.Millisecond

// ShouldUpdateTamper reports whether enough time has elapsed since the
// last Tamper stats snapshot to take a new one.
func (r *Registry) ShouldUpdateTamper(now time.Time) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return now.Sub(r.Tamper.lastUpdate) >= tamperUpdateInterval
}

// RecordTamper stores a snapshot of the last tampered payload plus the
// parallel tampered-byte bit-vector and post-recompute checksum
// validity, rate-limited by ShouldUpdateTamper.
func (r *Registry) RecordTamper(now time.Time, payload []byte, flags []bool, ipOK, tcpOK, udpOK bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Tamper.LastPayload = payload
	r.Tamper.TamperedFlags = flags
	r.Tamper.IPChecksumValid = ipOK
	r.Tamper.TCPChecksumValid = tcpOK
	r.Tamper.UDPChecksumValid = udpOK
	r.Tamper.lastUpdate = now
}

// RecordDuplicate updates the EWMA of the emitted/incoming multiplier.
func (r *Registry) RecordDuplicate(incoming, emitted int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if incoming > 0 {
		rate := r.Duplicate.multiplier.Update(float64(emitted) / float64(incoming))
		r.Duplicate.Multiplier = rate
	}
}

// RecordBandwidth updates the buffered-count gauge and, when sampled
// (at least 100ms since the last emission), folds kbpsSample into the
// EWMA rate, including a zero sample when nothing was emitted.
func (r *Registry) RecordBandwidth(buffered int, kbpsSample float64, sampled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Bandwidth.Buffered = buffered
	if sampled {
		rate := r.Bandwidth.rate.Update(kbpsSample)
		r.Bandwidth.RateKBps = rate
	}
}

// Snapshot returns a copy of every stage's statistics, safe to read
// without holding the registry's lock afterward. Intended for the TUI
// thread.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Snapshot{
		Drop:      r.Drop,
		Delay:     r.Delay,
		Throttle:  r.Throttle,
		Reorder:   r.Reorder,
		Tamper:    r.Tamper,
		Duplicate: r.Duplicate,
		Bandwidth: r.Bandwidth,
	}
}

// Snapshot is a point-in-time, lock-free copy of the Registry's state.
type Snapshot struct {
	Drop      DropStats
	Delay     DelayStats
	Throttle  ThrottleStats
	Reorder   ReorderStats
	Tamper    TamperStats
	Duplicate DuplicateStats
	Bandwidth BandwidthStats
}
