package pipeline

import (
	"container/heap"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/fumble/fumble/internal/config"
	"github.com/fumble/fumble/internal/pkt"
	"github.com/fumble/fumble/internal/stats"
)

// reorderEntry is one record queued for delayed release.
type reorderEntry struct {
	record          *pkt.Record
	releaseDeadline time.Time
}

// reorderHeap is a min-heap on releaseDeadline.
type reorderHeap []reorderEntry

func (h reorderHeap) Len() int            { return len(h) }
func (h reorderHeap) Less(i, j int) bool  { return h[i].releaseDeadline.Before(h[j].releaseDeadline) }
func (h reorderHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *reorderHeap) Push(x any)         { *h = append(*h, x.(reorderEntry)) }
func (h *reorderHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// applyReorder either passes a record straight through or queues it
// for release at a random deadline within max_delay, then releases
// every queued record whose deadline has expired.
func applyReorder(batch []*pkt.Record, st *ReorderState, cfg *config.ReorderConfig, now time.Time, reg *stats.Registry) []*pkt.Record {
	maxDelay := cfg.MaxDelay()
	if maxDelay <= 0 {
		slog.Warn("reorder stage bypassed: max_delay is zero")
		return batch
	}
	p := cfg.Probability.Value()

	out := make([]*pkt.Record, 0, len(batch))
	queuedThisBatch := 0

	for _, rec := range batch {
		if rand.Float64() >= p {
			out = append(out, rec)
			continue
		}
		d := time.Duration(rand.Int64N(int64(maxDelay)))
		heap.Push(&st.heap, reorderEntry{record: rec, releaseDeadline: now.Add(d)})
		queuedThisBatch++
	}

	for st.heap.Len() > 0 && !st.heap[0].releaseDeadline.After(now) {
		entry := heap.Pop(&st.heap).(reorderEntry)
		out = append(out, entry.record)
	}

	reg.RecordReorder(queuedThisBatch, st.heap.Len(), len(batch))
	return out
}
