package pipeline

import (
	"time"

	"github.com/fumble/fumble/internal/config"
	"github.com/fumble/fumble/internal/pkt"
	"github.com/fumble/fumble/internal/stats"
)

// maxBandwidthBufferSize bounds Bandwidth's FIFO (spec §4.3.7, 10 MiB).
const maxBandwidthBufferSize = 10 * 1024 * 1024

// bandwidthSampleInterval is how often the EWMA rate sample is taken.
const bandwidthSampleInterval = 100 * time.Millisecond

// applyBandwidth enforces an average outgoing rate cap via a credit
// accumulator: records queue in a FIFO, and on each call credit
// accrued since last_emit_time permits draining the front while it
// fits. last_emit_time only advances when bytes were actually sent,
// letting credit accrue across empty ticks.
func applyBandwidth(batch []*pkt.Record, st *BandwidthState, cfg *config.BandwidthConfig, now time.Time, reg *stats.Registry) []*pkt.Record {
	if cfg == nil || cfg.LimitKBps == nil {
		return batch
	}
	limitKBps := *cfg.LimitKBps

	st.fifo = append(st.fifo, batch...)
	for _, rec := range batch {
		st.totalBytes += rec.Size()
	}
	for st.totalBytes > maxBandwidthBufferSize && len(st.fifo) > 0 {
		evicted := st.fifo[0]
		st.fifo = st.fifo[1:]
		st.totalBytes -= evicted.Size()
	}

	if !st.emitPrimed {
		st.lastEmitTime = now
		st.emitPrimed = true
	}
	delta := now.Sub(st.lastEmitTime)
	credit := int(float64(limitKBps) * 1024 * delta.Seconds())

	var out []*pkt.Record
	bytesSent := 0
	for len(st.fifo) > 0 && st.fifo[0].Size() <= credit-bytesSent {
		rec := st.fifo[0]
		st.fifo = st.fifo[1:]
		st.totalBytes -= rec.Size()
		bytesSent += rec.Size()
		out = append(out, rec)
	}

	if bytesSent > 0 {
		st.lastEmitTime = now
	}

	sampled := delta >= bandwidthSampleInterval
	kbpsSample := 0.0
	if sampled && delta.Seconds() > 0 {
		kbpsSample = (float64(bytesSent) / 1024) / delta.Seconds()
	}
	reg.RecordBandwidth(len(st.fifo), kbpsSample, sampled)

	return out
}
