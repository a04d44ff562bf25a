package pipeline

import (
	"time"

	"github.com/fumble/fumble/internal/config"
	"github.com/fumble/fumble/internal/pkt"
	"github.com/fumble/fumble/internal/stats"
)

// applyDelay appends every input record to the FIFO, then drains from
// the front while the head's age has reached delay_duration. Records
// never reorder relative to arrival within this stage.
func applyDelay(batch []*pkt.Record, st *DelayState, cfg *config.DelayConfig, now time.Time, reg *stats.Registry) []*pkt.Record {
	if cfg == nil || cfg.DurationMS == nil {
		return batch
	}
	duration := cfg.Duration()

	st.fifo = append(st.fifo, batch...)

	var out []*pkt.Record
	for len(st.fifo) > 0 && now.Sub(st.fifo[0].ArrivalTime) >= duration {
		out = append(out, st.fifo[0])
		st.fifo = st.fifo[1:]
	}

	reg.RecordDelay(len(st.fifo))
	return out
}
