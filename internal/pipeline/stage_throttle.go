package pipeline

import (
	"math/rand/v2"
	"time"

	"github.com/fumble/fumble/internal/config"
	"github.com/fumble/fumble/internal/pkt"
	"github.com/fumble/fumble/internal/stats"
)

// applyThrottle buffers or drops while inside the active throttle
// window; once the window lapses it flushes the buffer then rolls a
// single per-batch draw that may open a new window. See spec §4.3.3:
// reference semantics draws once per batch rather than per packet.
func applyThrottle(batch []*pkt.Record, st *ThrottleState, cfg *config.ThrottleConfig, now time.Time, reg *stats.Registry) []*pkt.Record {
	if cfg == nil || cfg.Probability == nil {
		return batch
	}
	p := cfg.Probability.Value()
	duration := cfg.Duration()

	isThrottling := st.started && now.Sub(st.windowStart) <= duration

	if isThrottling {
		if cfg.Drop {
			reg.RecordThrottle(true, len(batch))
			return nil
		}
		st.fifo = append(st.fifo, batch...)
		reg.RecordThrottle(true, 0)
		return nil
	}

	out := st.fifo
	st.fifo = nil

	if len(batch) > 0 && rand.Float64() < p {
		st.windowStart = now
		st.started = true
	}
	out = append(out, batch...)

	reg.RecordThrottle(false, 0)
	return out
}
