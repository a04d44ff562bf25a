package pipeline

import (
	"math/rand/v2"

	"github.com/fumble/fumble/internal/config"
	"github.com/fumble/fumble/internal/pkt"
	"github.com/fumble/fumble/internal/stats"
)

// applyDuplicate draws one Bernoulli per record; on success it appends
// count fresh clones after the original. The original is always
// emitted exactly once.
func applyDuplicate(batch []*pkt.Record, cfg *config.DuplicateConfig, reg *stats.Registry) []*pkt.Record {
	if cfg == nil || cfg.Probability == nil {
		return batch
	}
	p := cfg.Probability.Value()
	count := cfg.Count
	if count < 1 {
		count = 1
	}

	out := make([]*pkt.Record, 0, len(batch))
	for _, rec := range batch {
		out = append(out, rec)
		if rand.Float64() < p {
			for i := 0; i < count; i++ {
				out = append(out, rec.Clone())
			}
		}
	}

	reg.RecordDuplicate(len(batch), len(out))
	return out
}
