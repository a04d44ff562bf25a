package pipeline

import (
	"math/rand/v2"

	"github.com/fumble/fumble/internal/config"
	"github.com/fumble/fumble/internal/pkt"
	"github.com/fumble/fumble/internal/stats"
)

// applyDrop draws one Bernoulli per record and discards on success.
func applyDrop(batch []*pkt.Record, cfg *config.DropConfig, reg *stats.Registry) []*pkt.Record {
	if cfg == nil || cfg.Probability == nil {
		return batch
	}
	p := cfg.Probability.Value()

	out := batch[:0]
	dropped := 0
	for _, rec := range batch {
		if rand.Float64() < p {
			dropped++
			continue
		}
		out = append(out, rec)
	}
	reg.RecordDrop(len(batch), dropped)
	return out
}
