package metrics

import "github.com/fumble/fumble/internal/stats"

// Export mirrors a stats.Snapshot onto the Prometheus gauges, called
// by Server's export loop every exportInterval.
func Export(snap stats.Snapshot) {
	StageBufferedRecords.WithLabelValues("delay").Set(float64(snap.Delay.Buffered))
	StageBufferedRecords.WithLabelValues("reorder").Set(float64(snap.Reorder.CurrentlyDelayed))
	StageBufferedRecords.WithLabelValues("bandwidth").Set(float64(snap.Bandwidth.Buffered))

	StageRate.WithLabelValues("drop", "rate").Set(snap.Drop.DropRate)
	StageRate.WithLabelValues("reorder", "rate").Set(snap.Reorder.ReorderRate)
	StageRate.WithLabelValues("duplicate", "multiplier").Set(snap.Duplicate.Multiplier)
	StageRate.WithLabelValues("bandwidth", "kbps").Set(snap.Bandwidth.RateKBps)
}
