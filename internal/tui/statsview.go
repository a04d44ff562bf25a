package tui

import (
	"strconv"

	"github.com/fumble/fumble/internal/stats"
)

// StatsView projects a stats.Snapshot into the plain strings the
// render loop draws, keeping formatting decisions out of the stats
// package itself.
type StatsView struct {
	DropRate          string
	DelayBuffered     string
	Throttling        string
	ReorderDelayed    string
	DuplicateFactor   string
	BandwidthBuffered string
	BandwidthRate     string
}

// Project formats snap for display.
func Project(snap stats.Snapshot) StatsView {
	return StatsView{
		DropRate:          percent(snap.Drop.DropRate),
		DelayBuffered:     count(snap.Delay.Buffered),
		Throttling:        boolText(snap.Throttle.IsThrottling),
		ReorderDelayed:    count(snap.Reorder.CurrentlyDelayed),
		DuplicateFactor:   factor(snap.Duplicate.Multiplier),
		BandwidthBuffered: count(snap.Bandwidth.Buffered),
		BandwidthRate:     kbps(snap.Bandwidth.RateKBps),
	}
}

func percent(v float64) string {
	return formatFloat(v*100, "%")
}

func factor(v float64) string {
	return formatFloat(v, "x")
}

func kbps(v float64) string {
	return formatFloat(v, " KB/s")
}

func formatFloat(v float64, suffix string) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + suffix
}

func count(n int) string {
	return strconv.Itoa(n)
}

func boolText(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
