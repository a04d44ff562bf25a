package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fumble/fumble/internal/stats"
)

func TestProject_FormatsEachField(t *testing.T) {
	snap := stats.Snapshot{
		Drop:      stats.DropStats{DropRate: 0.125},
		Delay:     stats.DelayStats{Buffered: 7},
		Throttle:  stats.ThrottleStats{IsThrottling: true},
		Reorder:   stats.ReorderStats{CurrentlyDelayed: 3},
		Duplicate: stats.DuplicateStats{Multiplier: 2.5},
		Bandwidth: stats.BandwidthStats{Buffered: 42, RateKBps: 512.333},
	}

	view := Project(snap)

	assert.Equal(t, "12.50%", view.DropRate)
	assert.Equal(t, "7", view.DelayBuffered)
	assert.Equal(t, "yes", view.Throttling)
	assert.Equal(t, "3", view.ReorderDelayed)
	assert.Equal(t, "2.50x", view.DuplicateFactor)
	assert.Equal(t, "42", view.BandwidthBuffered)
	assert.Equal(t, "512.33 KB/s", view.BandwidthRate)
}

func TestProject_NotThrottling(t *testing.T) {
	view := Project(stats.Snapshot{})
	assert.Equal(t, "no", view.Throttling)
	assert.Equal(t, "0.00%", view.DropRate)
}
