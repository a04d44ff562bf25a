package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fumble/fumble/internal/config"
	"github.com/fumble/fumble/internal/stats"
)

func TestApplyThrottle_AbsentIsIdentity(t *testing.T) {
	batch := newRecordBatch(2)
	out := applyThrottle(batch, &ThrottleState{}, &config.ThrottleConfig{}, time.Now(), stats.New())
	assert.Equal(t, batch, out)
}

func TestApplyThrottle_BufferedInsideWindowThenFlushed(t *testing.T) {
	p := mustProb(t, 1) // always enter a window
	cfg := &config.ThrottleConfig{Probability: &p, DurationMS: 20, Drop: false}
	st := &ThrottleState{}
	reg := stats.New()

	start := time.Now()
	out := applyThrottle(newRecordBatch(2), st, cfg, start, reg)
	require.Len(t, out, 2, "the batch that opens the window still passes through")

	insideWindow := start.Add(5 * time.Millisecond)
	out = applyThrottle(newRecordBatch(1), st, cfg, insideWindow, reg)
	assert.Nil(t, out, "still inside the throttle window")

	afterWindow := start.Add(30 * time.Millisecond)
	out = applyThrottle(nil, st, cfg, afterWindow, reg)
	assert.Len(t, out, 1, "buffered records flush once the window lapses")
}

func TestApplyThrottle_DropModeDiscardsInsideWindow(t *testing.T) {
	p := mustProb(t, 1)
	cfg := &config.ThrottleConfig{Probability: &p, DurationMS: 20, Drop: true}
	st := &ThrottleState{}
	reg := stats.New()

	start := time.Now()
	out := applyThrottle(newRecordBatch(1), st, cfg, start, reg)
	require.Len(t, out, 1, "the batch that opens the window still passes through")

	insideWindow := start.Add(5 * time.Millisecond)
	out = applyThrottle(newRecordBatch(4), st, cfg, insideWindow, reg)
	assert.Nil(t, out)
	assert.Empty(t, st.fifo, "drop mode never buffers")
}
