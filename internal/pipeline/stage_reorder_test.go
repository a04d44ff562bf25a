package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fumble/fumble/internal/config"
	"github.com/fumble/fumble/internal/probability"
	"github.com/fumble/fumble/internal/stats"
)

func TestApplyReorder_ZeroProbabilityIsIdentity(t *testing.T) {
	cfg := &config.ReorderConfig{Probability: probability.Zero, MaxDelayMS: 100}
	st := &ReorderState{heap: make(reorderHeap, 0)}
	batch := newRecordBatch(4)

	out := applyReorder(batch, st, cfg, time.Now(), stats.New())
	assert.Equal(t, batch, out)
	assert.Zero(t, st.heap.Len())
}

func TestApplyReorder_ZeroMaxDelayBypasses(t *testing.T) {
	p := mustProb(t, 1)
	cfg := &config.ReorderConfig{Probability: p, MaxDelayMS: 0}
	st := &ReorderState{heap: make(reorderHeap, 0)}
	batch := newRecordBatch(3)

	out := applyReorder(batch, st, cfg, time.Now(), stats.New())
	assert.Equal(t, batch, out)
}

func TestApplyReorder_ProbabilityOneEventuallyReleasesEverything(t *testing.T) {
	p := mustProb(t, 1)
	cfg := &config.ReorderConfig{Probability: p, MaxDelayMS: 10}
	st := &ReorderState{heap: make(reorderHeap, 0)}
	reg := stats.New()

	start := time.Now()
	out := applyReorder(newRecordBatch(5), st, cfg, start, reg)
	assert.Empty(t, out, "every record queued, none released yet")
	require.Equal(t, 5, st.heap.Len())

	later := start.Add(20 * time.Millisecond)
	out = applyReorder(nil, st, cfg, later, reg)
	assert.Len(t, out, 5)
	assert.Zero(t, st.heap.Len())
}
