package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fumble/fumble/internal/config"
	"github.com/fumble/fumble/internal/probability"
	"github.com/fumble/fumble/internal/shared"
)

func TestToggleDrop_EnableWithValidText(t *testing.T) {
	cell := shared.NewConfigCell(config.Configuration{})
	editor := NewStageEditor(cell)
	editor.Drop.Text = "0.25"

	require.NoError(t, editor.ToggleDrop(true))

	snap := cell.Snapshot()
	require.NotNil(t, snap.Drop.Probability)
	assert.InDelta(t, 0.25, snap.Drop.Probability.Value(), 1e-9)
}

func TestToggleDrop_Disable(t *testing.T) {
	p, err := probability.New(0.5)
	require.NoError(t, err)
	cell := shared.NewConfigCell(config.Configuration{Drop: config.DropConfig{Probability: &p}})
	editor := NewStageEditor(cell)

	require.NoError(t, editor.ToggleDrop(false))
	assert.Nil(t, cell.Snapshot().Drop.Probability)
}

func TestToggleDrop_InvalidTextRetainsLastValid(t *testing.T) {
	cell := shared.NewConfigCell(config.Configuration{})
	editor := NewStageEditor(cell)
	editor.Drop.Text = "not-a-number"

	err := editor.ToggleDrop(true)
	assert.Error(t, err)
	assert.True(t, editor.Drop.InError)
	assert.Nil(t, cell.Snapshot().Drop.Probability)
}

func TestToggleDelay_EnableWithValidText(t *testing.T) {
	cell := shared.NewConfigCell(config.Configuration{})
	editor := NewStageEditor(cell)
	editor.Delay.Text = "50"

	require.NoError(t, editor.ToggleDelay(true))

	snap := cell.Snapshot()
	require.NotNil(t, snap.Delay.DurationMS)
	assert.Equal(t, int64(50), *snap.Delay.DurationMS)
}

func TestToggleDelay_Disable(t *testing.T) {
	ms := int64(50)
	cell := shared.NewConfigCell(config.Configuration{Delay: config.DelayConfig{DurationMS: &ms}})
	editor := NewStageEditor(cell)

	require.NoError(t, editor.ToggleDelay(false))
	assert.Nil(t, cell.Snapshot().Delay.DurationMS)
}

func TestToggleBandwidth_EnableWithValidText(t *testing.T) {
	cell := shared.NewConfigCell(config.Configuration{})
	editor := NewStageEditor(cell)
	editor.Bandwidth.Text = "1024"

	require.NoError(t, editor.ToggleBandwidth(true))

	snap := cell.Snapshot()
	require.NotNil(t, snap.Bandwidth.LimitKBps)
	assert.Equal(t, 1024, *snap.Bandwidth.LimitKBps)
}

func TestToggleBandwidth_Disable(t *testing.T) {
	limit := 1024
	cell := shared.NewConfigCell(config.Configuration{Bandwidth: config.BandwidthConfig{LimitKBps: &limit}})
	editor := NewStageEditor(cell)

	require.NoError(t, editor.ToggleBandwidth(false))
	assert.Nil(t, cell.Snapshot().Bandwidth.LimitKBps)
}

func TestApplyReorder_CommitsBothFields(t *testing.T) {
	cell := shared.NewConfigCell(config.Configuration{})
	editor := NewStageEditor(cell)
	editor.ReorderProbability.Text = "0.3"
	editor.ReorderMaxDelayMS.Text = "200"

	require.NoError(t, editor.ApplyReorder())

	snap := cell.Snapshot()
	assert.InDelta(t, 0.3, snap.Reorder.Probability.Value(), 1e-9)
	assert.Equal(t, int64(200), snap.Reorder.MaxDelayMS)
}

func TestApplyReorder_InvalidProbabilityLeavesConfigUntouched(t *testing.T) {
	cell := shared.NewConfigCell(config.Configuration{})
	editor := NewStageEditor(cell)
	editor.ReorderProbability.Text = "not-a-number"
	editor.ReorderMaxDelayMS.Text = "200"

	err := editor.ApplyReorder()
	assert.Error(t, err)
	assert.Equal(t, int64(0), cell.Snapshot().Reorder.MaxDelayMS)
}

func TestFieldState_Revert(t *testing.T) {
	f := NewFieldState("0.5")
	f.Text = "garbage"
	_, err := f.ParseProbability()
	require.Error(t, err)

	f.Revert()
	assert.Equal(t, "0.5", f.Text)
	assert.False(t, f.InError)
}
