package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fumble/fumble/internal/config"
	"github.com/fumble/fumble/internal/shared"
	"github.com/fumble/fumble/internal/shutdown"
	"github.com/fumble/fumble/internal/stats"
)

func TestApplyRunFlags_OverridesOnlyChangedFields(t *testing.T) {
	require.NoError(t, runCmd.Flags().Parse([]string{
		"--filter=tcp",
		"--drop-probability=0.25",
		"--duplicate-count=3",
	}))

	cfg := config.Default()
	require.NoError(t, applyRunFlags(runCmd, cfg))

	assert.Equal(t, "tcp", cfg.Filter)
	require.NotNil(t, cfg.Drop.Probability)
	assert.InDelta(t, 0.25, cfg.Drop.Probability.Value(), 1e-9)
	assert.Equal(t, 3, cfg.Duplicate.Count)
	assert.Nil(t, cfg.Tamper.Probability)
}

func TestApplyRunFlags_RejectsInvalidDuplicateCount(t *testing.T) {
	require.NoError(t, runCmd.Flags().Parse([]string{"--duplicate-count=0"}))

	cfg := config.Default()
	err := applyRunFlags(runCmd, cfg)
	assert.Error(t, err)
}

func TestStartTerminal_NilUnderTestRunner(t *testing.T) {
	// The test runner's stdin is never an interactive TTY, so
	// startTerminal must degrade to headless rather than erroring.
	cell := shared.NewConfigCell(config.Configuration{})
	coordinator := shutdown.New()
	terminal := startTerminal(cell, stats.New(), coordinator)
	assert.Nil(t, terminal)
}

func TestStartTerminal_RespectsNoTUIFlag(t *testing.T) {
	runNoTUI = true
	defer func() { runNoTUI = false }()

	cell := shared.NewConfigCell(config.Configuration{})
	coordinator := shutdown.New()
	terminal := startTerminal(cell, stats.New(), coordinator)
	assert.Nil(t, terminal)
}
