package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fumble.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeTempConfig(t, "filter: \"tcp\"\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tcp", cfg.Filter)
	assert.Nil(t, cfg.Drop.Probability)
	assert.Equal(t, int64(30), cfg.Throttle.DurationMS)
	assert.Equal(t, 1, cfg.Duplicate.Count)
	assert.Equal(t, "0", cfg.Reorder.Probability.String())
	assert.True(t, cfg.Tamper.RecalculateChecksums)
	assert.Equal(t, "afpacket", cfg.Capture.Type)
}

func TestLoad_PresentStages(t *testing.T) {
	path := writeTempConfig(t, `
filter: "udp"
drop:
  probability: "0.25"
delay:
  duration_ms: 100
bandwidth:
  limit_kbps: 512
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.Drop.Probability)
	assert.InDelta(t, 0.25, cfg.Drop.Probability.Value(), 1e-9)

	require.NotNil(t, cfg.Delay.DurationMS)
	assert.Equal(t, int64(100), *cfg.Delay.DurationMS)

	require.NotNil(t, cfg.Bandwidth.LimitKBps)
	assert.Equal(t, 512, *cfg.Bandwidth.LimitKBps)
}

func TestLoad_InvalidDuplicateCount(t *testing.T) {
	path := writeTempConfig(t, `
filter: "tcp"
duplicate:
  count: 0
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	path := writeTempConfig(t, `
filter: "tcp"
log:
  level: "verbose"
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_TOMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fumble.toml")
	require.NoError(t, os.WriteFile(path, []byte("filter = \"tcp\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tcp", cfg.Filter)
}

func TestLoad_InvalidTOMLSyntax(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fumble.toml")
	require.NoError(t, os.WriteFile(path, []byte("filter = \n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestDefault_NoStagesEnabled(t *testing.T) {
	cfg := Default()
	assert.Nil(t, cfg.Drop.Probability)
	assert.Nil(t, cfg.Delay.DurationMS)
	assert.Nil(t, cfg.Throttle.Probability)
	assert.Nil(t, cfg.Tamper.Probability)
	assert.Nil(t, cfg.Duplicate.Probability)
	assert.Nil(t, cfg.Bandwidth.LimitKBps)
}
