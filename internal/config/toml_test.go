package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrecheckTOML_IgnoresNonTOMLPaths(t *testing.T) {
	assert.NoError(t, precheckTOML("fumble.yaml", []byte("not: valid: toml: at: all")))
}

func TestPrecheckTOML_RejectsBadSyntax(t *testing.T) {
	assert.Error(t, precheckTOML("fumble.toml", []byte("filter = \n")))
}

func TestPrecheckTOML_AcceptsValidTOML(t *testing.T) {
	assert.NoError(t, precheckTOML("fumble.toml", []byte("filter = \"tcp\"\n")))
}
