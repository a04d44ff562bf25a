package config

import (
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// precheckTOML gives a clearer syntax error than viper's generic
// "failed to read config file" for the common persisted format
// (spec.md §6 calls out TOML as the canonical example). Only the
// syntax is checked here; typed decoding still goes through viper's
// mapstructure-based Unmarshal so the two codecs never disagree on
// field semantics.
func precheckTOML(path string, data []byte) error {
	if !strings.HasSuffix(path, ".toml") {
		return nil
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid TOML syntax in %s: %w", path, err)
	}
	return nil
}
