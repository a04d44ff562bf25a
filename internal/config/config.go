// Package config loads the fumble configuration using viper, following
// the layered file+env+defaults pattern of the teacher's global
// configuration loader.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/fumble/fumble/internal/probability"
)

// Configuration is the aggregate of every stage config plus the
// capture filter string (spec.md §6). Each optional stage config is
// modeled as a pointer: nil means Absent (bypassed), non-nil means
// Present(parameters).
type Configuration struct {
	Filter string `mapstructure:"filter"`

	Drop      DropConfig      `mapstructure:"drop"`
	Delay     DelayConfig     `mapstructure:"delay"`
	Throttle  ThrottleConfig  `mapstructure:"throttle"`
	Reorder   ReorderConfig   `mapstructure:"reorder"`
	Tamper    TamperConfig    `mapstructure:"tamper"`
	Duplicate DuplicateConfig `mapstructure:"duplicate"`
	Bandwidth BandwidthConfig `mapstructure:"bandwidth"`

	Capture CaptureConfig `mapstructure:"capture"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// DropConfig configures the Drop stage (C4).
type DropConfig struct {
	Probability *probability.Probability `mapstructure:"probability"`
}

// DelayConfig configures the Delay stage (C5).
type DelayConfig struct {
	DurationMS *int64 `mapstructure:"duration_ms"`
}

// Duration returns the configured delay, or zero if absent.
func (d DelayConfig) Duration() time.Duration {
	if d.DurationMS == nil {
		return 0
	}
	return time.Duration(*d.DurationMS) * time.Millisecond
}

// ThrottleConfig configures the Throttle stage (C6).
type ThrottleConfig struct {
	Probability *probability.Probability `mapstructure:"probability"`
	DurationMS  int64                    `mapstructure:"duration_ms"`
	Drop        bool                     `mapstructure:"drop"`
}

// Duration returns the configured throttle window length.
func (t ThrottleConfig) Duration() time.Duration {
	return time.Duration(t.DurationMS) * time.Millisecond
}

// ReorderConfig configures the Reorder stage (C7). Unlike the other
// probability-gated stages, Reorder's probability is always present
// (default 0, i.e. never reorder) rather than Absent/Present, per
// spec.md §6's default-0 entry.
type ReorderConfig struct {
	Probability  probability.Probability `mapstructure:"probability"`
	MaxDelayMS   int64                   `mapstructure:"max_delay_ms"`
}

// MaxDelay returns the configured upper bound on reorder delay.
func (r ReorderConfig) MaxDelay() time.Duration {
	return time.Duration(r.MaxDelayMS) * time.Millisecond
}

// TamperConfig configures the Tamper stage (C8).
type TamperConfig struct {
	Probability           *probability.Probability `mapstructure:"probability"`
	Amount                probability.Probability  `mapstructure:"amount"`
	RecalculateChecksums  bool                     `mapstructure:"recalculate_checksums"`
}

// DuplicateConfig configures the Duplicate stage (C9).
type DuplicateConfig struct {
	Probability *probability.Probability `mapstructure:"probability"`
	Count       int                      `mapstructure:"count"`
}

// BandwidthConfig configures the Bandwidth stage (C10).
type BandwidthConfig struct {
	LimitKBps *int `mapstructure:"limit_kbps"`
}

// CaptureConfig selects and configures the capture/inject interface.
type CaptureConfig struct {
	Type        string `mapstructure:"type"` // "afpacket" | "pcap"
	Interface   string `mapstructure:"interface"`
	SnapLen     int    `mapstructure:"snap_len"`
	BufferSize  int    `mapstructure:"buffer_size"`
	TimeoutMS   int    `mapstructure:"timeout_ms"`
	Promiscuous bool   `mapstructure:"promiscuous"`
}

// LogConfig contains logging settings, following internal/log/logger.go's
// slog+lumberjack shape.
type LogConfig struct {
	Level   string           `mapstructure:"level"`
	Format  string           `mapstructure:"format"`
	Outputs LogOutputsConfig `mapstructure:"outputs"`
}

// LogOutputsConfig enumerates structured log output destinations.
type LogOutputsConfig struct {
	File FileOutputConfig `mapstructure:"file"`
}

// FileOutputConfig configures rotating file output via lumberjack.
type FileOutputConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// MetricsConfig contains Prometheus metrics server settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from path (YAML or TOML, dispatched by
// viper on file extension) with FUMBLE_-prefixed environment overrides
// and applies the table of defaults from spec.md §6.
func Load(path string) (*Configuration, error) {
	if raw, err := os.ReadFile(path); err == nil {
		if err := precheckTOML(path, raw); err != nil {
			return nil, err
		}
	}

	v := viper.New()
	v.SetConfigFile(path)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v.SetEnvPrefix("FUMBLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Configuration
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	)
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook)); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Default returns a Configuration populated with spec.md §6's defaults
// and no stages enabled, used when no config file is supplied.
func Default() *Configuration {
	v := viper.New()
	setDefaults(v)
	var cfg Configuration
	_ = v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	)))
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("throttle.duration_ms", 30)
	v.SetDefault("throttle.drop", false)
	v.SetDefault("reorder.probability", "0")
	v.SetDefault("reorder.max_delay_ms", 100)
	v.SetDefault("tamper.amount", "0.1")
	v.SetDefault("tamper.recalculate_checksums", true)
	v.SetDefault("duplicate.count", 1)

	v.SetDefault("capture.type", "afpacket")
	v.SetDefault("capture.snap_len", 1500)
	v.SetDefault("capture.buffer_size", 1024*1024)
	v.SetDefault("capture.timeout_ms", 250)
	v.SetDefault("capture.promiscuous", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.outputs.file.enabled", false)
	v.SetDefault("log.outputs.file.max_size_mb", 100)
	v.SetDefault("log.outputs.file.max_age_days", 30)
	v.SetDefault("log.outputs.file.max_backups", 5)
	v.SetDefault("log.outputs.file.compress", true)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen", ":9091")
	v.SetDefault("metrics.path", "/metrics")
}

// Validate checks field-level invariants not already enforced by
// Probability's own constructor (spec.md §7 ConfigError).
func (c *Configuration) Validate() error {
	if c.Duplicate.Count < 1 {
		return fmt.Errorf("duplicate.count must be >= 1, got %d", c.Duplicate.Count)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug/info/warn/error)", c.Log.Level)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("invalid log format: %s (must be json/text)", c.Log.Format)
	}
	if c.Capture.Type != "afpacket" && c.Capture.Type != "pcap" {
		return fmt.Errorf("unsupported capture.type: %s (must be afpacket/pcap)", c.Capture.Type)
	}
	return nil
}
