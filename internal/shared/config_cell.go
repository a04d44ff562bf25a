// Package shared holds the mutex-protected configuration cell that
// bridges the TUI thread (sole writer) and the pipeline driver (sole
// runtime reader).
package shared

import (
	"sync"

	"github.com/fumble/fumble/internal/config"
)

// ConfigCell is a mutex-guarded Configuration. Critical sections are
// kept to a plain copy in and out; never held across I/O.
type ConfigCell struct {
	mu  sync.Mutex
	cfg config.Configuration
}

// NewConfigCell wraps an initial configuration.
func NewConfigCell(initial config.Configuration) *ConfigCell {
	return &ConfigCell{cfg: initial}
}

// Snapshot copies out the current configuration.
func (c *ConfigCell) Snapshot() config.Configuration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// Set replaces the configuration wholesale.
func (c *ConfigCell) Set(cfg config.Configuration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg
}

// Mutate applies fn to the current configuration under the lock,
// used by the TUI to apply a single parsed field update at a time.
func (c *ConfigCell) Mutate(fn func(*config.Configuration)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.cfg)
}
