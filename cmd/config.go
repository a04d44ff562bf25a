package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage fumble configuration files",
}

var configInitPath string

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file listing every field at its default",
	Long: `init writes a template configuration file at --output (default
fumble.toml) with every field present at its default value. Fields
that are absent by default (the optional stage switches, filter,
interface and log file path) are commented out; every other field is
written uncommented at its default value. Uncommenting a field, or
editing an uncommented one, overrides that default.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigInit()
	},
}

func init() {
	configInitCmd.Flags().StringVarP(&configInitPath, "output", "o", "fumble.toml", "path to write the template to")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit() error {
	if _, err := os.Stat(configInitPath); err == nil {
		return fmt.Errorf("%s already exists, refusing to overwrite", configInitPath)
	}
	return os.WriteFile(configInitPath, []byte(defaultConfigTemplate), 0o644)
}

// defaultConfigTemplate lists every field at its default value. Fields
// that are absent by default are commented out; the others are written
// uncommented. Probabilities are quoted strings, the form
// Probability's UnmarshalText decodes.
const defaultConfigTemplate = `# fumble configuration template.
# Uncomment a field to override its default.

# filter = ""

[drop]
# probability = "0.0"

[delay]
# duration_ms = 0

[throttle]
# probability = "0.0"
duration_ms = 30
drop = false

[reorder]
probability = "0.0"
max_delay_ms = 100

[tamper]
# probability = "0.0"
amount = "0.1"
recalculate_checksums = true

[duplicate]
# probability = "0.0"
count = 1

[bandwidth]
# limit_kbps = 0

[capture]
type = "afpacket"
# interface = ""
snap_len = 1500
buffer_size = 1048576
timeout_ms = 250
promiscuous = true

[log]
level = "info"
format = "text"

[log.outputs.file]
enabled = false
# path = ""
max_size_mb = 100
max_age_days = 30
max_backups = 5
compress = true

[metrics]
enabled = false
listen = ":9091"
path = "/metrics"
`
