// Package cmd implements the CLI surface using the cobra framework.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "fumble",
	Short: "fumble - configurable network impairment for the host's own traffic",
	Long: `fumble intercepts packets matching a filter, runs each through a
configurable pipeline of drop, delay, throttle, reorder, tamper,
duplicate and bandwidth-limit stages, and re-injects survivors.

Configuration is read from a persisted TOML/YAML file (--config),
overridden by FUMBLE_-prefixed environment variables, overridden by
flags. Without --config the built-in defaults are used and environment
variables are not read.`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and runs it.
// Called once by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"path to a persisted configuration file (TOML or YAML)")
}

func exitWithError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	os.Exit(1)
}
