package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fumble/fumble/internal/bpf"
)

var validateFilterCmd = &cobra.Command{
	Use:   "validate-filter FILTER",
	Short: "Check a filter expression for syntax and port-range errors",
	Long: `validate-filter opens and immediately closes a throwaway capture
handle against the given filter, then checks any port literal it finds
satisfies 0 <= port <= 65535.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bpf.Validate(args[0]); err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "INVALID: %v\n", err)
			exitWithError("filter validation failed", err)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "VALID: %q\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateFilterCmd)
}
