// Package main is the entry point for fumble.
package main

import (
	"fmt"
	"os"

	"github.com/fumble/fumble/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
