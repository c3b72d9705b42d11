// Package main is the entry point for the syncerctl CLI.
package main

import (
	"os"

	"omnivore_sync/cmd/syncerctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
