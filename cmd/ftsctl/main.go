// Package main provides the entry point for the ftsctl CLI.
package main

import (
	"os"

	"github.com/ftsengine/ftsengine/cmd/ftsctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
