// Package main is the entry point for the devbot CLI.
package main

import (
	"os"

	"github.com/devingeorge/devbot-ai-assistant/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
