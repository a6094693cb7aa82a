// Package cli implements the devbot command line interface.
package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/devingeorge/devbot-ai-assistant/internal/cli.version=1.2.3"
	version = "0.3.0"
	logo    = "\n" +
		"     _            _           _\n" +
		"  __| | _____   _| |__   ___ | |_\n" +
		" / _` |/ _ \\ \\ / / '_ \\ / _ \\| __|\n" +
		"| (_| |  __/\\ V /| |_) | (_) | |_\n" +
		" \\__,_|\\___| \\_/ |_.__/ \\___/ \\__|\n"
)

var rootCmd = &cobra.Command{
	Use:   "devbot",
	Short: "devbot - AI assistant for Slack workspaces",
	Long:  color.CyanString(logo) + "\nAn AI-powered Slack assistant with canned responses, channel monitoring,\nand Jira/Salesforce integrations.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
}

func printHeader(title string) {
	fmt.Println(color.CyanString(logo))
	if title != "" {
		fmt.Println(title)
		fmt.Println("─────────────────────")
	}
}
