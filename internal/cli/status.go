package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/devingeorge/devbot-ai-assistant/internal/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("devbot Version")
		fmt.Printf("Version: %s\n", version)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration status",
	Run: func(cmd *cobra.Command, args []string) {
		printHeader("devbot Status")
		fmt.Printf("Version: %s\n", version)

		path, err := config.ConfigPath()
		if err == nil {
			fmt.Println("Config:  " + path)
		}

		cfg, err := config.Load()
		if err != nil {
			fmt.Printf("Config:  load failed: %v\n", err)
			return
		}
		check := func(name string, ok bool) {
			mark := "✗"
			if ok {
				mark = "✓"
			}
			fmt.Printf("%-10s %s\n", name+":", mark)
		}
		check("Slack", cfg.Slack.Enabled && cfg.Slack.BotToken != "" && cfg.Slack.AppToken != "")
		check("LLM key", cfg.LLM.APIKey != "")
		check("Store", cfg.Store.Path != "")
		check("Audit", len(cfg.Audit.Brokers) > 0)
	},
}
