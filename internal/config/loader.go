package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const (
	// ConfigDir is the default config directory name.
	ConfigDir = ".devbot"
	// ConfigFile is the default config file name.
	ConfigFile = "config.json"
)

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	if explicit := strings.TrimSpace(os.Getenv("DEVBOT_CONFIG")); explicit != "" {
		if strings.HasPrefix(explicit, "~") {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			return filepath.Join(home, explicit[1:]), nil
		}
		return explicit, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigDir, ConfigFile), nil
}

// Load loads the configuration from file and environment variables.
// Priority: environment > file > defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	path, err := ConfigPath()
	if err != nil {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	// If the file doesn't exist, continue with defaults.

	envconfig.Process("DEVBOT_SLACK", &cfg.Slack)
	envconfig.Process("DEVBOT_LLM", &cfg.LLM)
	envconfig.Process("DEVBOT_STORE", &cfg.Store)
	envconfig.Process("DEVBOT_JIRA", &cfg.Jira)
	envconfig.Process("DEVBOT_AUDIT", &cfg.Audit)
	envconfig.Process("DEVBOT_CRM", &cfg.CRM)
	envconfig.Process("DEVBOT_LOGGING", &cfg.Logging)

	// Fallbacks for conventional env var names.
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}
	if cfg.Slack.BotToken == "" {
		cfg.Slack.BotToken = strings.TrimSpace(os.Getenv("SLACK_BOT_TOKEN"))
	}
	if cfg.Slack.AppToken == "" {
		cfg.Slack.AppToken = strings.TrimSpace(os.Getenv("SLACK_APP_TOKEN"))
	}

	// Expand ~ in paths.
	if strings.HasPrefix(cfg.Store.Path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Store.Path = filepath.Join(home, cfg.Store.Path[1:])
		}
	}

	return cfg, nil
}

// Save writes the configuration to the config file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Validate reports configuration problems that make the bot unable to run.
func Validate(cfg *Config) error {
	if cfg.Slack.Enabled {
		if cfg.Slack.BotToken == "" {
			return fmt.Errorf("slack.botToken is required (or SLACK_BOT_TOKEN)")
		}
		if cfg.Slack.AppToken == "" {
			return fmt.Errorf("slack.appToken is required (or SLACK_APP_TOKEN)")
		}
		if !strings.HasPrefix(cfg.Slack.AppToken, "xapp-") {
			return fmt.Errorf("slack.appToken must be an app-level token (xapp-)")
		}
	}
	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("llm.apiKey is required (or OPENAI_API_KEY)")
	}
	if cfg.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	return nil
}
