// Package config provides configuration types and loading for devbot.
package config

// Config is the root configuration struct.
type Config struct {
	Slack   SlackConfig   `json:"slack"`
	LLM     LLMConfig     `json:"llm"`
	Store   StoreConfig   `json:"store"`
	Jira    JiraConfig    `json:"jira"`
	Seeding SeedingConfig `json:"seeding,omitempty"`
	Audit   AuditConfig   `json:"audit"`
	CRM     CRMConfig     `json:"crm"`
	Logging LoggingConfig `json:"logging"`
}

// SlackConfig configures the Slack gateway.
type SlackConfig struct {
	Enabled  bool   `json:"enabled" envconfig:"ENABLED"`
	BotToken string `json:"botToken" envconfig:"BOT_TOKEN"`
	AppToken string `json:"appToken" envconfig:"APP_TOKEN"`
	// BotUserID is used to detect mentions and to classify history
	// authorship. Resolved via auth.test at startup when empty.
	BotUserID string `json:"botUserId,omitempty" envconfig:"BOT_USER_ID"`
}

// LLMConfig configures the chat-completion provider.
type LLMConfig struct {
	APIKey      string  `json:"apiKey" envconfig:"API_KEY"`
	APIBase     string  `json:"apiBase,omitempty" envconfig:"API_BASE"`
	Model       string  `json:"model" envconfig:"MODEL"`
	MaxTokens   int     `json:"maxTokens" envconfig:"MAX_TOKENS"`
	Temperature float64 `json:"temperature" envconfig:"TEMPERATURE"`
}

// StoreConfig configures the record store.
type StoreConfig struct {
	// Path is the SQLite database file. ":memory:" keeps records
	// in-process for tests and local runs.
	Path string `json:"path" envconfig:"PATH"`
}

// JiraConfig holds workspace-independent Jira defaults applied when a
// stored credential omits them.
type JiraConfig struct {
	DefaultProjectKey string `json:"defaultProjectKey,omitempty" envconfig:"DEFAULT_PROJECT_KEY"`
	DefaultIssueType  string `json:"defaultIssueType,omitempty" envconfig:"DEFAULT_ISSUE_TYPE"`
}

// CRMConfig configures the Salesforce OAuth app used to refresh tokens.
type CRMConfig struct {
	TokenURL     string `json:"tokenUrl,omitempty" envconfig:"TOKEN_URL"`
	ClientID     string `json:"clientId,omitempty" envconfig:"CLIENT_ID"`
	ClientSecret string `json:"clientSecret,omitempty" envconfig:"CLIENT_SECRET"`
}

// AuditConfig configures the Kafka audit trail. Disabled when no brokers
// are set.
type AuditConfig struct {
	Brokers []string `json:"brokers,omitempty" envconfig:"BROKERS"`
	Topic   string   `json:"topic" envconfig:"TOPIC"`
}

// SeedingConfig preloads canned responses at startup: trigger phrase to
// response text.
type SeedingConfig struct {
	CannedResponses map[string]string `json:"cannedResponses,omitempty"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" envconfig:"LEVEL"`
	// Format is "text" or "json".
	Format string `json:"format" envconfig:"FORMAT"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Slack: SlackConfig{
			Enabled: true,
		},
		LLM: LLMConfig{
			APIBase:     "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			MaxTokens:   1024,
			Temperature: 0.3,
		},
		Store: StoreConfig{
			Path: "~/.devbot/devbot.db",
		},
		Jira: JiraConfig{
			DefaultIssueType: "Task",
		},
		Audit: AuditConfig{
			Topic: "devbot.turns",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
