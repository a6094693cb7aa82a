// Package records defines the team-scoped configuration records persisted
// in the key-value store and the service that manages them.
package records

import (
	"strings"
	"time"
)

// Record type prefixes used in store keys.
const (
	KeyCanned     = "canned"
	KeyMonitor    = "monitor"
	KeyProfile    = "profile"
	KeyCredential = "credential"
	KeyTokens     = "tokens"
	KeyCounter    = "counter"
)

// IntegrationJira is the issue-tracker integration type.
const IntegrationJira = "jira"

// MaxMonitoredChannels is the hard cap of live monitor entries per team.
const MaxMonitoredChannels = 5

// GlobalTeamID scopes records shared by all workspaces, e.g. seeded canned
// responses. Per-team records take precedence at lookup time.
const GlobalTeamID = "global"

// ResponseType controls how the bot reacts to activity in a monitored channel.
type ResponseType string

const (
	ResponseAnalytical ResponseType = "analytical"
	ResponseSummary    ResponseType = "summary"
	ResponseQuestions  ResponseType = "questions"
	ResponseInsights   ResponseType = "insights"
)

// ValidResponseType reports whether rt is one of the known response types.
func ValidResponseType(rt ResponseType) bool {
	switch rt {
	case ResponseAnalytical, ResponseSummary, ResponseQuestions, ResponseInsights:
		return true
	}
	return false
}

// CannedResponse maps a trigger phrase to a fixed reply that bypasses the
// language model. TriggerPhrase is an exact match, or a prefix match when
// it ends in '*'.
type CannedResponse struct {
	ID            string    `json:"id"`
	TriggerPhrase string    `json:"trigger_phrase"`
	ResponseText  string    `json:"response_text"`
	Enabled       bool      `json:"enabled"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Matches reports whether text (already trimmed) matches the trigger,
// case-insensitively.
func (c *CannedResponse) Matches(text string) bool {
	trigger := strings.ToLower(strings.TrimSpace(c.TriggerPhrase))
	text = strings.ToLower(strings.TrimSpace(text))
	if trigger == "" {
		return false
	}
	if prefix, ok := strings.CutSuffix(trigger, "*"); ok {
		return strings.HasPrefix(text, prefix)
	}
	return text == trigger
}

// ChannelMonitorConfig marks a channel whose activity the bot analyzes.
type ChannelMonitorConfig struct {
	ChannelID        string       `json:"channel_id"`
	ChannelName      string       `json:"channel_name"`
	ResponseType     ResponseType `json:"response_type"`
	Enabled          bool         `json:"enabled"`
	AutoCreateTicket bool         `json:"auto_create_ticket"`
	AddedAt          time.Time    `json:"added_at"`
	AddedBy          string       `json:"added_by"`
}

// UserBehaviorProfile holds per-user behavioral overrides injected into the
// system instruction.
type UserBehaviorProfile struct {
	Tone                 string `json:"tone"`
	BusinessType         string `json:"business_type"`
	CompanyName          string `json:"company_name,omitempty"`
	AdditionalDirections string `json:"additional_directions,omitempty"`
	WelcomeMessage       string `json:"welcome_message,omitempty"`
}

// IntegrationCredential configures an issue-tracker integration. The
// existence of the record is the feature flag for the router.
type IntegrationCredential struct {
	Type       string `json:"type"`
	BaseURL    string `json:"base_url"`
	Username   string `json:"username"`
	APIToken   string `json:"api_token"`
	ProjectKey string `json:"project_key"`
	IssueType  string `json:"issue_type"`
}

// TokenPair holds CRM OAuth credentials for a (team, user) pair. Mutated in
// place on refresh.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	InstanceURL  string    `json:"instance_url"`
	CreatedAt    time.Time `json:"created_at"`
}
