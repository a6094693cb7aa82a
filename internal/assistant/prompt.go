package assistant

import (
	"fmt"
	"strings"

	"github.com/devingeorge/devbot-ai-assistant/internal/records"
)

// BaseInstruction is the fixed opening of every system instruction.
const BaseInstruction = "You are a helpful workplace assistant. Be concise, accurate, and context-aware. " +
	"Answer based on the conversation so far; say so plainly when you do not know something."

// ComposePrompt merges the base instruction, the user's behavioral profile,
// and the enabled integrations into one system instruction. Pure and
// deterministic; no I/O.
func ComposePrompt(base string, profile *records.UserBehaviorProfile, integrations []string) string {
	var sb strings.Builder
	sb.WriteString(base)

	if profile != nil {
		if profile.Tone != "" {
			fmt.Fprintf(&sb, "\nUse a %s tone.", profile.Tone)
		}
		if profile.BusinessType != "" {
			fmt.Fprintf(&sb, "\nThe user works in a %s business.", profile.BusinessType)
		}
		if profile.CompanyName != "" {
			fmt.Fprintf(&sb, "\nThe user's company is %s.", profile.CompanyName)
		}
		if profile.AdditionalDirections != "" {
			fmt.Fprintf(&sb, "\nAdditional directions from the user: %s", profile.AdditionalDirections)
		}
	}

	if len(integrations) > 0 {
		fmt.Fprintf(&sb, "\nAvailable integrations: %s.", strings.Join(integrations, ", "))
	}

	return sb.String()
}

// monitorInstruction returns the analysis instruction for a monitored
// channel's configured response type.
func monitorInstruction(rt records.ResponseType) string {
	switch rt {
	case records.ResponseAnalytical:
		return "Analyze the following channel discussion. Identify the key decisions, risks, and open items, and explain their implications briefly."
	case records.ResponseSummary:
		return "Summarize the following channel discussion in a few short bullet points."
	case records.ResponseQuestions:
		return "Read the following channel discussion and list the most important unanswered questions it raises."
	case records.ResponseInsights:
		return "Read the following channel discussion and surface non-obvious insights, patterns, or follow-ups worth acting on."
	default:
		return "Summarize the following channel discussion."
	}
}
