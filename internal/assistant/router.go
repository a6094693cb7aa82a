package assistant

import (
	"context"
	"strings"

	"github.com/devingeorge/devbot-ai-assistant/internal/records"
)

// Action is the routing decision for one turn.
type Action interface{ isAction() }

// CannedReply short-circuits the turn with a configured response.
type CannedReply struct {
	Response *records.CannedResponse
}

// TicketAction creates an issue in the team's configured tracker.
type TicketAction struct {
	Summary     string
	Description string
}

// LeadAction creates a CRM lead from extracted slots.
type LeadAction struct {
	Slots LeadSlots
}

// Completion falls through to the language model.
type Completion struct{}

func (CannedReply) isAction()  {}
func (TicketAction) isAction() {}
func (LeadAction) isAction()   {}
func (Completion) isAction()   {}

// Router decides, in priority order, whether a message is answered by a
// canned response, a structured action, or the completion fallback.
type Router struct {
	records *records.Service
}

// NewRouter creates a router over the record service.
func NewRouter(rs *records.Service) *Router {
	return &Router{records: rs}
}

var leadKeywords = []string{"create lead", "new lead", "add lead", "create a lead"}

// Route inspects the normalized message text and team configuration.
// Heuristics are substring containment, intentionally approximate; a
// structured action only fires when the relevant credential exists,
// otherwise the turn falls through to Completion.
func (r *Router) Route(ctx context.Context, teamID, userID, text string) Action {
	if canned := r.records.MatchCanned(ctx, teamID, text); canned != nil {
		return CannedReply{Response: canned}
	}

	lower := strings.ToLower(text)

	if strings.Contains(lower, "create") && (strings.Contains(lower, "jira") || strings.Contains(lower, "ticket")) {
		if r.records.IntegrationCredential(ctx, teamID, records.IntegrationJira) != nil {
			return TicketAction{
				Summary:     ticketSummary(text),
				Description: strings.TrimSpace(text),
			}
		}
	}

	for _, kw := range leadKeywords {
		if strings.Contains(lower, kw) {
			if r.records.TokenPair(ctx, teamID, userID) != nil {
				return LeadAction{Slots: ExtractLeadSlots(text)}
			}
			break
		}
	}

	return Completion{}
}

// ticketSummary derives an issue summary from the request text by stripping
// the routing keywords. Best effort; falls back to a fixed summary.
func ticketSummary(text string) string {
	s := strings.TrimSpace(text)
	lower := strings.ToLower(s)
	for _, marker := range []string{" about ", " for ", ": "} {
		if idx := strings.Index(lower, marker); idx >= 0 {
			if rest := strings.TrimSpace(s[idx+len(marker):]); rest != "" {
				s = rest
				break
			}
		}
	}
	if len(s) > 120 {
		s = s[:120]
	}
	if s == "" {
		return "Request from Slack"
	}
	return s
}
