// Package assistant implements the conversation pipeline: context assembly,
// intent routing, prompt composition, and the per-turn handler.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/devingeorge/devbot-ai-assistant/internal/audit"
	"github.com/devingeorge/devbot-ai-assistant/internal/bus"
	"github.com/devingeorge/devbot-ai-assistant/internal/events"
	"github.com/devingeorge/devbot-ai-assistant/internal/integrations"
	"github.com/devingeorge/devbot-ai-assistant/internal/integrations/jira"
	"github.com/devingeorge/devbot-ai-assistant/internal/integrations/salesforce"
	"github.com/devingeorge/devbot-ai-assistant/internal/provider"
	"github.com/devingeorge/devbot-ai-assistant/internal/records"
)

const apologyText = "Sorry, I couldn't generate a response right now. Please try again in a moment."

// ModelParams are the fixed sampling parameters for completion calls.
type ModelParams struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// IssueCreator creates tracker issues. Implemented by *jira.Client.
type IssueCreator interface {
	CreateIssue(ctx context.Context, cred *records.IntegrationCredential, summary, description string) (*jira.Issue, error)
}

// LeadCreator creates CRM leads. Implemented by *salesforce.Client.
type LeadCreator interface {
	CreateLead(ctx context.Context, tokens *records.TokenPair, lead salesforce.Lead, persist func(records.TokenPair) error) (string, error)
}

// Deps are the collaborators of the turn handler. All are injected; the
// handler holds no process-wide singletons.
type Deps struct {
	Bus     *bus.MessageBus
	Records *records.Service
	LLM     provider.LLMProvider
	Conv    Conversations
	Issues  IssueCreator
	Leads   LeadCreator
	Audit   audit.Recorder
	Params  ModelParams
	// Channel is the outbound gateway name replies are published to.
	Channel string
}

// Handler processes inbound events end to end: one event, one reply.
type Handler struct {
	deps   Deps
	router *Router
}

// NewHandler creates the turn handler.
func NewHandler(deps Deps) *Handler {
	if deps.Audit == nil {
		deps.Audit = audit.NopRecorder{}
	}
	if deps.Channel == "" {
		deps.Channel = "slack"
	}
	if deps.Params.Model == "" && deps.LLM != nil {
		deps.Params.Model = deps.LLM.DefaultModel()
	}
	return &Handler{
		deps:   deps,
		router: NewRouter(deps.Records),
	}
}

// Run consumes inbound events until the context is cancelled. Each event is
// handled in its own goroutine; turns never block each other.
func (h *Handler) Run(ctx context.Context) error {
	slog.Info("Turn handler started")
	for {
		ev, err := h.deps.Bus.ConsumeInbound(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Error("Failed to consume event", "error", err)
			continue
		}
		go h.Handle(ctx, ev)
	}
}

// Handle processes one event to a final reply or a logged no-op. Errors
// never escape: every failure becomes user-visible text or a log line.
func (h *Handler) Handle(ctx context.Context, ev events.Event) {
	switch e := ev.(type) {
	case events.Mention:
		h.handleMessage(ctx, e.Ref, e.UserID, e.MessageTS, e.Text, ev.Kind())
	case events.DirectMessage:
		h.handleMessage(ctx, e.Ref, e.UserID, e.MessageTS, e.Text, ev.Kind())
	case events.ThreadReply:
		h.handleMessage(ctx, e.Ref, e.UserID, e.MessageTS, e.Text, ev.Kind())
	case events.ButtonClick:
		h.handleMessage(ctx, e.Ref, e.UserID, "", e.Value, ev.Kind())
	case events.ChannelActivity:
		h.handleMonitored(ctx, e)
	case events.AssistantThreadStarted:
		h.handleThreadStarted(ctx, e)
	default:
		slog.Warn("Unhandled event kind", "kind", ev.Kind())
	}
}

func (h *Handler) handleMessage(ctx context.Context, ref events.ConversationRef, userID, triggerTS, text string, kind events.Kind) {
	start := time.Now()
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	h.deps.Records.IncrementTurnCount(ctx, ref.TeamID, ref.ChannelID)

	action := h.router.Route(ctx, ref.TeamID, userID, text)
	var reply, actionName, outcome string
	switch a := action.(type) {
	case CannedReply:
		reply = a.Response.ResponseText
		actionName, outcome = "canned", "ok"
	case TicketAction:
		reply, outcome = h.createTicket(ctx, ref.TeamID, a)
		actionName = "ticket"
	case LeadAction:
		reply, outcome = h.createLead(ctx, ref.TeamID, userID, a)
		actionName = "lead"
	case Completion:
		reply, outcome = h.complete(ctx, ref, userID, triggerTS, text)
		actionName = "completion"
	}

	h.reply(ref, "", reply)
	h.deps.Audit.RecordTurn(ctx, audit.TurnEvent{
		TeamID:    ref.TeamID,
		ChannelID: ref.ChannelID,
		UserID:    userID,
		EventKind: string(kind),
		Action:    actionName,
		Outcome:   outcome,
		LatencyMs: time.Since(start).Milliseconds(),
	})
}

// complete is the fallback path: assemble context, compose the system
// instruction, and make exactly one completion call.
func (h *Handler) complete(ctx context.Context, ref events.ConversationRef, userID, triggerTS, text string) (string, string) {
	window := BuildContext(ctx, h.deps.Conv, ref, triggerTS, HistoryLimit(ref))
	profile := h.deps.Records.UserProfile(ctx, ref.TeamID, userID)
	enabled := h.deps.Records.EnabledIntegrations(ctx, ref.TeamID)
	system := ComposePrompt(BaseInstruction, profile, enabled)

	messages := make([]provider.Message, 0, len(window)+2)
	messages = append(messages, provider.Message{Role: provider.RoleSystem, Content: system})
	messages = append(messages, window...)
	messages = append(messages, provider.Message{Role: provider.RoleUser, Content: text})

	resp, err := h.deps.LLM.Chat(ctx, &provider.ChatRequest{
		Messages:    messages,
		Model:       h.deps.Params.Model,
		MaxTokens:   h.deps.Params.MaxTokens,
		Temperature: h.deps.Params.Temperature,
	})
	if err != nil {
		slog.Error("Completion failed", "team", ref.TeamID, "channel", ref.ChannelID, "error", err)
		return apologyText, "upstream_error"
	}
	return resp.Content, "ok"
}

func (h *Handler) createTicket(ctx context.Context, teamID string, a TicketAction) (string, string) {
	cred := h.deps.Records.IntegrationCredential(ctx, teamID, records.IntegrationJira)
	issue, err := h.deps.Issues.CreateIssue(ctx, cred, a.Summary, a.Description)
	if err != nil {
		return integrationErrorText("ticket", err), "error"
	}
	return fmt.Sprintf("Created %s: %s", issue.Key, issue.BrowseURL), "ok"
}

func (h *Handler) createLead(ctx context.Context, teamID, userID string, a LeadAction) (string, string) {
	tokens := h.deps.Records.TokenPair(ctx, teamID, userID)
	id, err := h.deps.Leads.CreateLead(ctx, tokens, salesforce.Lead{
		FirstName: a.Slots.FirstName,
		LastName:  a.Slots.LastName,
		Company:   a.Slots.Company,
		Email:     a.Slots.Email,
	}, func(tp records.TokenPair) error {
		return h.deps.Records.SaveTokenPair(ctx, teamID, userID, tp)
	})
	if err != nil {
		return integrationErrorText("lead", err), "error"
	}

	reply := fmt.Sprintf("Created lead %s (%s at %s)", id, strings.TrimSpace(a.Slots.FirstName+" "+a.Slots.LastName), a.Slots.Company)
	var notes []string
	if a.Slots.NameDefaulted {
		notes = append(notes, "no name found, used a placeholder")
	}
	if a.Slots.CompanyDefaulted {
		notes = append(notes, "no company found, used \""+DefaultLeadCompany+"\"")
	}
	if len(notes) > 0 {
		reply += ". Note: " + strings.Join(notes, "; ") + "."
	}
	return reply, "ok"
}

// handleMonitored analyzes activity in a monitored channel and replies in
// the message's thread.
func (h *Handler) handleMonitored(ctx context.Context, e events.ChannelActivity) {
	mon := h.deps.Records.FindMonitor(ctx, e.Ref.TeamID, e.Ref.ChannelID)
	if mon == nil {
		return
	}
	start := time.Now()

	window := BuildContext(ctx, h.deps.Conv, e.Ref, e.MessageTS, FlatHistoryLimit)
	messages := make([]provider.Message, 0, len(window)+2)
	messages = append(messages, provider.Message{Role: provider.RoleSystem, Content: monitorInstruction(mon.ResponseType)})
	messages = append(messages, window...)
	messages = append(messages, provider.Message{Role: provider.RoleUser, Content: e.Text})

	resp, err := h.deps.LLM.Chat(ctx, &provider.ChatRequest{
		Messages:    messages,
		Model:       h.deps.Params.Model,
		MaxTokens:   h.deps.Params.MaxTokens,
		Temperature: h.deps.Params.Temperature,
	})
	if err != nil {
		slog.Error("Monitor analysis failed", "team", e.Ref.TeamID, "channel", e.Ref.ChannelID, "error", err)
		return
	}
	reply := resp.Content
	outcome := "ok"

	if mon.AutoCreateTicket {
		if cred := h.deps.Records.IntegrationCredential(ctx, e.Ref.TeamID, records.IntegrationJira); cred != nil {
			issue, err := h.deps.Issues.CreateIssue(ctx, cred, ticketSummary(e.Text), e.Text)
			if err != nil {
				slog.Warn("Monitor auto-ticket failed", "team", e.Ref.TeamID, "error", err)
				outcome = "ticket_error"
			} else {
				reply += fmt.Sprintf("\nTracked as %s: %s", issue.Key, issue.BrowseURL)
			}
		}
	}

	// Keep monitor chatter out of the channel body.
	h.deps.Bus.PublishOutbound(&bus.Reply{
		Channel:  h.deps.Channel,
		Ref:      e.Ref,
		ThreadTS: e.MessageTS,
		Text:     reply,
	})
	h.deps.Audit.RecordTurn(ctx, audit.TurnEvent{
		TeamID:    e.Ref.TeamID,
		ChannelID: e.Ref.ChannelID,
		UserID:    e.UserID,
		EventKind: string(e.Kind()),
		Action:    "monitor_" + string(mon.ResponseType),
		Outcome:   outcome,
		LatencyMs: time.Since(start).Milliseconds(),
	})
}

// handleThreadStarted greets the user when their profile defines a welcome
// message.
func (h *Handler) handleThreadStarted(ctx context.Context, e events.AssistantThreadStarted) {
	profile := h.deps.Records.UserProfile(ctx, e.Ref.TeamID, e.UserID)
	if profile == nil || strings.TrimSpace(profile.WelcomeMessage) == "" {
		return
	}
	h.reply(e.Ref, "", profile.WelcomeMessage)
}

func (h *Handler) reply(ref events.ConversationRef, threadTS, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	h.deps.Bus.PublishOutbound(&bus.Reply{
		Channel:  h.deps.Channel,
		Ref:      ref,
		ThreadTS: threadTS,
		Text:     text,
	})
}

// integrationErrorText converts an integration failure into the user-visible
// reply, reporting the upstream error message verbatim when available.
func integrationErrorText(what string, err error) string {
	var re *integrations.RequestError
	switch {
	case errors.As(err, &re):
		return fmt.Sprintf("I couldn't create the %s: %s", what, re.Body)
	case errors.Is(err, integrations.ErrAuthExpired):
		return fmt.Sprintf("I couldn't create the %s: the connection has expired. Please reconnect the integration.", what)
	case errors.Is(err, integrations.ErrNotConfigured):
		return fmt.Sprintf("I couldn't create the %s: the integration isn't configured for this workspace.", what)
	default:
		return fmt.Sprintf("I couldn't create the %s: %v", what, err)
	}
}
