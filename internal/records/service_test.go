package records

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/devingeorge/devbot-ai-assistant/internal/store"
)

// failingKV simulates an unreachable store.
type failingKV struct{}

func (failingKV) Get(context.Context, string) (string, bool, error) {
	return "", false, store.ErrUnavailable
}
func (failingKV) Set(context.Context, string, string, time.Duration) error {
	return store.ErrUnavailable
}
func (failingKV) Delete(context.Context, string) error { return store.ErrUnavailable }
func (failingKV) ListKeysByPrefix(context.Context, string) ([]string, error) {
	return nil, store.ErrUnavailable
}

func TestCannedTriggerMatching(t *testing.T) {
	tests := []struct {
		trigger string
		text    string
		want    bool
	}{
		{"hello", "hello", true},
		{"hello", "HELLO", true},
		{"hello", "hello there", false},
		{"hey*", "hey there", true},
		{"hey*", "hey", true},
		{"hey*", "hi there", false},
		{"hey*", "HEY friend", true},
		{"", "anything", false},
	}
	for _, tt := range tests {
		rec := &CannedResponse{TriggerPhrase: tt.trigger}
		if got := rec.Matches(tt.text); got != tt.want {
			t.Errorf("Matches(%q, %q) = %v, want %v", tt.trigger, tt.text, got, tt.want)
		}
	}
}

func TestCannedRoundTripAndDisable(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemoryStore())

	rec, err := svc.CreateCannedResponse(ctx, "T1", "pricing", "See our pricing page.")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := svc.GetCannedResponse(ctx, "T1", rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TriggerPhrase != "pricing" || got.ResponseText != "See our pricing page." || !got.Enabled {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Fatal("timestamps not assigned")
	}

	if m := svc.MatchCanned(ctx, "T1", "Pricing"); m == nil || m.ID != rec.ID {
		t.Fatalf("expected match, got %+v", m)
	}

	// Disabling removes it from matching but not from the store.
	if err := svc.SetCannedEnabled(ctx, "T1", rec.ID, false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if m := svc.MatchCanned(ctx, "T1", "pricing"); m != nil {
		t.Fatalf("disabled record still matched: %+v", m)
	}
	if _, err := svc.GetCannedResponse(ctx, "T1", rec.ID); err != nil {
		t.Fatalf("disabled record deleted: %v", err)
	}

	// Other teams never see the record.
	if m := svc.MatchCanned(ctx, "T2", "pricing"); m != nil {
		t.Fatal("record leaked across teams")
	}
}

func TestMatchCannedPriority(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemoryStore())

	if _, err := svc.CreateCannedResponse(ctx, "T1", "help*", "wildcard short"); err != nil {
		t.Fatal(err)
	}
	longer, err := svc.CreateCannedResponse(ctx, "T1", "help me*", "wildcard long")
	if err != nil {
		t.Fatal(err)
	}
	exact, err := svc.CreateCannedResponse(ctx, "T1", "help me out", "exact")
	if err != nil {
		t.Fatal(err)
	}

	// Exact beats any wildcard.
	if m := svc.MatchCanned(ctx, "T1", "help me out"); m == nil || m.ID != exact.ID {
		t.Fatalf("want exact winner, got %+v", m)
	}
	// Longest wildcard wins when no exact match.
	if m := svc.MatchCanned(ctx, "T1", "help me please"); m == nil || m.ID != longer.ID {
		t.Fatalf("want longest prefix winner, got %+v", m)
	}
}

func TestMatchCannedDegradesOnStoreFailure(t *testing.T) {
	svc := NewService(failingKV{})
	if m := svc.MatchCanned(context.Background(), "T1", "pricing"); m != nil {
		t.Fatalf("expected degraded nil match, got %+v", m)
	}
}

func TestMonitoredChannelCap(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemoryStore())

	for i := 0; i < MaxMonitoredChannels; i++ {
		_, err := svc.AddMonitoredChannel(ctx, "T1", ChannelMonitorConfig{
			ChannelID:    fmt.Sprintf("C%03d", i),
			ChannelName:  fmt.Sprintf("chan-%d", i),
			ResponseType: ResponseSummary,
			Enabled:      true,
			AddedBy:      "U1",
		})
		if err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	_, err := svc.AddMonitoredChannel(ctx, "T1", ChannelMonitorConfig{
		ChannelID:    "C999",
		ResponseType: ResponseSummary,
		Enabled:      true,
	})
	if !errors.Is(err, ErrMonitorLimit) {
		t.Fatalf("want ErrMonitorLimit, got %v", err)
	}

	// Another team is unaffected.
	if _, err := svc.AddMonitoredChannel(ctx, "T2", ChannelMonitorConfig{
		ChannelID:    "C999",
		ResponseType: ResponseInsights,
		Enabled:      true,
	}); err != nil {
		t.Fatalf("other team blocked: %v", err)
	}
}

func TestMonitorRoundTripAndLookup(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemoryStore())

	added, err := svc.AddMonitoredChannel(ctx, "T1", ChannelMonitorConfig{
		ChannelID:        "C123",
		ChannelName:      "support",
		ResponseType:     ResponseQuestions,
		Enabled:          true,
		AutoCreateTicket: true,
		AddedBy:          "U9",
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if added.AddedAt.IsZero() {
		t.Fatal("AddedAt not assigned")
	}
	m := svc.FindMonitor(ctx, "T1", "C123")
	if m == nil || m.ChannelName != "support" || m.ResponseType != ResponseQuestions || !m.AutoCreateTicket {
		t.Fatalf("lookup mismatch: %+v", m)
	}
	if svc.FindMonitor(ctx, "T1", "C124") != nil {
		t.Fatal("unknown channel matched")
	}
	if _, err := svc.AddMonitoredChannel(ctx, "T1", ChannelMonitorConfig{ChannelID: "C123", ResponseType: ResponseSummary}); err == nil {
		t.Fatal("duplicate channel accepted")
	}
	if _, err := svc.AddMonitoredChannel(ctx, "T1", ChannelMonitorConfig{ChannelID: "C200", ResponseType: "sentiment"}); err == nil {
		t.Fatal("invalid response type accepted")
	}
}

func TestProfileAndCredentialRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemoryStore())

	if svc.UserProfile(ctx, "T1", "U1") != nil {
		t.Fatal("profile before save")
	}
	prof := UserBehaviorProfile{Tone: "casual", BusinessType: "saas", CompanyName: "Acme"}
	if err := svc.SaveUserProfile(ctx, "T1", "U1", prof); err != nil {
		t.Fatalf("save profile: %v", err)
	}
	if got := svc.UserProfile(ctx, "T1", "U1"); got == nil || *got != prof {
		t.Fatalf("profile round trip: %+v", got)
	}

	cred := IntegrationCredential{
		Type:       IntegrationJira,
		BaseURL:    "https://acme.atlassian.net",
		Username:   "bot@acme.com",
		APIToken:   "tok",
		ProjectKey: "SUP",
		IssueType:  "Task",
	}
	if err := svc.SaveIntegrationCredential(ctx, "T1", cred); err != nil {
		t.Fatalf("save credential: %v", err)
	}
	if got := svc.IntegrationCredential(ctx, "T1", IntegrationJira); got == nil || *got != cred {
		t.Fatalf("credential round trip: %+v", got)
	}
	if names := svc.EnabledIntegrations(ctx, "T1"); len(names) != 1 || names[0] != IntegrationJira {
		t.Fatalf("integrations: %v", names)
	}
	if err := svc.DeleteIntegrationCredential(ctx, "T1", IntegrationJira); err != nil {
		t.Fatalf("delete credential: %v", err)
	}
	if svc.IntegrationCredential(ctx, "T1", IntegrationJira) != nil {
		t.Fatal("credential survived delete")
	}
}

func TestTokenPairRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemoryStore())

	if svc.TokenPair(ctx, "T1", "U1") != nil {
		t.Fatal("tokens before save")
	}
	if err := svc.SaveTokenPair(ctx, "T1", "U1", TokenPair{
		AccessToken:  "at",
		RefreshToken: "rt",
		InstanceURL:  "https://acme.my.salesforce.com",
	}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got := svc.TokenPair(ctx, "T1", "U1")
	if got == nil || got.AccessToken != "at" || got.InstanceURL != "https://acme.my.salesforce.com" {
		t.Fatalf("round trip: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("CreatedAt not assigned")
	}
}

func TestIncrementTurnCount(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemoryStore())

	for want := int64(1); want <= 3; want++ {
		if got := svc.IncrementTurnCount(ctx, "T1", "C1"); got != want {
			t.Fatalf("count = %d, want %d", got, want)
		}
	}
	if got := svc.IncrementTurnCount(ctx, "T1", "C2"); got != 1 {
		t.Fatalf("channel counters shared: %d", got)
	}

	// Degrades to zero on store failure.
	if got := NewService(failingKV{}).IncrementTurnCount(ctx, "T1", "C1"); got != 0 {
		t.Fatalf("degraded count = %d", got)
	}
}

func TestMatchCannedGlobalFallback(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemoryStore())

	if _, err := svc.CreateCannedResponse(ctx, GlobalTeamID, "pricing", "Global pricing answer."); err != nil {
		t.Fatal(err)
	}

	// Teams without their own record fall back to the global one.
	got := svc.MatchCanned(ctx, "T1", "pricing")
	if got == nil || got.ResponseText != "Global pricing answer." {
		t.Fatalf("global fallback: %+v", got)
	}

	// A workspace record shadows the global one.
	if _, err := svc.CreateCannedResponse(ctx, "T1", "pricing", "Team pricing answer."); err != nil {
		t.Fatal(err)
	}
	got = svc.MatchCanned(ctx, "T1", "pricing")
	if got == nil || got.ResponseText != "Team pricing answer." {
		t.Fatalf("team record must win: %+v", got)
	}
}
