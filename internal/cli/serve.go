package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/devingeorge/devbot-ai-assistant/internal/assistant"
	"github.com/devingeorge/devbot-ai-assistant/internal/audit"
	"github.com/devingeorge/devbot-ai-assistant/internal/bus"
	"github.com/devingeorge/devbot-ai-assistant/internal/channels"
	"github.com/devingeorge/devbot-ai-assistant/internal/config"
	"github.com/devingeorge/devbot-ai-assistant/internal/integrations/jira"
	"github.com/devingeorge/devbot-ai-assistant/internal/integrations/salesforce"
	"github.com/devingeorge/devbot-ai-assistant/internal/provider"
	"github.com/devingeorge/devbot-ai-assistant/internal/records"
	"github.com/devingeorge/devbot-ai-assistant/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Slack assistant",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	printHeader("devbot Serve")

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Config error: %v\n", err)
		os.Exit(1)
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Printf("Config invalid: %v\n", err)
		os.Exit(1)
	}
	setupLogging(cfg.Logging)

	// 2. Open the record store
	kv, closeStore, err := openStore(cfg.Store)
	if err != nil {
		fmt.Printf("Store error: %v\n", err)
		os.Exit(1)
	}
	defer closeStore()
	recordSvc := records.NewService(kv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Seed canned responses from config
	seedCannedResponses(ctx, recordSvc, cfg.Seeding)

	// 4. Bus and gateway
	msgBus := bus.NewMessageBus()
	slackChan := channels.NewSlackChannel(cfg.Slack, msgBus)
	if err := slackChan.Start(ctx); err != nil {
		fmt.Printf("Slack gateway error: %v\n", err)
		os.Exit(1)
	}
	defer slackChan.Stop()

	// 5. Integrations and audit
	httpClient := &http.Client{Timeout: 30 * time.Second}
	jiraClient := jira.NewClient(httpClient)
	crmClient := salesforce.NewClient(httpClient, cfg.CRM.TokenURL, cfg.CRM.ClientID, cfg.CRM.ClientSecret)

	var recorder audit.Recorder = audit.NopRecorder{}
	if len(cfg.Audit.Brokers) > 0 {
		pub := audit.NewPublisher(strings.Join(cfg.Audit.Brokers, ","), cfg.Audit.Topic)
		defer pub.Close()
		recorder = pub
	}

	// 6. Turn handler
	handler := assistant.NewHandler(assistant.Deps{
		Bus:     msgBus,
		Records: recordSvc,
		LLM:     provider.NewOpenAIProvider(cfg.LLM.APIKey, cfg.LLM.APIBase, cfg.LLM.Model),
		Conv:    slackChan.Conversations(),
		Issues:  jiraClient,
		Leads:   crmClient,
		Audit:   recorder,
		Params: assistant.ModelParams{
			Model:       cfg.LLM.Model,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
		},
		Channel: slackChan.Name(),
	})

	go msgBus.DispatchOutbound(ctx)
	go handler.Run(ctx)

	slog.Info("devbot running", "model", cfg.LLM.Model, "store", cfg.Store.Path)

	// 7. Wait for shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	slog.Info("Shutting down")
	cancel()
}

func setupLogging(cfg config.LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func openStore(cfg config.StoreConfig) (store.KV, func(), error) {
	if cfg.Path == ":memory:" {
		return store.NewMemoryStore(), func() {}, nil
	}
	s, err := store.NewSQLiteStore(cfg.Path)
	if err != nil {
		return nil, nil, err
	}
	return s, func() { s.Close() }, nil
}

// seedCannedResponses creates configured canned responses that don't exist
// yet. Matching is by trigger phrase; existing records are never modified.
func seedCannedResponses(ctx context.Context, svc *records.Service, seeding config.SeedingConfig) {
	if len(seeding.CannedResponses) == 0 {
		return
	}
	// Seeded records are shared across workspaces; per-team records win
	// at match time.
	seedTeam := records.GlobalTeamID
	existing, err := svc.ListCannedResponses(ctx, seedTeam)
	if err != nil {
		slog.Warn("Seed skipped, store unavailable", "error", err)
		return
	}
	have := map[string]bool{}
	for _, c := range existing {
		have[strings.ToLower(c.TriggerPhrase)] = true
	}
	for trigger, response := range seeding.CannedResponses {
		if have[strings.ToLower(trigger)] {
			continue
		}
		if _, err := svc.CreateCannedResponse(ctx, seedTeam, trigger, response); err != nil {
			slog.Warn("Seed failed", "trigger", trigger, "error", err)
		}
	}
}
