package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/devingeorge/devbot-ai-assistant/internal/config"
	"github.com/devingeorge/devbot-ai-assistant/internal/records"
	"github.com/devingeorge/devbot-ai-assistant/internal/store"
)

func TestOpenStore(t *testing.T) {
	kv, closeFn, err := openStore(config.StoreConfig{Path: ":memory:"})
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()
	if _, ok := kv.(*store.MemoryStore); !ok {
		t.Errorf(":memory: must open the in-process store, got %T", kv)
	}

	kv2, closeFn2, err := openStore(config.StoreConfig{Path: filepath.Join(t.TempDir(), "devbot.db")})
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn2()
	if _, ok := kv2.(*store.SQLiteStore); !ok {
		t.Errorf("file path must open sqlite, got %T", kv2)
	}
}

func TestSeedCannedResponsesIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := records.NewService(store.NewMemoryStore())
	seeding := config.SeedingConfig{CannedResponses: map[string]string{
		"pricing": "See the pricing page.",
	}}

	seedCannedResponses(ctx, svc, seeding)
	seedCannedResponses(ctx, svc, seeding)

	got, err := svc.ListCannedResponses(ctx, records.GlobalTeamID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 seeded record, got %d", len(got))
	}
	if got[0].ResponseText != "See the pricing page." {
		t.Errorf("unexpected seed %+v", got[0])
	}
}
