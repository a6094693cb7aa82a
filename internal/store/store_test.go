package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openStores(t *testing.T) map[string]KV {
	t.Helper()
	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })
	return map[string]KV{
		"sqlite": sqlite,
		"memory": NewMemoryStore(),
	}
}

func TestSetGetDelete(t *testing.T) {
	ctx := context.Background()
	for name, kv := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := kv.Get(ctx, "missing"); err != nil || ok {
				t.Fatalf("missing key: ok=%v err=%v", ok, err)
			}
			if err := kv.Set(ctx, "canned:T1:abc", `{"id":"abc"}`, 0); err != nil {
				t.Fatalf("set: %v", err)
			}
			v, ok, err := kv.Get(ctx, "canned:T1:abc")
			if err != nil || !ok || v != `{"id":"abc"}` {
				t.Fatalf("get: v=%q ok=%v err=%v", v, ok, err)
			}
			// Overwrite replaces the value.
			if err := kv.Set(ctx, "canned:T1:abc", `{"id":"abc","v":2}`, 0); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			if v, _, _ := kv.Get(ctx, "canned:T1:abc"); v != `{"id":"abc","v":2}` {
				t.Fatalf("overwrite readback: %q", v)
			}
			if err := kv.Delete(ctx, "canned:T1:abc"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, ok, _ := kv.Get(ctx, "canned:T1:abc"); ok {
				t.Fatal("key survived delete")
			}
			// Deleting again is fine.
			if err := kv.Delete(ctx, "canned:T1:abc"); err != nil {
				t.Fatalf("double delete: %v", err)
			}
		})
	}
}

func TestListKeysByPrefix(t *testing.T) {
	ctx := context.Background()
	for name, kv := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			seed := []string{
				"canned:T1:b",
				"canned:T1:a",
				"canned:T2:c",
				"monitor:T1:d",
			}
			for _, k := range seed {
				if err := kv.Set(ctx, k, "{}", 0); err != nil {
					t.Fatalf("set %s: %v", k, err)
				}
			}
			keys, err := kv.ListKeysByPrefix(ctx, "canned:T1:")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			want := []string{"canned:T1:a", "canned:T1:b"}
			if len(keys) != len(want) {
				t.Fatalf("got %v, want %v", keys, want)
			}
			for i := range want {
				if keys[i] != want[i] {
					t.Fatalf("got %v, want %v", keys, want)
				}
			}
		})
	}
}

func TestTTLExpiry(t *testing.T) {
	ctx := context.Background()
	for name, kv := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := kv.Set(ctx, "tmp", "v", -time.Second); err != nil {
				t.Fatalf("set: %v", err)
			}
			if _, ok, _ := kv.Get(ctx, "tmp"); ok {
				t.Fatal("expired key still readable")
			}
			keys, _ := kv.ListKeysByPrefix(ctx, "tmp")
			if len(keys) != 0 {
				t.Fatalf("expired key listed: %v", keys)
			}
		})
	}
}
