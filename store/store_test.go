package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mwantia/objectstore/config"
	"github.com/mwantia/objectstore/log"
)

func TestNew(t *testing.T) {
	ctx := t.Context()
	cfg := &config.Config{
		Routes: []config.RouteConfig{
			{Prefix: "memory://", Type: config.TypeMemory},
		},
	}

	a, err := New(ctx, cfg, config.WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b, err := New(ctx, cfg, config.WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := a.Put(ctx, "memory://bucket/key", []byte("a")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if ok, _ := b.Exists(ctx, "memory://bucket/key"); ok {
		t.Fatal("routers built by New share state, want independent instances")
	}
}

// TestDefault verifies the shared router is built once from OBJECTSTORE_CONFIG.
func TestDefault(t *testing.T) {
	ctx := t.Context()

	path := filepath.Join(t.TempDir(), "objectstore.yaml")
	content := "log:\n  level: error\n  no_terminal: true\nroutes:\n  - prefix: \"memory://\"\n    type: memory\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigEnv, path)

	first, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	second, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if first != second {
		t.Fatal("Default returned different routers")
	}

	if err := Put(ctx, "memory://facade/key", []byte("value")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := Get(ctx, "memory://facade/key")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "value" {
		t.Fatalf("Get = %q, want %q", got, "value")
	}

	existing, err := ExistsBatch(ctx, []string{"memory://facade/missing", "memory://facade/key"})
	if err != nil {
		t.Fatalf("ExistsBatch: %v", err)
	}
	if len(existing) != 1 || existing[0] != "memory://facade/key" {
		t.Fatalf("ExistsBatch = %q, want only the stored key", existing)
	}

	if got := PathJoin("memory://facade", "a", "b"); got != "memory://facade/a/b" {
		t.Fatalf("PathJoin = %q", got)
	}
}
