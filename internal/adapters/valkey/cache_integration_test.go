//go:build integration
// +build integration

package valkey_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/meetpoint/meetpoint/internal/adapters/valkey"
	"github.com/meetpoint/meetpoint/internal/core/ports"
	"github.com/meetpoint/meetpoint/internal/pkg/config"
)

func setupCache(t *testing.T) *valkey.Cache {
	t.Helper()
	cfg, err := config.Load("meetpoint-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	c, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestCache_MissAndRoundTrip(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()
	key := "test:cache:" + time.Now().Format(time.RFC3339Nano)

	if _, err := c.Get(ctx, key); !errors.Is(err, ports.ErrCacheMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
	if err := c.Set(ctx, key, []byte(`[{"name":"x"}]`), time.Minute); err != nil {
		t.Fatal(err)
	}
	got, err := c.Get(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `[{"name":"x"}]` {
		t.Errorf("unexpected value %s", got)
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Fatal(err)
	}
}

func TestCache_TTLExpires(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()
	key := "test:ttl:" + time.Now().Format(time.RFC3339Nano)

	if err := c.Set(ctx, key, []byte("v"), time.Second); err != nil {
		t.Fatal(err)
	}
	time.Sleep(1500 * time.Millisecond)
	if _, err := c.Get(ctx, key); !errors.Is(err, ports.ErrCacheMiss) {
		t.Errorf("expected expiry, got %v", err)
	}
}
