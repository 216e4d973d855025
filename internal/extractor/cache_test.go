package extractor_test

import (
	"context"
	"testing"
	"time"

	"github.com/JaimeStill/delivery-notes/internal/config"
	"github.com/JaimeStill/delivery-notes/internal/extractor"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	cache := extractor.NewMemoryCache(2, time.Minute)

	want := extractor.Classification{Page: 1, Role: extractor.RoleStart, Confidence: 0.8}
	cache.Set(ctx, "a", want)

	got, ok := cache.Get(ctx, "a")
	if !ok || got != want {
		t.Fatalf("Get(a) = %+v, %v; want %+v, true", got, ok, want)
	}

	cache.Set(ctx, "b", want)
	cache.Set(ctx, "c", want)
	if _, ok := cache.Get(ctx, "a"); ok {
		t.Error("Get(a) hit after eviction")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	cache := extractor.NewMemoryCache(8, 10*time.Millisecond)

	cache.Set(ctx, "k", extractor.Unknown(1))
	time.Sleep(50 * time.Millisecond)

	if _, ok := cache.Get(ctx, "k"); ok {
		t.Error("Get(k) hit after ttl elapsed")
	}
}

func TestNewCache_Backends(t *testing.T) {
	tests := []struct {
		backend string
		check   func(extractor.Cache) bool
	}{
		{config.CacheMemory, func(c extractor.Cache) bool { _, ok := c.(*extractor.MemoryCache); return ok }},
		{config.CacheNone, func(c extractor.Cache) bool { _, ok := c.(extractor.NoCache); return ok }},
		{config.CacheRedis, func(c extractor.Cache) bool { _, ok := c.(*extractor.RedisCache); return ok }},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := &config.CacheConfig{Backend: tt.backend, Size: 4, TTL: "1m", RedisAddr: "localhost:0"}
			if c := extractor.NewCache(cfg, testLogger()); !tt.check(c) {
				t.Errorf("NewCache(%s) = %T", tt.backend, c)
			}
		})
	}
}
