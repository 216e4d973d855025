package extractor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"

	"github.com/JaimeStill/delivery-notes/internal/config"
	"github.com/JaimeStill/delivery-notes/internal/metrics"
	"github.com/JaimeStill/delivery-notes/pkg/lifecycle"
)

// Cache stores classifications by CacheKey. Lookup failures are misses.
type Cache interface {
	Get(ctx context.Context, key string) (Classification, bool)
	Set(ctx context.Context, key string, c Classification)
}

// CacheKey derives the cache key for a page of a source document under a
// particular model configuration.
func CacheKey(contentHash string, page int, modelHash string) string {
	sum := sha256.Sum256([]byte(contentHash + "|" + strconv.Itoa(page) + "|" + modelHash))
	return hex.EncodeToString(sum[:])
}

// NewCache builds the cache backend selected by cfg.
func NewCache(cfg *config.CacheConfig, logger *slog.Logger) Cache {
	switch cfg.Backend {
	case config.CacheRedis:
		return NewRedisCache(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.TTLDuration(), logger)
	case config.CacheNone:
		return NoCache{}
	default:
		return NewMemoryCache(cfg.Size, cfg.TTLDuration())
	}
}

// NoCache never stores anything.
type NoCache struct{}

func (NoCache) Get(context.Context, string) (Classification, bool) { return Classification{}, false }
func (NoCache) Set(context.Context, string, Classification)        {}

// MemoryCache is a per-process LRU with expiry.
type MemoryCache struct {
	lru *expirable.LRU[string, Classification]
}

func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	return &MemoryCache{lru: expirable.NewLRU[string, Classification](size, nil, ttl)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (Classification, bool) {
	v, ok := c.lru.Get(key)
	metrics.ObserveCacheLookup(ok)
	return v, ok
}

func (c *MemoryCache) Set(_ context.Context, key string, v Classification) {
	c.lru.Add(key, v)
}

// RedisCache shares classifications across service instances.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

const redisKeyPrefix = "dn:classification:"

func NewRedisCache(opts *redis.Options, ttl time.Duration, logger *slog.Logger) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(opts),
		ttl:    ttl,
		logger: logger.With("system", "extractor-cache", "backend", "redis"),
	}
}

// Start verifies connectivity and closes the client on shutdown.
func (c *RedisCache) Start(lc *lifecycle.Coordinator) error {
	ctx, cancel := context.WithTimeout(lc.Context(), 5*time.Second)
	defer cancel()

	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := c.client.Close(); err != nil {
			c.logger.Error("redis close failed", "error", err)
		}
	})

	c.logger.Info("redis cache connected")
	return nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (Classification, bool) {
	data, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis get failed", "error", err)
		}
		metrics.ObserveCacheLookup(false)
		return Classification{}, false
	}

	var v Classification
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Warn("discarding undecodable cache entry", "key", key, "error", err)
		metrics.ObserveCacheLookup(false)
		return Classification{}, false
	}

	metrics.ObserveCacheLookup(true)
	return v, true
}

func (c *RedisCache) Set(ctx context.Context, key string, v Classification) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, redisKeyPrefix+key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("redis set failed", "error", err)
	}
}
