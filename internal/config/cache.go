package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvCacheBackend       = "DN_CACHE_BACKEND"
	EnvCacheSize          = "DN_CACHE_SIZE"
	EnvCacheTTL           = "DN_CACHE_TTL"
	EnvCacheRedisAddr     = "DN_REDIS_ADDR"
	EnvCacheRedisPassword = "DN_REDIS_PASSWORD"
	EnvCacheRedisDB       = "DN_REDIS_DB"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// CacheConfig configures the extractor result cache.
type CacheConfig struct {
	Backend       string `toml:"backend"`
	Size          int    `toml:"size"`
	TTL           string `toml:"ttl"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

func (c *CacheConfig) TTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.TTL)
	return d
}

func (c *CacheConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

func (c *CacheConfig) Merge(overlay *CacheConfig) {
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.Size != 0 {
		c.Size = overlay.Size
	}
	if overlay.TTL != "" {
		c.TTL = overlay.TTL
	}
	if overlay.RedisAddr != "" {
		c.RedisAddr = overlay.RedisAddr
	}
	if overlay.RedisPassword != "" {
		c.RedisPassword = overlay.RedisPassword
	}
	if overlay.RedisDB != 0 {
		c.RedisDB = overlay.RedisDB
	}
}

func (c *CacheConfig) loadDefaults() {
	if c.Backend == "" {
		c.Backend = CacheMemory
	}
	if c.Size == 0 {
		c.Size = 4096
	}
	if c.TTL == "" {
		c.TTL = "24h"
	}
	if c.RedisAddr == "" {
		c.RedisAddr = "localhost:6379"
	}
}

func (c *CacheConfig) loadEnv() {
	if v := os.Getenv(EnvCacheBackend); v != "" {
		c.Backend = v
	}
	if v := os.Getenv(EnvCacheSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Size = n
		}
	}
	if v := os.Getenv(EnvCacheTTL); v != "" {
		c.TTL = v
	}
	if v := os.Getenv(EnvCacheRedisAddr); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv(EnvCacheRedisPassword); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv(EnvCacheRedisDB); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RedisDB = n
		}
	}
}

func (c *CacheConfig) validate() error {
	switch c.Backend {
	case CacheMemory, CacheRedis, CacheNone:
	default:
		return fmt.Errorf("invalid backend %q (must be memory, redis or none)", c.Backend)
	}
	if c.Size < 1 {
		return fmt.Errorf("size must be positive")
	}
	if _, err := time.ParseDuration(c.TTL); err != nil {
		return fmt.Errorf("invalid ttl: %w", err)
	}
	return nil
}
