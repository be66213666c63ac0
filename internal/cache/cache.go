// Package cache provides a Redis-backed cache of accepted translations.
// Only accepted results are ever stored: a rejection must re-run the full
// safety pipeline on every request, never be served from memory.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/yamahealth/medguard/internal/config"
)

const keyPrefix = "medguard:tx:"

// CachedResult is a previously accepted translation.
type CachedResult struct {
	RestoredText string    `json:"restored_text"`
	Warnings     []string  `json:"warnings,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ResultCache caches accepted translations keyed by source text and
// language pair. Cache errors always degrade to a miss.
type ResultCache struct {
	client *redis.Client
	config *config.CacheConfig
	logger *zap.Logger
}

// NewResultCache creates a Redis-backed result cache.
func NewResultCache(cfg *config.CacheConfig, logger *zap.Logger) (*ResultCache, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = cfg.MaxConnections
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	cache := &ResultCache{
		client: client,
		config: cfg,
		logger: logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Result cache initialized",
		zap.String("redis_url", maskRedisURL(cfg.RedisURL)),
		zap.Duration("default_ttl", cfg.DefaultTTL),
	)

	return cache, nil
}

// Key builds the cache key for a request.
func Key(text, sourceLang, targetLang string) string {
	sum := sha256.Sum256([]byte(sourceLang + "\x00" + targetLang + "\x00" + text))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Get returns a cached accepted translation, or (nil, false) on miss or
// cache error.
func (c *ResultCache) Get(ctx context.Context, text, sourceLang, targetLang string) (*CachedResult, bool) {
	data, err := c.client.Get(ctx, Key(text, sourceLang, targetLang)).Result()
	if err == redis.Nil {
		return nil, false
	} else if err != nil {
		c.logger.Warn("Cache lookup failed", zap.Error(err))
		return nil, false
	}

	var result CachedResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Warn("Corrupted cache entry dropped", zap.Error(err))
		c.client.Del(ctx, Key(text, sourceLang, targetLang))
		return nil, false
	}

	return &result, true
}

// Set stores an accepted translation. Failures are logged, not surfaced:
// caching is an optimization, never a correctness dependency.
func (c *ResultCache) Set(ctx context.Context, text, sourceLang, targetLang string, result *CachedResult) {
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Warn("Failed to marshal cache entry", zap.Error(err))
		return
	}

	if err := c.client.Set(ctx, Key(text, sourceLang, targetLang), data, c.config.DefaultTTL).Err(); err != nil {
		c.logger.Warn("Cache store failed", zap.Error(err))
	}
}

// Close releases the Redis connection pool.
func (c *ResultCache) Close() error {
	return c.client.Close()
}

// maskRedisURL hides credentials in log output.
func maskRedisURL(url string) string {
	if at := strings.LastIndex(url, "@"); at != -1 {
		if scheme := strings.Index(url, "://"); scheme != -1 {
			return url[:scheme+3] + "***" + url[at:]
		}
	}
	return url
}
