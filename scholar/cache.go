package scholar

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cortexlab/discovery/paper"
	"github.com/cortexlab/discovery/pkg/logging"
)

// CacheConfig holds Redis configuration for the search-result cache.
type CacheConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// Cache is a best-effort Redis cache for search responses. Every cache
// failure degrades to a provider call; the cache never fails a search.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// NewCache creates a Redis-backed search cache.
func NewCache(config *CacheConfig) *Cache {
	if config == nil {
		config = &CacheConfig{Addr: "localhost:6379"}
	}
	if config.Prefix == "" {
		config.Prefix = "discovery:scholar:"
	}
	if config.TTL <= 0 {
		config.TTL = 12 * time.Hour
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	return &Cache{
		client: client,
		prefix: config.Prefix,
		ttl:    config.TTL,
		logger: logging.WithComponent("scholar_cache"),
	}
}

func (c *Cache) redisKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return c.prefix + hex.EncodeToString(sum[:16])
}

func (c *Cache) get(ctx context.Context, key string) ([]paper.Paper, bool) {
	raw, err := c.client.Get(ctx, c.redisKey(key)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("cache read failed", "error", err)
		}
		return nil, false
	}

	var papers []paper.Paper
	if err := json.Unmarshal([]byte(raw), &papers); err != nil {
		c.logger.Debug("cache entry corrupt, ignoring", "error", err)
		return nil, false
	}
	return papers, true
}

func (c *Cache) set(ctx context.Context, key string, papers []paper.Paper) {
	raw, err := json.Marshal(papers)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.redisKey(key), raw, c.ttl).Err(); err != nil {
		c.logger.Debug("cache write failed", "error", err)
	}
}
