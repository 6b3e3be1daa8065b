package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// DiskCache stores fetched text under dir, one file per location. Files are
// named by a hash of the location so any URL maps to a safe name.
type DiskCache struct {
	dir    string
	next   Fetcher
	group  singleflight.Group
	logger *slog.Logger
}

// NewDiskCache wraps next with a file cache rooted at dir.
func NewDiskCache(dir string, next Fetcher, logger *slog.Logger) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DiskCache{dir: dir, next: next, logger: logger.With("component", "disk-cache")}, nil
}

// Path returns the cache file for location.
func (c *DiskCache) Path(location string) string {
	return filepath.Join(c.dir, "doc-"+cacheKey(location)+".txt")
}

// Fetch returns the cached text or fetches and stores it.
func (c *DiskCache) Fetch(ctx context.Context, location string) (string, error) {
	path := c.Path(location)
	if data, err := os.ReadFile(path); err == nil {
		c.logger.Debug("cache hit", "location", location, "path", path)
		return string(data), nil
	}

	v, err, _ := c.group.Do(path, func() (interface{}, error) {
		return c.fill(ctx, location, path)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *DiskCache) fill(ctx context.Context, location, path string) (string, error) {
	if data, err := os.ReadFile(path); err == nil {
		return string(data), nil
	}
	text, err := c.next.Fetch(ctx, location)
	if err != nil {
		return "", err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(text), 0o644); err != nil {
		c.logger.Warn("cache write failed", "path", path, "error", err)
		return text, nil
	}
	if err := os.Rename(tmp, path); err != nil {
		c.logger.Warn("cache write failed", "path", path, "error", err)
		os.Remove(tmp)
	}
	return text, nil
}

// RedisCache keeps fetched text in Redis with a TTL. Redis failures are
// logged and the request falls through to the wrapped fetcher.
type RedisCache struct {
	client *redis.Client
	next   Fetcher
	ttl    time.Duration
	prefix string
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedisCache connects to addr and wraps next.
func NewRedisCache(ctx context.Context, addr string, ttl time.Duration, next Fetcher, logger *slog.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return NewRedisCacheWithClient(client, ttl, next, logger), nil
}

// NewRedisCacheWithClient wraps next using an existing client.
func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration, next Fetcher, logger *slog.Logger) *RedisCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCache{
		client: client,
		next:   next,
		ttl:    ttl,
		prefix: "riskfreq:doc:",
		logger: logger.With("component", "redis-cache"),
	}
}

// Key returns the Redis key used for location.
func (c *RedisCache) Key(location string) string {
	return c.prefix + cacheKey(location)
}

// Fetch implements Fetcher. Concurrent misses for one location share a
// single underlying fetch.
func (c *RedisCache) Fetch(ctx context.Context, location string) (string, error) {
	key := c.Key(location)
	if text, ok := c.get(ctx, key); ok {
		return text, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if text, ok := c.get(ctx, key); ok {
			return text, nil
		}
		text, err := c.next.Fetch(ctx, location)
		if err != nil {
			return "", err
		}
		if err := c.client.Set(ctx, key, text, c.ttl).Err(); err != nil {
			c.logger.Warn("redis set failed", "key", key, "error", err)
		}
		return text, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *RedisCache) get(ctx context.Context, key string) (string, bool) {
	text, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		c.hits.Add(1)
		c.logger.Debug("cache hit", "key", key)
		return text, true
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("redis get failed", "key", key, "error", err)
	}
	c.misses.Add(1)
	return "", false
}

// Stats returns cache hits and misses so far.
func (c *RedisCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Close closes the Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
