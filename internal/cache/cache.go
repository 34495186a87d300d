// Package cache stores computed match analyses keyed by a content fingerprint.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/matching"
)

// DefaultTTL is how long an analysis stays fresh.
const DefaultTTL = 24 * time.Hour

// Entry is a cached analysis together with its creation time.
type Entry struct {
	Key       string                  `json:"key"`
	Result    *matching.MatchAnalysis `json:"result"`
	CreatedAt time.Time               `json:"createdAt"`
}

// Cache is a process-wide result cache. Entries expire lazily: a stale entry
// is reported as a miss but is not removed on read.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry

	ttl    time.Duration
	now    func() time.Time
	remote *redis.Client
	logger *zap.Logger
}

type Option func(*Cache)

func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock overrides the time source, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithRedis enables the Redis second tier.
func WithRedis(client *redis.Client) Option {
	return func(c *Cache) { c.remote = client }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]Entry),
		ttl:     DefaultTTL,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a copy of the cached analysis when it is younger than the TTL.
func (c *Cache) Get(ctx context.Context, key string) (*matching.MatchAnalysis, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && c.fresh(entry) {
		c.logger.Debug("cache hit", zap.String("key", key), zap.String("tier", "memory"))
		return entry.Result.Clone(), true
	}

	if c.remote == nil {
		return nil, false
	}

	entry, ok = c.getRemote(ctx, key)
	if !ok || !c.fresh(entry) {
		return nil, false
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()

	c.logger.Debug("cache hit", zap.String("key", key), zap.String("tier", "redis"))
	return entry.Result.Clone(), true
}

// Put stores result under key, overwriting any previous entry.
func (c *Cache) Put(ctx context.Context, key string, result *matching.MatchAnalysis) {
	if result == nil {
		return
	}

	entry := Entry{Key: key, Result: result.Clone(), CreatedAt: c.now()}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()

	if c.remote != nil {
		c.putRemote(ctx, entry)
	}
}

// Len reports the number of entries held in memory, stale ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) TTL() time.Duration { return c.ttl }

func (c *Cache) fresh(e Entry) bool {
	return e.Result != nil && c.now().Sub(e.CreatedAt) < c.ttl
}

func (c *Cache) getRemote(ctx context.Context, key string) (Entry, bool) {
	data, err := c.remote.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("redis cache read failed", zap.String("key", key), zap.Error(err))
		}
		return Entry{}, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.Debug("redis cache entry is corrupt", zap.String("key", key), zap.Error(err))
		return Entry{}, false
	}
	return entry, true
}

func (c *Cache) putRemote(ctx context.Context, entry Entry) {
	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Debug("marshal cache entry", zap.String("key", entry.Key), zap.Error(err))
		return
	}

	if err := c.remote.Set(ctx, entry.Key, data, c.ttl).Err(); err != nil {
		c.logger.Debug("redis cache write failed", zap.String("key", entry.Key), zap.Error(err))
	}
}
