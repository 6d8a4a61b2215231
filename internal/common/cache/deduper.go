// internal/common/cache/deduper.go
package cache

import (
	"context"
	"sync"
	"time"

	"linkedin-agent/internal/common/database"
	"linkedin-agent/internal/common/logger"
)

// Deduper admits the first submission of a key within its TTL.
type Deduper interface {
	AcquireOnce(ctx context.Context, key string) bool
	// Release forgets key so it can be acquired again.
	Release(ctx context.Context, key string)
}

type RedisDeduper struct {
	client *database.RedisClient
	ttl    time.Duration
	logger logger.Logger
}

func NewRedisDeduper(client *database.RedisClient, ttl time.Duration, log logger.Logger) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl, logger: log}
}

// AcquireOnce returns true the first time key is seen. When Redis is
// unavailable processing is allowed.
func (d *RedisDeduper) AcquireOnce(ctx context.Context, key string) bool {
	ok, err := d.client.SetNX(ctx, "dedup:"+key, 1, d.ttl)
	if err != nil {
		d.logger.Warn("Redis dedup check failed, allowing processing", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return true
	}
	return ok
}

func (d *RedisDeduper) Release(ctx context.Context, key string) {
	if err := d.client.Del(ctx, "dedup:"+key); err != nil {
		d.logger.Warn("Redis dedup release failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

type MemoryDeduper struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

func NewMemoryDeduper(ttl time.Duration) *MemoryDeduper {
	return &MemoryDeduper{seen: make(map[string]time.Time), ttl: ttl, now: time.Now}
}

func (d *MemoryDeduper) AcquireOnce(ctx context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for k, expires := range d.seen {
		if now.After(expires) {
			delete(d.seen, k)
		}
	}

	if _, dup := d.seen[key]; dup {
		return false
	}
	d.seen[key] = now.Add(d.ttl)
	return true
}

func (d *MemoryDeduper) Release(ctx context.Context, key string) {
	d.mu.Lock()
	delete(d.seen, key)
	d.mu.Unlock()
}
