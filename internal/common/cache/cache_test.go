// internal/common/cache/cache_test.go
package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"linkedin-agent/internal/common/database"
	"linkedin-agent/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *database.RedisClient) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, database.NewRedisFromClient(rdb)
}

// ==========================
// Cache
// ==========================

func TestRedisCache_RoundTrip(t *testing.T) {
	mr, client := newMiniredis(t)
	c := NewRedisCache(client, "tool:", logger.NewTestLogger(t))
	ctx := context.Background()

	_, ok := c.Get(ctx, "fetch_rss:https://openai.com/news/rss.xml")
	assert.False(t, ok)

	c.Set(ctx, "fetch_rss:https://openai.com/news/rss.xml", `{"items":[]}`, time.Minute)

	val, ok := c.Get(ctx, "fetch_rss:https://openai.com/news/rss.xml")
	require.True(t, ok)
	assert.Equal(t, `{"items":[]}`, val)
	assert.True(t, mr.Exists("tool:fetch_rss:https://openai.com/news/rss.xml"))

	mr.FastForward(2 * time.Minute)
	_, ok = c.Get(ctx, "fetch_rss:https://openai.com/news/rss.xml")
	assert.False(t, ok)
}

func TestRedisCache_ErrorIsAMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectGet("tool:k").SetErr(errors.New("connection refused"))

	c := NewRedisCache(database.NewRedisFromClient(db), "tool:", logger.NewTestLogger(t))
	_, ok := c.Get(context.Background(), "k")

	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryCache_Expires(t *testing.T) {
	c := NewMemoryCache()
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set(context.Background(), "k", "v", time.Minute)
	val, ok := c.Get(context.Background(), "k")
	assert.True(t, ok)
	assert.Equal(t, "v", val)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get(context.Background(), "k")
	assert.False(t, ok)
}

// ==========================
// Deduper
// ==========================

func TestRedisDeduper_AcquireOnce(t *testing.T) {
	mr, client := newMiniredis(t)
	d := NewRedisDeduper(client, 10*time.Minute, logger.NewTestLogger(t))
	ctx := context.Background()

	assert.True(t, d.AcquireOnce(ctx, "post:3:KI-Agenten"))
	assert.False(t, d.AcquireOnce(ctx, "post:3:KI-Agenten"))
	assert.True(t, d.AcquireOnce(ctx, "post:4:Anderes"))

	mr.FastForward(11 * time.Minute)
	assert.True(t, d.AcquireOnce(ctx, "post:3:KI-Agenten"))
}

func TestRedisDeduper_AllowsWhenRedisDown(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectSetNX("dedup:k", 1, time.Minute).SetErr(errors.New("connection refused"))

	d := NewRedisDeduper(database.NewRedisFromClient(db), time.Minute, logger.NewTestLogger(t))
	assert.True(t, d.AcquireOnce(context.Background(), "k"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryDeduper(t *testing.T) {
	d := NewMemoryDeduper(time.Minute)
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }

	assert.True(t, d.AcquireOnce(context.Background(), "k"))
	assert.False(t, d.AcquireOnce(context.Background(), "k"))

	now = now.Add(2 * time.Minute)
	assert.True(t, d.AcquireOnce(context.Background(), "k"))
}

func TestDeduper_Release(t *testing.T) {
	_, client := newMiniredis(t)
	ctx := context.Background()

	for name, d := range map[string]Deduper{
		"redis":  NewRedisDeduper(client, time.Minute, logger.NewTestLogger(t)),
		"memory": NewMemoryDeduper(time.Minute),
	} {
		t.Run(name, func(t *testing.T) {
			require.True(t, d.AcquireOnce(ctx, "post:7:titel"))
			d.Release(ctx, "post:7:titel")
			assert.True(t, d.AcquireOnce(ctx, "post:7:titel"))
		})
	}
}
