package lifecycle

import (
	"context"
	"sync"
	"time"

	"receptionist-platform/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// Deduper suppresses redelivered webhook events. FirstDelivery reports whether
// this is the first time key has been seen within the retention window.
//
// Dedup is best-effort: every merge rule is idempotent for terminal fields, so
// a Deduper failure degrades to at-least-once application, not corruption.
type Deduper interface {
	FirstDelivery(ctx context.Context, key string) (bool, error)
}

// RedisDeduper marks delivery keys in Redis with a TTL.
type RedisDeduper struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisDeduper(rdb *redis.Client, ttl time.Duration) *RedisDeduper {
	if ttl <= 0 {
		// Providers retry within hours, not days.
		ttl = 24 * time.Hour
	}
	return &RedisDeduper{rdb: rdb, ttl: ttl}
}

func (d *RedisDeduper) FirstDelivery(ctx context.Context, key string) (bool, error) {
	return utils.MarkOnce(ctx, d.rdb, key, d.ttl)
}

// MemoryDeduper is for tests.
type MemoryDeduper struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryDeduper() *MemoryDeduper {
	return &MemoryDeduper{seen: map[string]struct{}{}}
}

func (d *MemoryDeduper) FirstDelivery(ctx context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[key]; ok {
		return false, nil
	}
	d.seen[key] = struct{}{}
	return true, nil
}
