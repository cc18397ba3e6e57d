package badgegroups

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keys.
const (
	cacheKeyGroupPrefix = "badge_groups:group:"
	cacheKeyAll         = "badge_groups:all"
)

// Cache is the advisory read cache in front of the store. A miss or a cache
// error always falls back to the durable store, so Get methods report only
// hit or miss.
type Cache interface {
	GetGroup(ctx context.Context, id string) (*BadgeGroup, bool)
	SetGroup(ctx context.Context, group *BadgeGroup)
	GetAll(ctx context.Context) ([]BadgeGroup, bool)
	SetAll(ctx context.Context, groups []BadgeGroup)

	// Invalidate removes the entries for the given group ids together with
	// the all-groups list.
	Invalidate(ctx context.Context, ids ...string) error
}

// RedisCache stores JSON-encoded groups in Redis with a fixed expiry.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache creates a cache whose entries expire after ttl.
func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

// groupKey returns the cache key for a single group.
func groupKey(id string) string {
	return cacheKeyGroupPrefix + id
}

// GetGroup returns the cached group, if any.
func (c *RedisCache) GetGroup(ctx context.Context, id string) (*BadgeGroup, bool) {
	var g BadgeGroup
	if !c.get(ctx, groupKey(id), &g) {
		return nil, false
	}
	return &g, true
}

// SetGroup caches a single group.
func (c *RedisCache) SetGroup(ctx context.Context, group *BadgeGroup) {
	c.set(ctx, groupKey(group.ID), group)
}

// GetAll returns the cached group list, if any.
func (c *RedisCache) GetAll(ctx context.Context) ([]BadgeGroup, bool) {
	var groups []BadgeGroup
	if !c.get(ctx, cacheKeyAll, &groups) {
		return nil, false
	}
	return groups, true
}

// SetAll caches the full group list.
func (c *RedisCache) SetAll(ctx context.Context, groups []BadgeGroup) {
	c.set(ctx, cacheKeyAll, groups)
}

// Invalidate deletes the group entries and the list entry in one command.
func (c *RedisCache) Invalidate(ctx context.Context, ids ...string) error {
	keys := make([]string, 0, len(ids)+1)
	keys = append(keys, cacheKeyAll)
	for _, id := range ids {
		keys = append(keys, groupKey(id))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidating badge group cache: %w", err)
	}
	return nil
}

// get decodes the value at key into dst. Decode and transport failures are
// logged and reported as a miss.
func (c *RedisCache) get(ctx context.Context, key string, dst any) bool {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		slog.Warn("badge group cache read failed", slog.String("key", key), slog.Any("error", err))
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		slog.Warn("discarding undecodable cache entry", slog.String("key", key), slog.Any("error", err))
		_ = c.rdb.Del(ctx, key).Err()
		return false
	}
	return true
}

// set encodes v and stores it with the cache TTL.
func (c *RedisCache) set(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("encoding cache entry failed", slog.String("key", key), slog.Any("error", err))
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		slog.Warn("badge group cache write failed", slog.String("key", key), slog.Any("error", err))
	}
}
