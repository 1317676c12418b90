package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ViewCache is a generic JSON-backed Redis cache for read model projections.
// Bind it to a specific view type T; each instance holds a Redis client and an
// optional TTL (pass 0 for keys that should not expire).
//
// Views of mutable rows are written through Replace and Invalidate, which bump
// a per-key version; read-through fills go through Version and Fill so a fill
// computed from a row read before the last write is dropped instead of
// overwriting it. Set is for immutable views.
type ViewCache[T any] struct {
	client *goredis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewViewCache creates a ViewCache backed by the provided Redis client.
func NewViewCache[T any](client *goredis.Client, ttl time.Duration, logger *zap.Logger) *ViewCache[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ViewCache[T]{client: client, ttl: ttl, logger: logger}
}

// Get retrieves and unmarshals a value from Redis.
// Returns (nil, false) on any miss or deserialisation error.
func (c *ViewCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.logger.Warn("view cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Warn("view cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &v, true
}

// Set marshals value and stores it in Redis under key.
// A failed write is logged, not returned.
func (c *ViewCache[T]) Set(ctx context.Context, key string, value *T) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("view cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("view cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// fillScript stores ARGV[2] under KEYS[1] only while the version counter in
// KEYS[2] still equals ARGV[1]. A missing counter reads as "0".
var fillScript = goredis.NewScript(`
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

func versionKey(key string) string { return key + ":version" }

// Version returns the write version of key, to be passed to Fill. ok is false
// when Redis cannot be read, in which case the fill should be skipped.
func (c *ViewCache[T]) Version(ctx context.Context, key string) (version int64, ok bool) {
	version, err := c.client.Get(ctx, versionKey(key)).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, true
	}
	if err != nil {
		c.logger.Warn("view cache version read failed", zap.String("key", key), zap.Error(err))
		return 0, false
	}
	return version, true
}

// Fill stores value under key unless key has been replaced or invalidated
// since version was read. It reports whether the value was stored.
func (c *ViewCache[T]) Fill(ctx context.Context, key string, version int64, value *T) bool {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("view cache marshal failed", zap.String("key", key), zap.Error(err))
		return false
	}
	stored, err := fillScript.Run(ctx, c.client,
		[]string{key, versionKey(key)},
		strconv.FormatInt(version, 10), data, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		c.logger.Warn("view cache fill failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if stored == 0 {
		c.logger.Debug("view cache fill skipped, newer write exists", zap.String("key", key))
	}
	return stored == 1
}

// Replace stores value under key and bumps its version, so fills started
// before this write are discarded.
func (c *ViewCache[T]) Replace(ctx context.Context, key string, value *T) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("view cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	_, err = c.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(key))
		pipe.Set(ctx, key, data, c.ttl)
		return nil
	})
	if err != nil {
		c.logger.Warn("view cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate removes key and bumps its version, so fills started before the
// invalidation are discarded.
func (c *ViewCache[T]) Invalidate(ctx context.Context, key string) {
	_, err := c.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(key))
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		c.logger.Warn("view cache invalidate failed", zap.String("key", key), zap.Error(err))
	}
}

// Delete removes a key from Redis.
func (c *ViewCache[T]) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("view cache delete failed", zap.String("key", key), zap.Error(err))
	}
}
