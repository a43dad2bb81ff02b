package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"slotbook/models"
)

const availabilityGenerationKey = "availability:gen"

// AvailabilityCache memoizes available-slot listings. Implementations must treat their
// own failures as misses; the booking store stays authoritative.
//
// Get reports the generation it looked under, and Set must be given that generation, so
// a listing computed before an Invalidate is written under the orphaned generation and
// never served afterwards. A negative generation means the cache is unavailable.
type AvailabilityCache interface {
	Get(ctx context.Context, q models.RangeQuery) (slots []models.AvailableSlot, gen int64, ok bool)
	Set(ctx context.Context, q models.RangeQuery, gen int64, slots []models.AvailableSlot)
	// Invalidate drops every cached range.
	Invalidate(ctx context.Context)
}

// RedisAvailabilityCache keys entries under a generation counter; bumping the counter
// orphans all older entries, which then expire on their TTL.
type RedisAvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisAvailabilityCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisAvailabilityCache {
	return &RedisAvailabilityCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisAvailabilityCache) Get(ctx context.Context, q models.RangeQuery) ([]models.AvailableSlot, int64, bool) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.logger.Warn("availability cache unavailable", zap.Error(err))
		return nil, -1, false
	}

	key := availabilityKey(gen, q)
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false
	}
	if err != nil {
		c.logger.Warn("availability cache read failed", zap.String("key", key), zap.Error(err))
		return nil, gen, false
	}

	var slots []models.AvailableSlot
	if err := json.Unmarshal(data, &slots); err != nil {
		c.logger.Warn("availability cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, gen, false
	}
	return slots, gen, true
}

func (c *RedisAvailabilityCache) Set(ctx context.Context, q models.RangeQuery, gen int64, slots []models.AvailableSlot) {
	if gen < 0 {
		return
	}
	data, err := json.Marshal(slots)
	if err != nil {
		c.logger.Warn("failed to marshal availability", zap.Error(err))
		return
	}
	key := availabilityKey(gen, q)
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("availability cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *RedisAvailabilityCache) Invalidate(ctx context.Context) {
	if err := c.client.Incr(ctx, availabilityGenerationKey).Err(); err != nil {
		c.logger.Warn("availability cache invalidation failed", zap.Error(err))
	}
}

func (c *RedisAvailabilityCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, availabilityGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func availabilityKey(gen int64, q models.RangeQuery) string {
	return fmt.Sprintf("availability:%d:%d:%d", gen, q.StartDate.UnixMilli(), q.EndDate.UnixMilli())
}

// NoopAvailabilityCache always misses.
type NoopAvailabilityCache struct{}

func (NoopAvailabilityCache) Get(context.Context, models.RangeQuery) ([]models.AvailableSlot, int64, bool) {
	return nil, -1, false
}

func (NoopAvailabilityCache) Set(context.Context, models.RangeQuery, int64, []models.AvailableSlot) {}

func (NoopAvailabilityCache) Invalidate(context.Context) {}
