package cache

import (
	"context"
	"time"

	crerr "github.com/cockroachdb/errors"

	sonic "github.com/bytedance/sonic"
	"github.com/go-redis/redis/v8"
	"github.com/sourcegraph/conc/pool"
)

const (
	tagKeyPrefix    = "tag:"
	scanBatchSize   = 100
	maxTagEvictions = 4
)

// RedisCache is the shared tagged cache fronting the public read APIs.
// Tags are kept as Redis sets of member keys, so tag eviction is one
// SMEMBERS plus one DEL, no scanning.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Remember(ctx context.Context, key string, ttl time.Duration, tags []string, compute func(context.Context) (any, error)) (any, error) {
	raw, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var out any
		if err := sonic.Unmarshal([]byte(raw), &out); err == nil {
			return out, nil
		}
		// Undecodable entry: fall through and recompute over it.
	} else if err != redis.Nil {
		return nil, crerr.Wrap(err, "cache get")
	}

	value, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	encoded, err := sonic.Marshal(value)
	if err != nil {
		return nil, crerr.Wrap(err, "marshal cache value")
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key, encoded, ttl)
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		pipe.SAdd(ctx, tagKeyPrefix+tag, key)
		// Tag sets outlive their members a little so eviction still finds
		// them; stale members just DEL nothing.
		pipe.Expire(ctx, tagKeyPrefix+tag, ttl+time.Minute)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, crerr.Wrap(err, "cache set")
	}

	return value, nil
}

func (c *RedisCache) Forget(ctx context.Context, key string) (bool, error) {
	removed, err := c.client.Del(ctx, key).Result()
	if err != nil {
		return false, crerr.Wrap(err, "cache forget")
	}
	return removed > 0, nil
}

func (c *RedisCache) ForgetByTags(ctx context.Context, tags []string) error {
	evict := pool.New().WithContext(ctx).WithMaxGoroutines(maxTagEvictions)
	for _, tag := range tags {
		tag := tag
		if tag == "" {
			continue
		}
		evict.Go(func(ctx context.Context) error {
			return c.forgetTag(ctx, tag)
		})
	}
	return evict.Wait()
}

func (c *RedisCache) forgetTag(ctx context.Context, tag string) error {
	tagKey := tagKeyPrefix + tag
	members, err := c.client.SMembers(ctx, tagKey).Result()
	if err != nil && err != redis.Nil {
		return crerr.Wrapf(err, "read tag %s", tag)
	}

	keys := append(members, tagKey)
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return crerr.Wrapf(err, "evict tag %s", tag)
	}
	return nil
}

func (c *RedisCache) ForgetByPattern(ctx context.Context, pattern string) (int, error) {
	var (
		cursor  uint64
		evicted int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			return evicted, crerr.Wrapf(err, "scan pattern %s", pattern)
		}
		if len(keys) > 0 {
			removed, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return evicted, crerr.Wrapf(err, "evict pattern %s", pattern)
			}
			evicted += int(removed)
		}
		cursor = next
		if cursor == 0 {
			return evicted, nil
		}
	}
}
