package ratings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache keeps rating summaries in Redis with a TTL. A per-person
// generation counter lives next to each summary; writes are checked against it
// under WATCH.
type RedisCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisCache creates a cache. Keys are namespaced by prefix.
func NewRedisCache(rdb *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	if prefix == "" {
		prefix = "middleman"
	}
	return &RedisCache{rdb: rdb, ttl: ttl, prefix: prefix}
}

func (c *RedisCache) key(personID string) string {
	return fmt.Sprintf("%s:rating:%s", c.prefix, personID)
}

func (c *RedisCache) generationKey(personID string) string {
	return fmt.Sprintf("%s:rating-gen:%s", c.prefix, personID)
}

// Get reads the summary and its generation in one round trip.
func (c *RedisCache) Get(ctx context.Context, personID string) (Summary, uint64, bool, error) {
	vals, err := c.rdb.MGet(ctx, c.key(personID), c.generationKey(personID)).Result()
	if err != nil {
		return Summary{}, 0, false, err
	}
	generation, err := parseGeneration(vals[1])
	if err != nil {
		return Summary{}, 0, false, err
	}
	raw, ok := vals[0].(string)
	if !ok {
		return Summary{}, generation, false, nil
	}
	var s Summary
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Summary{}, 0, false, fmt.Errorf("decode cached rating: %w", err)
	}
	return s, generation, true, nil
}

var errGenerationMoved = errors.New("rating generation moved")

// Set stores s only while the generation still equals generation. A lost race
// is not an error: the summary is simply not cached.
func (c *RedisCache) Set(ctx context.Context, personID string, generation uint64, s Summary) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	genKey := c.generationKey(personID)
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Uint64()
		if errors.Is(err, redis.Nil) {
			current, err = 0, nil
		}
		if err != nil {
			return err
		}
		if current != generation {
			return errGenerationMoved
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key(personID), raw, c.ttl)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, errGenerationMoved) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

// Invalidate bumps the generation and drops the summary atomically.
func (c *RedisCache) Invalidate(ctx context.Context, personID string) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.generationKey(personID))
		pipe.Del(ctx, c.key(personID))
		return nil
	})
	return err
}

func parseGeneration(v interface{}) (uint64, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case string:
		gen, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("decode rating generation: %w", err)
		}
		return gen, nil
	default:
		return 0, fmt.Errorf("decode rating generation: unexpected %T", v)
	}
}
