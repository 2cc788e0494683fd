package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oukeidos/novtl/internal/glossary"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces glossary keys.
const DefaultKeyPrefix = "novtl:"

// RedisStore keeps glossaries as JSON strings under <Prefix>glossary:<id>.
type RedisStore struct {
	client redis.Cmdable
	Prefix string
	// TTL of zero keeps glossaries forever.
	TTL time.Duration
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.Cmdable, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{client: client, Prefix: prefix, TTL: ttl}
}

// OpenRedis parses a redis:// URL and returns a connected store.
func OpenRedis(ctx context.Context, url, prefix string, ttl time.Duration) (*RedisStore, func() error, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisStore(client, prefix, ttl), client.Close, nil
}

var _ Store = (*RedisStore)(nil)

// Key returns the Redis key for novelID.
func (s *RedisStore) Key(novelID string) string {
	return s.Prefix + "glossary:" + novelID
}

func (s *RedisStore) Load(ctx context.Context, novelID string) (glossary.Glossary, bool, error) {
	val, err := s.client.Get(ctx, s.Key(novelID)).Result()
	if errors.Is(err, redis.Nil) {
		return glossary.Glossary{}, false, nil
	}
	if err != nil {
		return glossary.Glossary{}, false, fmt.Errorf("redis get glossary: %w", err)
	}
	var g glossary.Glossary
	if err := json.Unmarshal([]byte(val), &g); err != nil {
		return glossary.Glossary{}, false, fmt.Errorf("failed to parse glossary for novel %s: %w", novelID, err)
	}
	return g, true, nil
}

func (s *RedisStore) Save(ctx context.Context, novelID string, g glossary.Glossary) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("failed to encode glossary: %w", err)
	}
	if err := s.client.Set(ctx, s.Key(novelID), string(data), s.TTL).Err(); err != nil {
		return fmt.Errorf("redis set glossary: %w", err)
	}
	return nil
}
