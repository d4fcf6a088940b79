package flash

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of go-redis used by RedisStore.
type RedisClient interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
}

// RedisStore keeps messages in Redis so every console instance sees them.
type RedisStore struct {
	client RedisClient
	prefix string
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client RedisClient, prefix string, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if prefix == "" {
		prefix = "flash:"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// Put overwrites the slot; SET also resets the key's TTL.
func (s *RedisStore) Put(ctx context.Context, sid string, m Message) error {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("flash: encoding message: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+sid, b, s.ttl).Err(); err != nil {
		return fmt.Errorf("flash: storing message: %w", err)
	}
	return nil
}

// Take reads and deletes the slot atomically with GETDEL.
func (s *RedisStore) Take(ctx context.Context, sid string) (Message, bool, error) {
	raw, err := s.client.GetDel(ctx, s.prefix+sid).Bytes()
	if errors.Is(err, redis.Nil) {
		return Message{}, false, nil
	}
	if err != nil {
		return Message{}, false, fmt.Errorf("flash: taking message: %w", err)
	}
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return Message{}, false, fmt.Errorf("flash: decoding message: %w", err)
	}
	return m, true, nil
}
