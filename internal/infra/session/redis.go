package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domain "github.com/pactguard/pactguard/internal/domain/session"
)

const keyPrefix = "pactguard:latest:"

// RedisStore shares the per-session slot across gateway replicas.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects and pings once so a bad address fails at startup.
func NewRedisStore(ctx context.Context, opts *redis.Options, ttl time.Duration) (*RedisStore, error) {
	return newRedisStore(ctx, redis.NewClient(opts), ttl)
}

// newRedisStore closes client when the ping fails.
func newRedisStore(ctx context.Context, client *redis.Client, ttl time.Duration) (*RedisStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) Put(ctx context.Context, sessionID string, payload []byte) error {
	if err := s.client.Set(ctx, keyPrefix+sessionID, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store latest analysis: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) ([]byte, error) {
	val, err := s.client.Get(ctx, keyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest analysis: %w", err)
	}
	return val, nil
}

func (s *RedisStore) Close() error { return s.client.Close() }
