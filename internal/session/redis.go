package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwalitptl/frontdesk/internal/config"
	"github.com/jwalitptl/frontdesk/pkg/circuitbreaker"
)

const redisKeyPrefix = "frontdesk:flash:"

// RedisStore shares flashes between instances through a Redis list per
// session. Calls go through a circuit breaker so a Redis outage fails fast.
type RedisStore struct {
	client *redis.Client
	cb     *circuitbreaker.CircuitBreaker
	ttl    time.Duration
}

func NewRedisStore(ctx context.Context, cfg config.RedisConfig, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Configure connection pooling
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.MinIdleConns = cfg.MinIdleConns
	opts.MaxRetries = cfg.MaxRetries

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisStoreWithClient(client, ttl), nil
}

func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:                "redis-flash",
			MaxRequests:         1,
			Interval:            10 * time.Second,
			Timeout:             5 * time.Second,
			ConsecutiveFailures: 5,
		}),
		ttl: ttl,
	}
}

func (s *RedisStore) Push(ctx context.Context, sid string, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal flash: %w", err)
	}
	key := redisKeyPrefix + sid

	return s.cb.Execute(func() error {
		_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.RPush(ctx, key, payload)
			pipe.Expire(ctx, key, s.ttl)
			return nil
		})
		return err
	})
}

func (s *RedisStore) Pop(ctx context.Context, sid string) ([]Message, error) {
	key := redisKeyPrefix + sid

	var raw []string
	err := s.cb.Execute(func() error {
		var lrange *redis.StringSliceCmd
		_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			lrange = pipe.LRange(ctx, key, 0, -1)
			pipe.Del(ctx, key)
			return nil
		})
		if err != nil {
			return err
		}
		raw = lrange.Val()
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]Message, 0, len(raw))
	for _, r := range raw {
		var msg Message
		if err := json.Unmarshal([]byte(r), &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal flash: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
