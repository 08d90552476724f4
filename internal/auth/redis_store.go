package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisSessionConfig configures the Redis-backed session store.
type RedisSessionConfig struct {
	Addr         string
	Username     string
	Password     string
	DB           int
	KeyPrefix    string
	TokenTTL     time.Duration
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RedisSessionStore persists refresh slots in Redis so that multiple API
// replicas share authentication state. Compare-and-swap is implemented with
// WATCH so two concurrent rotations can never both succeed.
type RedisSessionStore struct {
	client    *redis.Client
	keyPrefix string
	tokenTTL  time.Duration
}

// NewRedisSessionStore connects to Redis with the provided configuration.
func NewRedisSessionStore(cfg RedisSessionConfig) (*RedisSessionStore, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	prefix := strings.TrimSpace(cfg.KeyPrefix)
	if prefix == "" {
		prefix = "clipstream:session:"
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultRefreshTTL
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	return &RedisSessionStore{client: client, keyPrefix: prefix, tokenTTL: ttl}, nil
}

func (s *RedisSessionStore) key(identityID string) string {
	return s.keyPrefix + identityID
}

// Get returns the current refresh token for the identity, if any.
func (s *RedisSessionStore) Get(ctx context.Context, identityID string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.key(identityID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get session: %w", err)
	}
	if value == "" {
		return "", false, nil
	}
	return value, true, nil
}

// Set swaps the slot to newToken only when it currently holds expectedPrevious.
// The key is watched for the duration of the transaction; a concurrent write
// aborts the swap and surfaces ErrSessionConflict.
func (s *RedisSessionStore) Set(ctx context.Context, identityID, newToken, expectedPrevious string) error {
	key := s.key(identityID)
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			current = ""
		} else if err != nil {
			return fmt.Errorf("redis read session: %w", err)
		}
		if current != expectedPrevious {
			return ErrSessionConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, newToken, s.tokenTTL)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrSessionConflict
	}
	return err
}

// Clear empties the identity's slot.
func (s *RedisSessionStore) Clear(ctx context.Context, identityID string) error {
	if err := s.client.Del(ctx, s.key(identityID)).Err(); err != nil {
		return fmt.Errorf("redis clear session: %w", err)
	}
	return nil
}

// Ping verifies the Redis connection is reachable.
func (s *RedisSessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the Redis client resources.
func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}
