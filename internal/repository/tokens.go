package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/akozyrev/stocktake/internal/service"
)

const (
	tokenKeyPrefix   = "token:"
	attemptKeyPrefix = "login_attempts:"
)

// RedisTokenStore keeps bearer tokens and login-failure counters in
// redis so they are shared across server instances.
type RedisTokenStore struct {
	client *redis.Client
}

// NewRedisTokenStore creates a RedisTokenStore over the given client.
func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

// SaveToken associates a token with a user for the given TTL.
func (s *RedisTokenStore) SaveToken(ctx context.Context, token string, userID int64, ttl time.Duration) error {
	return s.client.Set(ctx, tokenKeyPrefix+token, userID, ttl).Err()
}

// UserIDForToken resolves a token to its user id, or returns
// service.ErrInvalidToken when the token is unknown or expired.
func (s *RedisTokenStore) UserIDForToken(ctx context.Context, token string) (int64, error) {
	userID, err := s.client.Get(ctx, tokenKeyPrefix+token).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, service.ErrInvalidToken
	}
	if err != nil {
		return 0, fmt.Errorf("lookup token: %w", err)
	}
	return userID, nil
}

// DeleteToken invalidates a token.
func (s *RedisTokenStore) DeleteToken(ctx context.Context, token string) error {
	return s.client.Del(ctx, tokenKeyPrefix+token).Err()
}

// RecordFailure bumps the username's failed-attempt counter and
// returns the new count. The expiry is set on the first failure only,
// so the lockout window measures from the first miss.
func (s *RedisTokenStore) RecordFailure(ctx context.Context, username string, window time.Duration) (int64, error) {
	key := attemptKeyPrefix + username
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("record login failure: %w", err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, fmt.Errorf("set lockout window: %w", err)
		}
	}
	return count, nil
}

// FailureCount returns the username's current failed-attempt count.
func (s *RedisTokenStore) FailureCount(ctx context.Context, username string) (int64, error) {
	count, err := s.client.Get(ctx, attemptKeyPrefix+username).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read login failures: %w", err)
	}
	return count, nil
}

// ResetFailures clears the username's failed-attempt counter.
func (s *RedisTokenStore) ResetFailures(ctx context.Context, username string) error {
	return s.client.Del(ctx, attemptKeyPrefix+username).Err()
}
