package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revoker records logged-out token ids until they would have expired.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// LoginLimiter throttles repeated login attempts for one email.
type LoginLimiter interface {
	// Hit records an attempt and reports whether it is still within the limit.
	Hit(ctx context.Context, email string) (bool, error)
	Reset(ctx context.Context, email string) error
}

const (
	revokedPrefix  = "reclamos:token:revoked:"
	attemptsPrefix = "reclamos:login:attempts:"
)

// RedisRevoker is a Revoker on a Redis key per token id. A nil client turns
// every call into a no-op.
type RedisRevoker struct {
	client *redis.Client
}

// NewRedisRevoker builds a revoker.
func NewRedisRevoker(client *redis.Client) *RedisRevoker {
	return &RedisRevoker{client: client}
}

func (r *RedisRevoker) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if r == nil || r.client == nil || tokenID == "" || ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, revokedPrefix+tokenID, "1", ttl).Err()
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if r == nil || r.client == nil {
		return false, nil
	}
	n, err := r.client.Exists(ctx, revokedPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RedisLoginLimiter counts attempts per email in a fixed window.
type RedisLoginLimiter struct {
	client      *redis.Client
	maxAttempts int64
	window      time.Duration
}

// NewRedisLoginLimiter builds a limiter. maxAttempts <= 0 disables it.
func NewRedisLoginLimiter(client *redis.Client, maxAttempts int, window time.Duration) *RedisLoginLimiter {
	return &RedisLoginLimiter{client: client, maxAttempts: int64(maxAttempts), window: window}
}

func (l *RedisLoginLimiter) Hit(ctx context.Context, email string) (bool, error) {
	if l == nil || l.client == nil || l.maxAttempts <= 0 {
		return true, nil
	}
	key := attemptsKey(email)
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return true, fmt.Errorf("login limiter: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return true, fmt.Errorf("login limiter: %w", err)
		}
	}
	return count <= l.maxAttempts, nil
}

func (l *RedisLoginLimiter) Reset(ctx context.Context, email string) error {
	if l == nil || l.client == nil {
		return nil
	}
	return l.client.Del(ctx, attemptsKey(email)).Err()
}

func attemptsKey(email string) string {
	return attemptsPrefix + strings.ToLower(strings.TrimSpace(email))
}
