package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedPrefix = "jwt:revoked:"

// RedisRepo keeps the denylist of access tokens revoked before expiry.
type RedisRepo struct {
	client *redis.Client
}

func New(ctx context.Context, addr, pass string, db int) (*RedisRepo, error) {
	const op = "storage.redis.New"

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     pass,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return NewWithClient(client), nil
}

func NewWithClient(client *redis.Client) *RedisRepo {
	return &RedisRepo{client: client}
}

// RevokeAccessToken denylists the token id for ttl, which should be the
// token's remaining lifetime. Non-positive ttl is a no-op since the token
// is already unusable.
func (r *RedisRepo) RevokeAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	const op = "storage.redis.RevokeAccessToken"

	if ttl <= 0 {
		return nil
	}

	if err := r.client.Set(ctx, revokedPrefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RedisRepo) IsAccessTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	const op = "storage.redis.IsAccessTokenRevoked"

	err := r.client.Get(ctx, revokedPrefix+tokenID).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return true, nil
}

func (r *RedisRepo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepo) Close() {
	_ = r.client.Close()
}
