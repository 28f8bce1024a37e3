package redis

import (
	"context"
	"time"

	"loyalty-campaign/internal/domain/ports/repository"
)

var _ repository.TokenBlacklist = (*TokenBlacklist)(nil)

// TokenBlacklist stores revoked refresh token ids in Redis.
type TokenBlacklist struct {
	client RedisClient
}

func NewTokenBlacklist(client RedisClient) *TokenBlacklist {
	return &TokenBlacklist{client: client}
}

func (b *TokenBlacklist) key(jti string) string {
	return "revoked_token:" + jti
}

func (b *TokenBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return b.client.Set(ctx, b.key(jti), 1, ttl)
}

func (b *TokenBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return b.client.Exists(ctx, b.key(jti))
}
