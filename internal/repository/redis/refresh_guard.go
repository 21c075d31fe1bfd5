package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "refresh:used:"

// minTTL keeps a marker alive for tokens that are at or past expiry, so a
// replay racing the expiry check is still caught.
const minTTL = time.Second

// RefreshTokenGuard implements repository.RefreshTokenGuard using Redis.
type RefreshTokenGuard struct {
	client redis.Cmdable
}

// NewRefreshTokenGuard creates a new Redis-backed refresh token guard.
func NewRefreshTokenGuard(client redis.Cmdable) *RefreshTokenGuard {
	return &RefreshTokenGuard{client: client}
}

// Consume records jti with SET NX. The marker expires with the token.
func (g *RefreshTokenGuard) Consume(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	if jti == "" {
		return false, errors.New("refresh token has no jti")
	}
	if ttl < minTTL {
		ttl = minTTL
	}

	ok, err := g.client.SetNX(ctx, keyPrefix+jti, time.Now().UTC().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis consume refresh token: %w", err)
	}
	return ok, nil
}
