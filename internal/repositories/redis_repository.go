package repositories

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRepository keeps the set of revoked access token ids.
type RedisRepository struct {
	rdb *redis.Client
}

func NewRedisRepository(rdb *redis.Client) *RedisRepository {
	return &RedisRepository{rdb: rdb}
}

func (r *RedisRepository) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	key := "blacklist:" + jti
	exists, err := r.rdb.Exists(ctx, key).Result()
	return exists == 1, err
}

// Blacklist revokes jti until ttl elapses, which should cover the
// remaining lifetime of the token.
func (r *RedisRepository) Blacklist(ctx context.Context, jti string, ttl time.Duration) error {
	key := "blacklist:" + jti
	return r.rdb.Set(ctx, key, "true", ttl).Err()
}
