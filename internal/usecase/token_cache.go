package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const tokenKeyPrefix = "qr:booking:"

// redisTokenCache keeps live check-in tokens in Redis so the scan
// endpoint resolves without hitting Postgres. Entries expire on their
// own; consume deletes eagerly.
type redisTokenCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisTokenCache(client *redis.Client, ttl time.Duration) TokenCache {
	return &redisTokenCache{client: client, ttl: ttl}
}

func (c *redisTokenCache) Set(ctx context.Context, token string, bookingID uuid.UUID) error {
	return c.client.Set(ctx, tokenKeyPrefix+token, bookingID.String(), c.ttl).Err()
}

func (c *redisTokenCache) Get(ctx context.Context, token string) (uuid.UUID, bool, error) {
	val, err := c.client.Get(ctx, tokenKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, true, nil
}

func (c *redisTokenCache) Del(ctx context.Context, token string) error {
	return c.client.Del(ctx, tokenKeyPrefix+token).Err()
}
