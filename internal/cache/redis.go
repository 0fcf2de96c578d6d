package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/courtbooking/config"
	"github.com/Domenick1991/courtbooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client   *redis.Client
	ratesTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, ratesTTL time.Duration) *RedisCache {
	return NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}), ratesTTL)
}

func NewRedisCacheWithClient(client *redis.Client, ratesTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, ratesTTL: ratesTTL}
}

// GetPriceRows returns nil, nil on a cache miss.
func (c *RedisCache) GetPriceRows(ctx context.Context, courtID int64) ([]domain.PriceRow, error) {
	data, err := c.client.Get(ctx, priceRowsKey(courtID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var rows []domain.PriceRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *RedisCache) SetPriceRows(ctx context.Context, courtID int64, rows []domain.PriceRow) error {
	if rows == nil {
		rows = []domain.PriceRow{}
	}
	payload, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, priceRowsKey(courtID), payload, c.ratesTTL).Err()
}

func (c *RedisCache) InvalidatePriceRows(ctx context.Context, courtID int64) error {
	return c.client.Del(ctx, priceRowsKey(courtID)).Err()
}

// ClaimIdempotencyKey reports true the first time key is seen within ttl.
func (c *RedisCache) ClaimIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, idempotencyKey(key), "claimed", ttl).Result()
}

// ReleaseIdempotencyKey frees a claim whose request failed, so the client may retry.
func (c *RedisCache) ReleaseIdempotencyKey(ctx context.Context, key string) error {
	return c.client.Del(ctx, idempotencyKey(key)).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func priceRowsKey(courtID int64) string {
	return fmt.Sprintf("cache:court:%d:price_rows", courtID)
}

func idempotencyKey(key string) string {
	return "idem:booking:" + key
}
