package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/storefront/pkg/apperrors"
	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/models"
	"github.com/go-redis/redis/v8"
)

// CartTTL is refreshed on every cart read and write.
const CartTTL = 24 * time.Hour

type RedisRepository struct {
	client *redis.Client
	config *config.RedisConfig
}

func NewRedisRepository(cfg *config.RedisConfig) *RedisRepository {
	return &RedisRepository{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: cfg.PoolSize,
		}),
		config: cfg,
	}
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepository) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

func (r *RedisRepository) Get(ctx context.Context, key string) (string, error) {
	return r.client.Get(ctx, key).Result()
}

func (r *RedisRepository) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisRepository) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, expiration).Err()
}

func (r *RedisRepository) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}

// GetCart loads the whole cart snapshot and refreshes its TTL.
func (r *RedisRepository) GetCart(ctx context.Context, sessionID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.GetJSON(ctx, cartKey(sessionID), &cart)
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.NotFound("cart not found for session %s", sessionID)
	}
	if err != nil {
		return nil, err
	}
	r.client.Expire(ctx, cartKey(sessionID), CartTTL)
	return &cart, nil
}

// SaveCart writes the whole cart snapshot with a fresh TTL. There is no
// version check; concurrent writers are last-write-wins.
func (r *RedisRepository) SaveCart(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = time.Now()
	return r.SetJSON(ctx, cartKey(cart.SessionID), cart, CartTTL)
}

func (r *RedisRepository) DeleteCart(ctx context.Context, sessionID string) error {
	return r.Del(ctx, cartKey(sessionID))
}
