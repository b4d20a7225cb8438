package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/ridepay/config"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(cfg config.RedisConfig) (*RedisCache, error) {
	opts := &redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts = parsed
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

// Client exposes the underlying connection for the rate limiter store.
func (c *RedisCache) Client() *redis.Client {
	return c.client
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// AcquireNotificationLock marks paymentID as being processed. It returns false
// when another delivery of the same notification holds the lock.
func (c *RedisCache) AcquireNotificationLock(ctx context.Context, paymentID string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, notificationLockKey(paymentID), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseNotificationLock(ctx context.Context, paymentID string) error {
	return c.client.Del(ctx, notificationLockKey(paymentID)).Err()
}

func notificationLockKey(paymentID string) string {
	return fmt.Sprintf("lock:payment-notification:%s", paymentID)
}
