package cache

// Package cache backs webhook idempotency tracking and short-lived
// listing caches with either an in-process LRU or Redis.

import (
	"context"
	"fmt"
	"time"
)

// Provider is a string key/value cache with per-entry TTLs.
type Provider interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type Config struct {
	Provider              string
	RedisConnectionString string
}

func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "memory", "":
		return NewMemoryProvider()
	case "redis":
		return NewRedisProvider(cfg.RedisConnectionString)
	default:
		return nil, fmt.Errorf("unsupported cache provider: %s", cfg.Provider)
	}
}

// WebhookKey builds the dedup key for a processed webhook event.
func WebhookKey(source, eventID string) string {
	return fmt.Sprintf("webhook:%s:%s", source, eventID)
}

// PublicCouponsKey is the cache key for the public coupon listing.
const PublicCouponsKey = "coupons:public"
