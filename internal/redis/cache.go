package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"hail/internal/domain"
)

// CacheStore caches read-mostly entities in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

const (
	// PricingConfigTTL bounds how stale a cached config can get after an
	// admin mutation on another node.
	PricingConfigTTL = 60 * time.Second

	pricingConfigKey = "cache:pricing_config"
)

// GetPricingConfig retrieves the cached pricing configuration. A cache
// miss returns (nil, nil).
func (s *CacheStore) GetPricingConfig(ctx context.Context) (*domain.PricingConfig, error) {
	data, err := s.client.Get(ctx, pricingConfigKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var cfg domain.PricingConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetPricingConfig caches the pricing configuration.
func (s *CacheStore) SetPricingConfig(ctx context.Context, cfg *domain.PricingConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, pricingConfigKey, data, PricingConfigTTL).Err()
}

// InvalidatePricingConfig drops the cached pricing configuration. Called
// after an admin mutation so readers pick up the new config immediately.
func (s *CacheStore) InvalidatePricingConfig(ctx context.Context) error {
	return s.client.Del(ctx, pricingConfigKey).Err()
}
