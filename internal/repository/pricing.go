package repository

import (
	"context"

	"hail/internal/domain"
)

// PricingConfigRepository provides the admin-mutated pricing configuration.
type PricingConfigRepository interface {
	// Get returns the current pricing configuration.
	Get(ctx context.Context) (*domain.PricingConfig, error)

	// Update replaces the pricing configuration.
	Update(ctx context.Context, cfg *domain.PricingConfig) error
}
