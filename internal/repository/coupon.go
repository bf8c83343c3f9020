package repository

import (
	"context"

	"hail/internal/domain"
)

// CouponRepository defines the persistence operations for coupons.
type CouponRepository interface {
	// Create adds a new coupon.
	Create(ctx context.Context, coupon *domain.Coupon) error

	// GetByCode retrieves a coupon by its unique code.
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)

	// IncrementUsage consumes one use of the coupon. Returns false when
	// the usage limit was already reached. Called only when a ride is
	// actually booked, never at quote time.
	IncrementUsage(ctx context.Context, code string) (bool, error)
}
