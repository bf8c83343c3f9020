package postgres

import (
	"context"
	"database/sql"
	"errors"

	"hail/internal/domain"
	"hail/internal/repository"
)

// CouponRepository is a PostgreSQL implementation of repository.CouponRepository.
type CouponRepository struct {
	q Querier
}

// NewCouponRepository creates a new PostgreSQL coupon repository.
func NewCouponRepository(db *sql.DB) *CouponRepository {
	return &CouponRepository{q: db}
}

// Create adds a new coupon.
func (r *CouponRepository) Create(ctx context.Context, c *domain.Coupon) error {
	query := `
		INSERT INTO coupons (id, code, discount_type, value, expiry_date, status, min_spend, usage_limit, times_used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.q.ExecContext(ctx, query,
		c.ID, c.Code, c.DiscountType, c.Value, c.ExpiryDate, c.Status,
		c.MinSpend, c.UsageLimit, c.TimesUsed, c.CreatedAt,
	)
	return err
}

// GetByCode retrieves a coupon by its unique code.
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	query := `
		SELECT id, code, discount_type, value, expiry_date, status, min_spend, usage_limit, times_used, created_at
		FROM coupons WHERE code = $1
	`

	var c domain.Coupon
	err := r.q.QueryRowContext(ctx, query, code).Scan(
		&c.ID, &c.Code, &c.DiscountType, &c.Value, &c.ExpiryDate, &c.Status,
		&c.MinSpend, &c.UsageLimit, &c.TimesUsed, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// IncrementUsage consumes one use of the coupon. The usage-limit guard is
// part of the UPDATE so two concurrent bookings cannot both take the last
// use.
func (r *CouponRepository) IncrementUsage(ctx context.Context, code string) (bool, error) {
	query := `
		UPDATE coupons
		SET times_used = times_used + 1
		WHERE code = $1 AND (usage_limit = 0 OR times_used < usage_limit)
	`

	result, err := r.q.ExecContext(ctx, query, code)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
