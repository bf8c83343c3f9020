package domain

import (
	"errors"
	"time"
)

// Reasons a coupon cannot discount a fare. Quotes still succeed with a
// zero discount; these surface as the "not applied" reason.
var (
	ErrCouponExpired       = errors.New("coupon expired")
	ErrCouponDisabled      = errors.New("coupon disabled")
	ErrCouponExhausted     = errors.New("coupon usage limit reached")
	ErrCouponBelowMinSpend = errors.New("subtotal below coupon minimum spend")
)

// CouponStatus represents the lifecycle status of a coupon.
type CouponStatus string

const (
	CouponStatusActive   CouponStatus = "ACTIVE"
	CouponStatusExpired  CouponStatus = "EXPIRED"
	CouponStatusDisabled CouponStatus = "DISABLED"
)

// DiscountType distinguishes percentage coupons from fixed-amount ones.
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "PERCENTAGE"
	DiscountTypeFixed      DiscountType = "FIXED"
)

// Coupon is an operator-created discount code. It is read-only at quote
// time; its usage counter is incremented only when a ride is actually
// booked.
type Coupon struct {
	ID           string
	Code         string
	DiscountType DiscountType
	Value        float64
	ExpiryDate   time.Time
	Status       CouponStatus
	MinSpend     float64 // 0 means no minimum
	UsageLimit   int     // 0 means unlimited
	TimesUsed    int
	CreatedAt    time.Time
}

// Usable reports whether the coupon can discount the given subtotal at the
// given time, with the reason it cannot.
func (c *Coupon) Usable(subtotal float64, now time.Time) (bool, error) {
	if c.Status == CouponStatusDisabled {
		return false, ErrCouponDisabled
	}
	if c.Status == CouponStatusExpired || now.After(c.ExpiryDate) {
		return false, ErrCouponExpired
	}
	if c.UsageLimit > 0 && c.TimesUsed >= c.UsageLimit {
		return false, ErrCouponExhausted
	}
	if c.MinSpend > 0 && subtotal < c.MinSpend {
		return false, ErrCouponBelowMinSpend
	}
	return true, nil
}
