package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"hail/internal/domain"
	"hail/internal/repository"
)

// CouponService handles operator-side coupon management. Evaluation
// against a quote lives in FareService; this service only creates and
// inspects coupons.
type CouponService struct {
	couponRepo repository.CouponRepository
	log        *logrus.Logger
}

func NewCouponService(couponRepo repository.CouponRepository, log *logrus.Logger) *CouponService {
	return &CouponService{couponRepo: couponRepo, log: log}
}

// Create registers a new coupon code. Codes are stored uppercase.
func (s *CouponService) Create(ctx context.Context, code string, discountType domain.DiscountType, value float64, expiry time.Time, minSpend float64, usageLimit int) (*domain.Coupon, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, errors.New("coupon code is required")
	}
	switch discountType {
	case domain.DiscountTypePercentage, domain.DiscountTypeFixed:
	default:
		return nil, errors.New("invalid discount type")
	}
	if value <= 0 {
		return nil, errors.New("discount value must be positive")
	}
	if discountType == domain.DiscountTypePercentage && value > 100 {
		return nil, errors.New("percentage discount cannot exceed 100")
	}

	coupon := &domain.Coupon{
		ID:           uuid.New().String(),
		Code:         code,
		DiscountType: discountType,
		Value:        value,
		ExpiryDate:   expiry,
		Status:       domain.CouponStatusActive,
		MinSpend:     minSpend,
		UsageLimit:   usageLimit,
		CreatedAt:    time.Now(),
	}
	if err := s.couponRepo.Create(ctx, coupon); err != nil {
		return nil, err
	}
	s.log.WithField("code", code).Info("coupon created")
	return coupon, nil
}

// Get retrieves a coupon by code.
func (s *CouponService) Get(ctx context.Context, code string) (*domain.Coupon, error) {
	return s.couponRepo.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
}
