package service

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"hail/internal/domain"
	"hail/internal/redis"
	"hail/internal/repository"
)

// FareService computes fare quotes from trip facts and the active
// pricing configuration. The config is read through the cache store and
// falls back to the repository on a miss.
type FareService struct {
	pricingRepo repository.PricingConfigRepository
	couponRepo  repository.CouponRepository
	cache       redis.CacheStoreInterface
	log         *logrus.Logger
}

func NewFareService(pricingRepo repository.PricingConfigRepository, couponRepo repository.CouponRepository, cache redis.CacheStoreInterface, log *logrus.Logger) *FareService {
	return &FareService{
		pricingRepo: pricingRepo,
		couponRepo:  couponRepo,
		cache:       cache,
		log:         log,
	}
}

// Quote prices a trip and evaluates an optional coupon against the
// pre-discount total. Coupon usage is not consumed here; that happens
// when a ride is actually booked.
func (s *FareService) Quote(ctx context.Context, facts domain.TripFacts) (*domain.FareBreakdown, error) {
	if facts.DistanceKm < 0 || facts.DurationMinutes < 0 {
		return nil, ErrInvalidTripFacts
	}

	cfg, err := s.Config(ctx)
	if err != nil {
		return nil, err
	}

	b := s.price(facts, cfg)

	if facts.CouponCode != "" {
		s.applyCoupon(ctx, facts.CouponCode, b)
	}

	b.Total = round2(b.Subtotal - b.CouponDiscount)
	return b, nil
}

// Config returns the active pricing configuration, preferring the cache.
func (s *FareService) Config(ctx context.Context) (*domain.PricingConfig, error) {
	if cfg, err := s.cache.GetPricingConfig(ctx); err == nil && cfg != nil {
		return cfg, nil
	}

	cfg, err := s.pricingRepo.Get(ctx)
	if err == repository.ErrNotFound {
		// Explicit hard-coded fallback. Quoting must never degrade to a
		// silent zero fare when the settings store is empty.
		s.log.Warn("pricing config missing, using built-in defaults")
		return defaultPricingConfig(), nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetPricingConfig(ctx, cfg); err != nil {
		s.log.WithError(err).Warn("failed to cache pricing config")
	}
	return cfg, nil
}

// UpdateConfig replaces the pricing configuration and invalidates the
// cached copy. In-flight quotes keep the snapshot they read.
func (s *FareService) UpdateConfig(ctx context.Context, cfg *domain.PricingConfig) error {
	cfg.UpdatedAt = time.Now()
	if err := s.pricingRepo.Update(ctx, cfg); err != nil {
		return err
	}
	if err := s.cache.InvalidatePricingConfig(ctx); err != nil {
		s.log.WithError(err).Warn("failed to invalidate pricing config cache")
	}
	return nil
}

// price runs the pricing pipeline at full precision. Only the final
// total and the displayed components are rounded.
func (s *FareService) price(facts domain.TripFacts, cfg *domain.PricingConfig) *domain.FareBreakdown {
	b := &domain.FareBreakdown{
		BaseFare:     cfg.BaseFare,
		DistanceCost: facts.DistanceKm * cfg.PerKmFare,
		DurationCost: facts.DurationMinutes * cfg.PerMinuteFare,
	}

	mult, ok := cfg.Multiplier(facts.ServiceType)
	if !ok {
		mult = 1.0
		s.log.WithField("service_type", string(facts.ServiceType)).Warn("unknown service type, using neutral multiplier")
	}
	b.ServiceMultiplier = mult

	base := b.BaseFare + b.DistanceCost + b.DurationCost
	serviced := base * mult
	b.ServiceCost = serviced - base

	// First matching special-day rule wins; rules are kept in admin order.
	day := dateOnly(facts.RideTime)
	for _, r := range cfg.SpecialFareRules {
		if !day.Before(dateOnly(r.StartDate)) && !day.After(dateOnly(r.EndDate)) {
			b.SpecialDaySurcharge = serviced * r.SurchargePercent / 100
			b.SpecialRuleName = r.Name
			break
		}
	}
	afterSpecial := serviced + b.SpecialDaySurcharge

	for _, r := range cfg.PeakTimeRules {
		within, ok := inPeakWindow(facts.RideTime, r.StartTime, r.EndTime)
		if !ok {
			s.log.WithFields(logrus.Fields{
				"start": r.StartTime,
				"end":   r.EndTime,
			}).Warn("malformed peak time rule skipped")
			continue
		}
		if within {
			b.PeakSurcharge = afterSpecial * r.SurchargePercent / 100
			break
		}
	}

	b.Subtotal = afterSpecial + b.PeakSurcharge

	b.BaseFare = round2(b.BaseFare)
	b.DistanceCost = round2(b.DistanceCost)
	b.DurationCost = round2(b.DurationCost)
	b.ServiceCost = round2(b.ServiceCost)
	b.SpecialDaySurcharge = round2(b.SpecialDaySurcharge)
	b.PeakSurcharge = round2(b.PeakSurcharge)
	b.Subtotal = round2(b.Subtotal)
	return b
}

// DiscountFor returns the discount a coupon yields against subtotal, or
// 0 when the coupon cannot be applied.
func (s *FareService) DiscountFor(ctx context.Context, code string, subtotal float64) float64 {
	b := &domain.FareBreakdown{Subtotal: subtotal}
	s.applyCoupon(ctx, code, b)
	return b.CouponDiscount
}

func (s *FareService) applyCoupon(ctx context.Context, code string, b *domain.FareBreakdown) {
	c, err := s.couponRepo.GetByCode(ctx, code)
	if err != nil {
		b.CouponReason = ErrCouponNotFound.Error()
		return
	}
	ok, reason := c.Usable(b.Subtotal, time.Now())
	if !ok {
		b.CouponReason = reason.Error()
		return
	}

	var discount float64
	switch c.DiscountType {
	case domain.DiscountTypePercentage:
		discount = b.Subtotal * c.Value / 100
	case domain.DiscountTypeFixed:
		discount = c.Value
	}
	// A fixed coupon never drives the total negative.
	if discount > b.Subtotal {
		discount = b.Subtotal
	}
	b.CouponDiscount = round2(discount)
	b.CouponApplied = true
}

// inPeakWindow reports whether t falls inside the [start, end] window
// given as "HH:mm" strings. Windows spanning midnight (start > end)
// wrap around. The second return is false for malformed rule times.
func inPeakWindow(t time.Time, start, end string) (bool, bool) {
	sm, ok := parseMinutes(start)
	if !ok {
		return false, false
	}
	em, ok := parseMinutes(end)
	if !ok {
		return false, false
	}
	now := t.Hour()*60 + t.Minute()
	if sm <= em {
		return now >= sm && now <= em, true
	}
	return now >= sm || now <= em, true
}

func parseMinutes(hhmm string) (int, bool) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

// defaultPricingConfig is the fallback used when no configuration has
// been stored yet.
func defaultPricingConfig() *domain.PricingConfig {
	return &domain.PricingConfig{
		BaseFare:      3.5,
		PerKmFare:     1.0,
		PerMinuteFare: 0.2,
		ServiceMultipliers: map[domain.ServiceType]float64{
			domain.ServiceTypeEconomy:   1.0,
			domain.ServiceTypeComfort:   1.3,
			domain.ServiceTypeExclusive: 1.8,
		},
		NegotiationRangePercent: 20,
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
