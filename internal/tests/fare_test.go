package tests

import (
	"context"
	"math"
	"testing"
	"time"

	"hail/internal/domain"
	"hail/internal/service"
	"hail/pkg/logger"
)

// testPricingConfig mirrors the seeded defaults: base 3.50, 1.00/km,
// 0.20/min, comfort at 1.3x.
func testPricingConfig() *domain.PricingConfig {
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

func newFareFixture(cfg *domain.PricingConfig) (*service.FareService, *MockCouponRepository, *MockPricingConfigRepository, *MockCacheStore) {
	pricingRepo := NewMockPricingConfigRepository()
	if cfg != nil {
		pricingRepo.SetConfig(cfg)
	}
	couponRepo := NewMockCouponRepository()
	cache := NewMockCacheStore()
	svc := service.NewFareService(pricingRepo, couponRepo, cache, logger.Discard())
	return svc, couponRepo, pricingRepo, cache
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestQuote_ZeroTripCostsBaseFare(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newFareFixture(testPricingConfig())

	b, err := svc.Quote(ctx, domain.TripFacts{
		DistanceKm:      0,
		DurationMinutes: 0,
		ServiceType:     domain.ServiceTypeEconomy,
		RideTime:        time.Now(),
	})
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if !almostEqual(b.Total, 3.5) {
		t.Errorf("expected total 3.50, got %.2f", b.Total)
	}
	if got := service.NormalizeFare(b.Total); !almostEqual(got, 3.5) {
		t.Errorf("expected normalized total 3.50, got %.2f", got)
	}
}

func TestQuote_ComfortTrip(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newFareFixture(testPricingConfig())

	// 3.50 + 10*1.00 + 20*0.20 = 17.50, comfort 1.3x = 22.75.
	b, err := svc.Quote(ctx, domain.TripFacts{
		DistanceKm:      10,
		DurationMinutes: 20,
		ServiceType:     domain.ServiceTypeComfort,
		RideTime:        time.Now(),
	})
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if !almostEqual(b.Subtotal, 22.75) {
		t.Errorf("expected subtotal 22.75, got %.2f", b.Subtotal)
	}
	if !almostEqual(b.ServiceMultiplier, 1.3) {
		t.Errorf("expected multiplier 1.3, got %.2f", b.ServiceMultiplier)
	}
	// 22.75 rounds half-up to 22.80, then half-up again to 23.00.
	if got := service.NormalizeFare(b.Total); !almostEqual(got, 23.0) {
		t.Errorf("expected normalized total 23.00, got %.2f", got)
	}
}

func TestQuote_SpecialDayThenPeakStack(t *testing.T) {
	ctx := context.Background()
	rideTime := time.Date(2026, 1, 1, 18, 30, 0, 0, time.UTC)

	cfg := testPricingConfig()
	cfg.SpecialFareRules = []domain.SpecialFareRule{
		{Name: "new-year", StartDate: rideTime.AddDate(0, 0, -1), EndDate: rideTime.AddDate(0, 0, 1), SurchargePercent: 10},
	}
	cfg.PeakTimeRules = []domain.PeakTimeRule{
		{StartTime: "17:00", EndTime: "20:00", SurchargePercent: 20},
	}
	svc, _, _, _ := newFareFixture(cfg)

	// 3.50 + 10 + 4 = 17.50 economy; +10% = 19.25; +20% of 19.25 = 23.10.
	b, err := svc.Quote(ctx, domain.TripFacts{
		DistanceKm:      10,
		DurationMinutes: 20,
		ServiceType:     domain.ServiceTypeEconomy,
		RideTime:        rideTime,
	})
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if !almostEqual(b.SpecialDaySurcharge, 1.75) {
		t.Errorf("expected special surcharge 1.75, got %.2f", b.SpecialDaySurcharge)
	}
	if b.SpecialRuleName != "new-year" {
		t.Errorf("expected rule new-year, got %q", b.SpecialRuleName)
	}
	if !almostEqual(b.PeakSurcharge, 3.85) {
		t.Errorf("expected peak surcharge 3.85, got %.2f", b.PeakSurcharge)
	}
	if !almostEqual(b.Subtotal, 23.10) {
		t.Errorf("expected subtotal 23.10, got %.2f", b.Subtotal)
	}
}

func TestQuote_FirstMatchingSpecialRuleWins(t *testing.T) {
	ctx := context.Background()
	rideTime := time.Date(2026, 12, 25, 12, 0, 0, 0, time.UTC)

	cfg := testPricingConfig()
	cfg.SpecialFareRules = []domain.SpecialFareRule{
		{Name: "holidays", StartDate: rideTime.AddDate(0, 0, -5), EndDate: rideTime.AddDate(0, 0, 5), SurchargePercent: 5},
		{Name: "christmas", StartDate: rideTime, EndDate: rideTime, SurchargePercent: 50},
	}
	svc, _, _, _ := newFareFixture(cfg)

	b, err := svc.Quote(ctx, domain.TripFacts{
		ServiceType: domain.ServiceTypeEconomy,
		RideTime:    rideTime,
	})
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if b.SpecialRuleName != "holidays" {
		t.Errorf("expected first matching rule holidays, got %q", b.SpecialRuleName)
	}
}

func TestQuote_PeakWindowWrapsMidnight(t *testing.T) {
	ctx := context.Background()
	cfg := testPricingConfig()
	cfg.PeakTimeRules = []domain.PeakTimeRule{
		{StartTime: "23:00", EndTime: "05:00", SurchargePercent: 25},
	}
	svc, _, _, _ := newFareFixture(cfg)

	inside := time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC)
	outside := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	b, err := svc.Quote(ctx, domain.TripFacts{ServiceType: domain.ServiceTypeEconomy, RideTime: inside})
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if b.PeakSurcharge == 0 {
		t.Error("expected peak surcharge at 02:00 inside a 23:00-05:00 window")
	}

	b, err = svc.Quote(ctx, domain.TripFacts{ServiceType: domain.ServiceTypeEconomy, RideTime: outside})
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if b.PeakSurcharge != 0 {
		t.Errorf("expected no peak surcharge at noon, got %.2f", b.PeakSurcharge)
	}
}

func TestQuote_MalformedPeakRuleSkipped(t *testing.T) {
	ctx := context.Background()
	cfg := testPricingConfig()
	cfg.PeakTimeRules = []domain.PeakTimeRule{
		{StartTime: "25:99", EndTime: "late", SurchargePercent: 99},
		{StartTime: "08:00", EndTime: "10:00", SurchargePercent: 10},
	}
	svc, _, _, _ := newFareFixture(cfg)

	b, err := svc.Quote(ctx, domain.TripFacts{
		ServiceType: domain.ServiceTypeEconomy,
		RideTime:    time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	// The malformed rule is skipped; the valid 10% rule applies.
	if !almostEqual(b.PeakSurcharge, 0.35) {
		t.Errorf("expected peak surcharge 0.35, got %.2f", b.PeakSurcharge)
	}
}

func TestQuote_UnknownServiceTypeUsesNeutralMultiplier(t *testing.T) {
	ctx := context.Background()
	cfg := testPricingConfig()
	delete(cfg.ServiceMultipliers, domain.ServiceTypeExclusive)
	svc, _, _, _ := newFareFixture(cfg)

	b, err := svc.Quote(ctx, domain.TripFacts{
		DistanceKm:      10,
		DurationMinutes: 20,
		ServiceType:     domain.ServiceTypeExclusive,
		RideTime:        time.Now(),
	})
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if !almostEqual(b.ServiceMultiplier, 1.0) {
		t.Errorf("expected neutral multiplier, got %.2f", b.ServiceMultiplier)
	}
	if !almostEqual(b.Subtotal, 17.5) {
		t.Errorf("expected subtotal 17.50, got %.2f", b.Subtotal)
	}
}

func TestQuote_NegativeFactsRejected(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newFareFixture(testPricingConfig())

	if _, err := svc.Quote(ctx, domain.TripFacts{DistanceKm: -1, ServiceType: domain.ServiceTypeEconomy}); err != service.ErrInvalidTripFacts {
		t.Errorf("expected ErrInvalidTripFacts, got %v", err)
	}
}

func TestQuote_PercentageCoupon(t *testing.T) {
	ctx := context.Background()
	svc, couponRepo, _, _ := newFareFixture(testPricingConfig())
	couponRepo.AddCoupon(&domain.Coupon{
		Code:         "SAVE10",
		DiscountType: domain.DiscountTypePercentage,
		Value:        10,
		ExpiryDate:   time.Now().Add(24 * time.Hour),
		Status:       domain.CouponStatusActive,
	})

	b, err := svc.Quote(ctx, domain.TripFacts{
		DistanceKm:      10,
		DurationMinutes: 20,
		ServiceType:     domain.ServiceTypeEconomy,
		RideTime:        time.Now(),
		CouponCode:      "SAVE10",
	})
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if !b.CouponApplied {
		t.Fatal("expected coupon to apply")
	}
	if !almostEqual(b.CouponDiscount, 1.75) {
		t.Errorf("expected discount 1.75, got %.2f", b.CouponDiscount)
	}
	if !almostEqual(b.Total, 15.75) {
		t.Errorf("expected total 15.75, got %.2f", b.Total)
	}
}

func TestQuote_FixedCouponNeverNegative(t *testing.T) {
	ctx := context.Background()
	svc, couponRepo, _, _ := newFareFixture(testPricingConfig())
	couponRepo.AddCoupon(&domain.Coupon{
		Code:         "BIG100",
		DiscountType: domain.DiscountTypeFixed,
		Value:        100,
		ExpiryDate:   time.Now().Add(24 * time.Hour),
		Status:       domain.CouponStatusActive,
	})

	b, err := svc.Quote(ctx, domain.TripFacts{
		ServiceType: domain.ServiceTypeEconomy,
		RideTime:    time.Now(),
		CouponCode:  "BIG100",
	})
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	// The discount is clamped to the subtotal; the total floors at zero.
	if !almostEqual(b.CouponDiscount, b.Subtotal) {
		t.Errorf("expected discount clamped to subtotal %.2f, got %.2f", b.Subtotal, b.CouponDiscount)
	}
	if !almostEqual(b.Total, 0) {
		t.Errorf("expected total 0, got %.2f", b.Total)
	}
}

func TestQuote_DisabledCouponQuotesWithoutDiscount(t *testing.T) {
	ctx := context.Background()
	svc, couponRepo, _, _ := newFareFixture(testPricingConfig())
	couponRepo.AddCoupon(&domain.Coupon{
		Code:         "DEAD",
		DiscountType: domain.DiscountTypeFixed,
		Value:        5,
		ExpiryDate:   time.Now().Add(24 * time.Hour),
		Status:       domain.CouponStatusDisabled,
	})

	b, err := svc.Quote(ctx, domain.TripFacts{
		DistanceKm:  10,
		ServiceType: domain.ServiceTypeEconomy,
		RideTime:    time.Now(),
		CouponCode:  "DEAD",
	})
	if err != nil {
		t.Fatalf("expected quote to succeed with unusable coupon, got %v", err)
	}
	if b.CouponApplied || b.CouponDiscount != 0 {
		t.Errorf("expected no discount, got applied=%v discount=%.2f", b.CouponApplied, b.CouponDiscount)
	}
	if b.CouponReason != domain.ErrCouponDisabled.Error() {
		t.Errorf("expected reason %q, got %q", domain.ErrCouponDisabled, b.CouponReason)
	}
}

func TestQuote_CouponBelowMinSpend(t *testing.T) {
	ctx := context.Background()
	svc, couponRepo, _, _ := newFareFixture(testPricingConfig())
	couponRepo.AddCoupon(&domain.Coupon{
		Code:         "MIN50",
		DiscountType: domain.DiscountTypeFixed,
		Value:        5,
		MinSpend:     50,
		ExpiryDate:   time.Now().Add(24 * time.Hour),
		Status:       domain.CouponStatusActive,
	})

	b, err := svc.Quote(ctx, domain.TripFacts{
		DistanceKm:  10,
		ServiceType: domain.ServiceTypeEconomy,
		RideTime:    time.Now(),
		CouponCode:  "MIN50",
	})
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if b.CouponApplied {
		t.Error("expected coupon below minimum spend not to apply")
	}
	if b.CouponReason != domain.ErrCouponBelowMinSpend.Error() {
		t.Errorf("expected reason %q, got %q", domain.ErrCouponBelowMinSpend, b.CouponReason)
	}
}

func TestQuote_DoesNotConsumeCoupon(t *testing.T) {
	ctx := context.Background()
	svc, couponRepo, _, _ := newFareFixture(testPricingConfig())
	couponRepo.AddCoupon(&domain.Coupon{
		Code:         "ONCE",
		DiscountType: domain.DiscountTypeFixed,
		Value:        2,
		UsageLimit:   1,
		ExpiryDate:   time.Now().Add(24 * time.Hour),
		Status:       domain.CouponStatusActive,
	})

	for i := 0; i < 3; i++ {
		if _, err := svc.Quote(ctx, domain.TripFacts{
			DistanceKm:  10,
			ServiceType: domain.ServiceTypeEconomy,
			RideTime:    time.Now(),
			CouponCode:  "ONCE",
		}); err != nil {
			t.Fatalf("quote %d failed: %v", i, err)
		}
	}
	if got := couponRepo.GetCoupon("ONCE").TimesUsed; got != 0 {
		t.Errorf("expected quoting to leave usage at 0, got %d", got)
	}
}

func TestConfig_FallsBackToDefaultsWhenUnset(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newFareFixture(nil)

	cfg, err := svc.Config(ctx)
	if err != nil {
		t.Fatalf("expected built-in defaults, got %v", err)
	}
	if !almostEqual(cfg.BaseFare, 3.5) || !almostEqual(cfg.PerKmFare, 1.0) || !almostEqual(cfg.PerMinuteFare, 0.2) {
		t.Errorf("unexpected default rates: %+v", cfg)
	}
	if m, ok := cfg.Multiplier(domain.ServiceTypeComfort); !ok || !almostEqual(m, 1.3) {
		t.Errorf("expected default comfort multiplier 1.3, got %.2f (ok=%v)", m, ok)
	}
}

func TestConfig_CachedAfterFirstRead(t *testing.T) {
	ctx := context.Background()
	svc, _, pricingRepo, cache := newFareFixture(testPricingConfig())

	if _, err := svc.Config(ctx); err != nil {
		t.Fatalf("config read failed: %v", err)
	}
	if !cache.Cached() {
		t.Fatal("expected config to be cached after first read")
	}

	reads := pricingRepo.GetCallCount
	if _, err := svc.Config(ctx); err != nil {
		t.Fatalf("config read failed: %v", err)
	}
	if pricingRepo.GetCallCount != reads {
		t.Error("expected second read to be served from cache")
	}
}

func TestUpdateConfig_InvalidatesCache(t *testing.T) {
	ctx := context.Background()
	svc, _, _, cache := newFareFixture(testPricingConfig())

	if _, err := svc.Config(ctx); err != nil {
		t.Fatalf("config read failed: %v", err)
	}

	updated := testPricingConfig()
	updated.BaseFare = 4.0
	if err := svc.UpdateConfig(ctx, updated); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if cache.InvalidateCallCount == 0 {
		t.Error("expected cache invalidation on update")
	}

	cfg, err := svc.Config(ctx)
	if err != nil {
		t.Fatalf("config read failed: %v", err)
	}
	if !almostEqual(cfg.BaseFare, 4.0) {
		t.Errorf("expected updated base fare 4.00, got %.2f", cfg.BaseFare)
	}
}
